package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	recordKeyKey contextKey = "record_key"
	yearKey      contextKey = "year"
)

// WithRunID annotates context with a correlation identifier for one acquire run.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRecordKey annotates context with the datastore record key being processed.
func WithRecordKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, recordKeyKey, key)
}

// RecordKeyFromContext returns the record key if present.
func RecordKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(recordKeyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithYear annotates context with the list year being seeded or processed.
func WithYear(ctx context.Context, year int) context.Context {
	if year <= 0 {
		return ctx
	}
	return context.WithValue(ctx, yearKey, year)
}

// YearFromContext returns the list year if present.
func YearFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(yearKey).(int); ok && v > 0 {
		return v, true
	}
	return 0, false
}
