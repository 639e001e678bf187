package logging

import (
	"context"
	"log/slog"

	"bookshelf/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for acquire run correlation IDs.
	FieldRunID = "run_id"
	// FieldRecordKey is the standardized structured logging key for datastore record keys.
	FieldRecordKey = "record_key"
	// FieldYear is the standardized structured logging key for best-books list years.
	FieldYear = "year"
	// FieldStatus is the standardized structured logging key for record statuses.
	FieldStatus = "status"
	// FieldAttempts is the standardized structured logging key for lookup attempt counts.
	FieldAttempts = "attempts"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if key, ok := services.RecordKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRecordKey, key))
	}
	if year, ok := services.YearFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldYear, year))
	}
	return fields
}

// WithContext returns a logger annotated with the standardized fields carried
// by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
