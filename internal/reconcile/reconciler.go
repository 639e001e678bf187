package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/logging"
	"bookshelf/internal/readarr"
	"bookshelf/internal/services"
	"bookshelf/internal/tracking"
)

// Outcome status values for processed records. Dry runs report the record's
// current status instead.
const (
	OutcomeTracked  = "tracked"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Console timestamps drop the T separator the persisted layout uses.
const consoleTimeLayout = "2006-01-02 15:04:05"

// Outcome describes what happened to one record during a run.
type Outcome struct {
	SourceYear  int
	LocalID     int
	Title       string
	Author      string
	Status      string
	EntityType  string
	APIID       string
	Attempts    int
	NextRetryAt *time.Time
	Err         string
}

// RunReport summarizes one reconcile run.
type RunReport struct {
	DryRun   bool
	Outcomes []Outcome
	// Halted is set when a single-record run stopped before doing any work,
	// for example when the record is missing or still inside its backoff
	// window. Halted runs produce no outcome rows.
	Halted bool
}

// Options select which records a run considers.
type Options struct {
	// Year keeps the run to records seeded from one year; zero means all.
	Year int
	// LocalID targets a single record. It requires Year.
	LocalID int
	// Status replaces the default pending-or-failed selection when set.
	Status string
	// Limit caps how many records a batch run processes.
	Limit int
	// MaxAttempts is the retry ceiling handed to failure transitions. Zero
	// means records never exhaust.
	MaxAttempts int
	// DryRun reports eligible records without touching them or the API.
	DryRun bool
}

// Reconciler walks eligible records through the lookup service and records
// the resulting transitions.
type Reconciler struct {
	store    *tracking.Store
	searcher readarr.Searcher
	logger   *slog.Logger
	out      io.Writer
	now      func() time.Time
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOutput redirects progress lines, which default to stdout.
func WithOutput(w io.Writer) ReconcilerOption {
	return func(r *Reconciler) {
		if w != nil {
			r.out = w
		}
	}
}

// WithClock overrides the run clock.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReconciler builds a reconciler over the store and searcher.
func NewReconciler(store *tracking.Store, searcher readarr.Searcher, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:    store,
		searcher: searcher,
		logger:   logging.NewNop(),
		out:      os.Stdout,
		now:      tracking.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "reconcile")
	return r
}

// Run processes eligible records per the options. The clock is read once so
// every transition in the run shares one timestamp. Lookup failures move the
// record to failed and the run continues; a failed store save aborts it.
func (r *Reconciler) Run(ctx context.Context, opts Options) (*RunReport, error) {
	now := r.now()
	ctx = services.WithRunID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, r.logger)

	if !opts.DryRun {
		if keys := r.store.ResetStuckInProgress(); len(keys) > 0 {
			logger.Info("reset stuck in-progress records", logging.Int("count", len(keys)))
			if err := r.store.Save(); err != nil {
				return nil, fmt.Errorf("persist datastore: %w", err)
			}
		}
	}

	if opts.LocalID != 0 {
		if opts.Year == 0 {
			return nil, fmt.Errorf("a year is required when targeting a single record")
		}
		return r.runSingle(ctx, logger, opts, now)
	}
	return r.runBatch(ctx, logger, opts, now)
}

func (r *Reconciler) runSingle(ctx context.Context, logger *slog.Logger, opts Options, now time.Time) (*RunReport, error) {
	halted := &RunReport{DryRun: opts.DryRun, Halted: true}

	record, ok := r.store.GetByID(opts.Year, opts.LocalID)
	if !ok {
		fmt.Fprintf(r.out, "No datastore record found for %d:%d.\n", opts.Year, opts.LocalID)
		return halted, nil
	}
	if opts.Status != "" && string(record.Status) != opts.Status {
		fmt.Fprintf(r.out, "Book %d:%d does not match status filter (status: %s, filter: %s).\n",
			opts.Year, opts.LocalID, record.Status, opts.Status)
		return halted, nil
	}
	if opts.Status == "" && record.Status != tracking.StatusPending && record.Status != tracking.StatusFailed {
		fmt.Fprintf(r.out, "Book %d:%d is not eligible for processing (status: %s).\n",
			opts.Year, opts.LocalID, record.Status)
		return halted, nil
	}
	if !record.RetryDue(now) {
		fmt.Fprintf(r.out, "Book %d:%d is not yet eligible for retry (next_retry_at: %s).\n",
			opts.Year, opts.LocalID, formatRetryAt(record.NextRetryAt))
		return halted, nil
	}

	if opts.DryRun {
		fmt.Fprintln(r.out, "1 book eligible for processing (dry run, no API calls).")
		return &RunReport{DryRun: true, Outcomes: []Outcome{dryRunOutcome(record)}}, nil
	}

	outcome, err := r.processRecord(ctx, logger, record, now, opts.MaxAttempts)
	if err != nil {
		return nil, err
	}
	return &RunReport{Outcomes: []Outcome{outcome}}, nil
}

func (r *Reconciler) runBatch(ctx context.Context, logger *slog.Logger, opts Options, now time.Time) (*RunReport, error) {
	eligible := tracking.EligibleOptions{
		Status: tracking.Status(opts.Status),
		Year:   opts.Year,
		Limit:  opts.Limit,
	}

	if opts.DryRun {
		records := r.store.Eligible(now, eligible)
		fmt.Fprintf(r.out, "%d books eligible for processing (dry run, no API calls).\n", len(records))
		outcomes := make([]Outcome, 0, len(records))
		for _, record := range records {
			outcomes = append(outcomes, dryRunOutcome(record))
		}
		return &RunReport{DryRun: true, Outcomes: outcomes}, nil
	}

	var outcomes []Outcome
	for _, record := range r.store.Eligible(now, eligible) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, err := r.processRecord(ctx, logger, record, now, opts.MaxAttempts)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}

	if len(outcomes) == 0 {
		fmt.Fprintln(r.out, "No pending books eligible for processing at this time.")
	}
	return &RunReport{Outcomes: outcomes}, nil
}

// processRecord runs one record through mark-in-progress, lookup, and the
// final transition, saving the store around the API call so an interrupted
// run leaves an accurate in_progress marker behind.
func (r *Reconciler) processRecord(ctx context.Context, logger *slog.Logger, record *tracking.Record, now time.Time, maxAttempts int) (Outcome, error) {
	ctx = services.WithRecordKey(ctx, record.Key)
	logger = logging.WithContext(ctx, logger)

	fmt.Fprintf(r.out, "Processing %d:%d %s ...\n", record.SourceYear, record.LocalID, record.Title)
	record.MarkInProgress(now)
	if err := r.store.Save(); err != nil {
		return Outcome{}, fmt.Errorf("persist datastore: %w", err)
	}

	outcome := Outcome{
		SourceYear: record.SourceYear,
		LocalID:    record.LocalID,
		Title:      record.Title,
		Author:     record.Author,
	}

	result, err := readarr.Lookup(ctx, r.searcher, readarr.Query{
		GoodreadsID: record.Identifiers.GoodreadsID,
		ISBN13:      record.Identifiers.ISBN13,
		ISBN10:      record.Identifiers.ISBN10,
		Author:      record.Author,
	}, r.out)

	switch {
	case err != nil:
		record.MarkFailed(err.Error(), maxAttempts, now)
		fmt.Fprintf(r.out, "  -> error calling external API: %v (attempts=%d, next_retry_at=%s).\n",
			err, record.Attempts, formatRetryAt(record.NextRetryAt))
		outcome.Status = OutcomeError
		outcome.Err = err.Error()
		outcome.Attempts = record.Attempts
		outcome.NextRetryAt = record.NextRetryAt
		logger.Warn("lookup failed",
			logging.Error(err),
			logging.Int(logging.FieldAttempts, record.Attempts))
	case result.Found && result.APIID != "" && result.EntityType != "":
		record.MarkTracked(result.EntityType, result.APIID, result.Extra, now)
		fmt.Fprintln(r.out, "  -> marked as tracked in external system.")
		outcome.Status = OutcomeTracked
		outcome.EntityType = result.EntityType
		outcome.APIID = result.APIID
		logger.Info("book tracked",
			logging.String("entity_type", result.EntityType),
			logging.String("api_id", result.APIID))
	default:
		record.MarkFailed("not found", maxAttempts, now)
		fmt.Fprintf(r.out, "  -> not found (attempts=%d, next_retry_at=%s).\n",
			record.Attempts, formatRetryAt(record.NextRetryAt))
		outcome.Status = OutcomeNotFound
		outcome.Attempts = record.Attempts
		outcome.NextRetryAt = record.NextRetryAt
		logger.Info("book not found",
			logging.Int(logging.FieldAttempts, record.Attempts))
	}

	if err := r.store.Save(); err != nil {
		return Outcome{}, fmt.Errorf("persist datastore: %w", err)
	}
	return outcome, nil
}

func dryRunOutcome(record *tracking.Record) Outcome {
	return Outcome{
		SourceYear:  record.SourceYear,
		LocalID:     record.LocalID,
		Title:       record.Title,
		Author:      record.Author,
		Status:      string(record.Status),
		Attempts:    record.Attempts,
		NextRetryAt: record.NextRetryAt,
	}
}

func formatRetryAt(t *time.Time) string {
	if t == nil {
		return "None"
	}
	return t.Format(consoleTimeLayout)
}
