package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookshelf/internal/bestbooks"
	"bookshelf/internal/readarr"
	"bookshelf/internal/reconcile"
	"bookshelf/internal/searchcache"
	"bookshelf/internal/tracking"
)

type outcomeBase struct {
	SourceYear int    `json:"source_year"`
	LocalID    int    `json:"local_id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Status     string `json:"status"`
}

type trackedRow struct {
	outcomeBase
	EntityType string `json:"entity_type"`
	APIID      string `json:"api_id"`
}

// retryRow also renders dry-run rows, which carry the record's own status
// instead of a run outcome.
type retryRow struct {
	outcomeBase
	Attempts    int     `json:"attempts"`
	NextRetryAt *string `json:"next_retry_at"`
}

type errorRow struct {
	outcomeBase
	Err         string  `json:"error"`
	Attempts    int     `json:"attempts"`
	NextRetryAt *string `json:"next_retry_at"`
}

func outcomeDocument(outcome reconcile.Outcome) ([]byte, error) {
	base := outcomeBase{
		SourceYear: outcome.SourceYear,
		LocalID:    outcome.LocalID,
		Title:      outcome.Title,
		Author:     outcome.Author,
		Status:     outcome.Status,
	}
	switch outcome.Status {
	case reconcile.OutcomeTracked:
		return marshalCompact(trackedRow{
			outcomeBase: base,
			EntityType:  outcome.EntityType,
			APIID:       outcome.APIID,
		})
	case reconcile.OutcomeError:
		return marshalCompact(errorRow{
			outcomeBase: base,
			Err:         outcome.Err,
			Attempts:    outcome.Attempts,
			NextRetryAt: tracking.FormatTimePtr(outcome.NextRetryAt),
		})
	default:
		return marshalCompact(retryRow{
			outcomeBase: base,
			Attempts:    outcome.Attempts,
			NextRetryAt: tracking.FormatTimePtr(outcome.NextRetryAt),
		})
	}
}

func newBookAcquireCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		year        int
		status      string
		localID     int
		limit       int
		maxAttempts int
		dryRun      bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Look up eligible books and record the results",
		Long: `Walk eligible records through the lookup service. Pending books and failed
books whose backoff has elapsed are searched in the external catalog; hits
are marked tracked, misses rescheduled with growing backoff. Progress goes
to stderr, result rows to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateOutputFormat(output)
			if err != nil {
				return err
			}
			if status, err = parseStatusFlag(status); err != nil {
				return err
			}
			if localID != 0 && year == 0 {
				return errors.New("--year is required when --id is specified")
			}
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") && cfg.Tracker.Limit > 0 {
				limit = cfg.Tracker.Limit
			}
			if !cmd.Flags().Changed("max-attempts") && cfg.Tracker.MaxAttempts > 0 {
				maxAttempts = cfg.Tracker.MaxAttempts
			}

			store, err := cmdCtx.openStore(logger)
			if err != nil {
				return err
			}
			library, err := cmdCtx.openLibrary(logger)
			if err != nil {
				return err
			}
			client, err := bestbooks.NewClient(cfg.NPR.BaseURL, time.Duration(cfg.NPR.TimeoutSeconds)*time.Second)
			if err != nil {
				return err
			}
			downloader := bestbooks.NewDownloader(client, library,
				bestbooks.WithOutput(cmd.ErrOrStderr()),
				bestbooks.WithLogger(logger),
			)

			years := bestbooks.TargetYears(year, time.Now())
			if err := downloader.EnsureYears(cmd.Context(), years); err != nil {
				return err
			}

			summary := reconcile.NewSeeder(store, library, logger).Seed(years)
			if err := store.Save(); err != nil {
				return fmt.Errorf("persist datastore: %w", err)
			}
			if summary.TotalBooks == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "No local books found under %s.\n", library.Dir())
				return nil
			}

			var searcher readarr.Searcher
			if !dryRun {
				apiClient, err := readarr.New(cfg.Readarr.Endpoint, cfg.Readarr.APIKey,
					time.Duration(cfg.Readarr.TimeoutSeconds)*time.Second)
				if err != nil {
					return err
				}
				searcher = apiClient
				if cfg.SearchCache.Enabled {
					cache, err := searchcache.Open(cfg.SearchCache.Path, cfg.SearchCache.TTLDays, logger)
					if err != nil {
						return err
					}
					defer cache.Close()
					searcher = searchcache.NewCachedSearcher(cache, searcher)
				}
			}

			reconciler := reconcile.NewReconciler(store, searcher,
				reconcile.WithLogger(logger),
				reconcile.WithOutput(cmd.ErrOrStderr()),
			)
			report, err := reconciler.Run(cmd.Context(), reconcile.Options{
				Year:        year,
				LocalID:     localID,
				Status:      status,
				Limit:       limit,
				MaxAttempts: maxAttempts,
				DryRun:      dryRun,
			})
			if err != nil {
				return err
			}
			if report.Halted {
				return nil
			}
			if !report.DryRun && len(report.Outcomes) == 0 {
				return nil
			}

			docs := make([][]byte, 0, len(report.Outcomes))
			for _, outcome := range report.Outcomes {
				doc, err := outcomeDocument(outcome)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}
			return renderOutput(cmd, format, documentArray(docs))
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Only books seeded from this listing year")
	cmd.Flags().StringVar(&status, "status", "", "Replace the default pending-or-failed selection")
	cmd.Flags().IntVar(&localID, "id", 0, "Target a single book; requires --year")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum books to process in one run")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 5, "Retry ceiling before a book stops being rescheduled")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report eligible books without calling the lookup service")
	addOutputFlag(cmd, &output)
	return cmd
}
