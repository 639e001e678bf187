package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookshelf/internal/bestbooks"
	"bookshelf/internal/reconcile"
)

type initResult struct {
	TotalBooks     int   `json:"total_books"`
	YearsProcessed []int `json:"years_processed"`
}

func newInitCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		year   int
		output string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Download source listings and seed the datastore",
		Long: `Download the yearly "Books We Love" listings, refresh the local copies, and
create a pending record for every book that does not have one yet. Existing
records keep their status and attempt history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateOutputFormat(output)
			if err != nil {
				return err
			}
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			today := time.Now()
			if year != 0 {
				if max := bestbooks.MaxYear(today); year < bestbooks.FirstYear || year > max {
					return fmt.Errorf("year must be between %d and %d", bestbooks.FirstYear, max)
				}
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
				bestbooks.WithProgress(shouldColorize(cmd.ErrOrStderr())),
				bestbooks.WithLogger(logger),
			)

			years := bestbooks.TargetYears(year, today)
			if err := downloader.SeedYears(cmd.Context(), years); err != nil {
				return err
			}

			summary := reconcile.NewSeeder(store, library, logger).Seed(years)
			if summary.TotalBooks > 0 {
				if err := store.Save(); err != nil {
					return fmt.Errorf("persist datastore: %w", err)
				}
			}

			result := initResult{
				TotalBooks:     summary.TotalBooks,
				YearsProcessed: summary.YearsProcessed,
			}
			if result.YearsProcessed == nil {
				result.YearsProcessed = []int{}
			}
			doc, err := marshalCompact(result)
			if err != nil {
				return err
			}
			return renderOutput(cmd, format, doc)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Seed a single listing year instead of every available year")
	addOutputFlag(cmd, &output)
	return cmd
}
