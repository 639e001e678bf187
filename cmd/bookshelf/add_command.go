package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookshelf/internal/readarr"
	"bookshelf/internal/tracking"
)

func newBookAddCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		year    int
		localID int
		output  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a tracked book to the external library",
		Long: `Post a tracked book to the catalog service so it starts monitoring and
searching for it. The request is built from the lookup payload stored when
the book was tracked; only book matches can be added, author-level matches
carry no edition to monitor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateOutputFormat(output)
			if err != nil {
				return err
			}
			if year == 0 || localID == 0 {
				return fmt.Errorf("--year and --id are required")
			}
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := cmdCtx.openStore(nil)
			if err != nil {
				return err
			}

			record, ok := store.GetByID(year, localID)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "No datastore record found for %d:%d.\n", year, localID)
				return nil
			}
			if record.Status != tracking.StatusTracked {
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d:%d is not tracked yet (status: %s).\n",
					year, localID, record.Status)
				return nil
			}
			if record.Remote.EntityType != "book" {
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d:%d matched an %s, not a book; nothing to add.\n",
					year, localID, record.Remote.EntityType)
				return nil
			}
			if len(record.Remote.Extra) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d:%d has no stored lookup payload; re-run acquire first.\n",
					year, localID)
				return nil
			}

			payload, err := readarr.TransformLookupToPost(record.Remote.Extra, readarr.PostOptions{
				QualityProfileID:  cfg.Readarr.QualityProfileID,
				MetadataProfileID: cfg.Readarr.MetadataProfileID,
				RootFolderPath:    cfg.Readarr.RootFolderPath,
			})
			if err != nil {
				return err
			}

			client, err := readarr.New(cfg.Readarr.Endpoint, cfg.Readarr.APIKey,
				time.Duration(cfg.Readarr.TimeoutSeconds)*time.Second)
			if err != nil {
				return err
			}
			created, err := client.CreateBook(cmd.Context(), payload)
			if err != nil {
				return err
			}

			doc, err := marshalCompact(created)
			if err != nil {
				return err
			}
			return renderOutput(cmd, format, doc)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Source listing year of the record")
	cmd.Flags().IntVar(&localID, "id", 0, "Local id of the record within its year")
	addOutputFlag(cmd, &output)
	return cmd
}
