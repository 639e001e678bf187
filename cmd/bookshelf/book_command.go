package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"bookshelf/internal/tracking"
)

func newBookCommand(cmdCtx *commandContext) *cobra.Command {
	bookCmd := &cobra.Command{
		Use:   "book",
		Short: "Inspect and manage tracked book records",
	}

	bookCmd.AddCommand(newBookShowCommand(cmdCtx))
	bookCmd.AddCommand(newBookListCommand(cmdCtx))
	bookCmd.AddCommand(newBookResetCommand(cmdCtx))
	bookCmd.AddCommand(newBookAcquireCommand(cmdCtx))
	bookCmd.AddCommand(newBookAddCommand(cmdCtx))

	return bookCmd
}

const selectorsRequiredMessage = "Error: must supply either --year and --id, or --jsonpath"

func newBookShowCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		year     int
		localID  int
		jsonpath string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show datastore records",
		Long: `Show a single record addressed by --year and --id, or every record matched
by a --jsonpath selection query.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateOutputFormat(output)
			if err != nil {
				return err
			}
			store, err := cmdCtx.openStore(nil)
			if err != nil {
				return err
			}

			if jsonpath != "" {
				records, err := selectRecords(store, jsonpath)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching records found.")
					return nil
				}
				payloads := make([][]byte, 0, len(records))
				for _, record := range records {
					doc, err := recordDocument(record, false)
					if err != nil {
						return err
					}
					payloads = append(payloads, doc)
				}
				if len(payloads) == 1 {
					return renderOutput(cmd, format, payloads[0])
				}
				return renderOutput(cmd, format, documentArray(payloads))
			}

			if year == 0 || localID == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), selectorsRequiredMessage)
				return nil
			}
			record, ok := store.GetByID(year, localID)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "No datastore record found for %d:%d.\n", year, localID)
				return nil
			}
			doc, err := recordDocument(record, false)
			if err != nil {
				return err
			}
			return renderOutput(cmd, format, doc)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Source listing year of the record")
	cmd.Flags().IntVar(&localID, "id", 0, "Local id of the record within its year")
	cmd.Flags().StringVar(&jsonpath, "jsonpath", "", "Selection query in gjson path syntax, e.g. '#(status==\"failed\")#'")
	addOutputFlag(cmd, &output)
	return cmd
}

func newBookListCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		status   string
		year     int
		jsonpath string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List datastore records, newest year first",
		Long: `List records with their datastore key attached as _key. Records are sorted
by source year then local id, newest first. --status and --year narrow the
listing; a --jsonpath query replaces the filters entirely.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateOutputFormat(output)
			if err != nil {
				return err
			}
			if status, err = parseStatusFlag(status); err != nil {
				return err
			}
			store, err := cmdCtx.openStore(nil)
			if err != nil {
				return err
			}
			docs, err := recordDocuments(store, true)
			if err != nil {
				return err
			}

			var matches []gjson.Result
			if jsonpath != "" {
				matches = filterDocs(docs, jsonpath)
			} else {
				for _, doc := range docs {
					match := gjson.ParseBytes(doc)
					if status != "" && match.Get("status").String() != status {
						continue
					}
					if year != 0 && match.Get("source_year").Int() != int64(year) {
						continue
					}
					matches = append(matches, match)
				}
			}

			sortRecordResults(matches)
			return renderOutput(cmd, format, resultArray(matches))
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only records with this status")
	cmd.Flags().IntVar(&year, "year", 0, "Only records from this source year")
	cmd.Flags().StringVar(&jsonpath, "jsonpath", "", "Selection query in gjson path syntax; overrides the filters")
	addOutputFlag(cmd, &output)
	return cmd
}

type resetResult struct {
	Count int      `json:"count"`
	Keys  []string `json:"keys"`
}

func newBookResetCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		year     int
		localID  int
		jsonpath string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Return records to pending with a clean attempt history",
		Long: `Reset the record addressed by --year and --id, or every record matched by a
--jsonpath selection query. Reset records go back to pending with zero
attempts; any remote match already recorded is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateOutputFormat(output)
			if err != nil {
				return err
			}
			store, err := cmdCtx.openStore(nil)
			if err != nil {
				return err
			}

			var records []*tracking.Record
			if jsonpath != "" {
				records, err = selectRecords(store, jsonpath)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching records found.")
					return nil
				}
			} else {
				if year == 0 || localID == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), selectorsRequiredMessage)
					return nil
				}
				record, ok := store.GetByID(year, localID)
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "No datastore record found for %d:%d.\n", year, localID)
					return nil
				}
				records = []*tracking.Record{record}
			}

			keys := make([]string, 0, len(records))
			for _, record := range records {
				record.Reset()
				keys = append(keys, record.Key)
			}
			if err := store.Save(); err != nil {
				return fmt.Errorf("persist datastore: %w", err)
			}

			doc, err := marshalCompact(resetResult{Count: len(keys), Keys: keys})
			if err != nil {
				return err
			}
			return renderOutput(cmd, format, doc)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Source listing year of the record")
	cmd.Flags().IntVar(&localID, "id", 0, "Local id of the record within its year")
	cmd.Flags().StringVar(&jsonpath, "jsonpath", "", "Selection query in gjson path syntax, e.g. '#(status==\"failed\")#'")
	addOutputFlag(cmd, &output)
	return cmd
}

// parseStatusFlag validates and normalizes a --status value. An empty value
// passes through so the flag stays optional.
func parseStatusFlag(status string) (string, error) {
	if status == "" {
		return "", nil
	}
	parsed, ok := tracking.ParseStatus(status)
	if !ok {
		return "", fmt.Errorf("invalid status %q (expected pending, in_progress, tracked, or failed)", status)
	}
	return string(parsed), nil
}

// selectRecords resolves a selection query back to live store records via
// the _key each rendered document carries.
func selectRecords(store *tracking.Store, jsonpath string) ([]*tracking.Record, error) {
	docs, err := recordDocuments(store, true)
	if err != nil {
		return nil, err
	}
	matches := filterDocs(docs, jsonpath)
	if len(matches) == 0 {
		return nil, nil
	}
	keys, err := matchKeys(matches)
	if err != nil {
		return nil, err
	}
	records := make([]*tracking.Record, 0, len(keys))
	for _, key := range keys {
		record, ok := store.Get(key)
		if !ok {
			return nil, fmt.Errorf("selection matched unknown record key %q", key)
		}
		records = append(records, record)
	}
	return records, nil
}
