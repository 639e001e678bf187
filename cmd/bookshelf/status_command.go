package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bookshelf/internal/searchcache"
	"bookshelf/internal/tracking"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

type statusReport struct {
	StateFile   string      `json:"state_file"`
	Records     int         `json:"records"`
	Years       []int       `json:"years"`
	Pending     int         `json:"pending"`
	InProgress  int         `json:"in_progress"`
	Tracked     int         `json:"tracked"`
	Failed      int         `json:"failed"`
	EligibleNow int         `json:"eligible_now"`
	SearchCache cacheReport `json:"search_cache"`
}

type cacheReport struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		asJSON bool
		year   int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show datastore and cache status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := cmdCtx.openStore(nil)
			if err != nil {
				return err
			}

			stats := yearStats(store, year)
			years := store.Years()
			eligible := len(store.Eligible(tracking.Now(), tracking.EligibleOptions{Year: year}))

			recordCount := store.Len()
			if year != 0 {
				recordCount = 0
				for _, n := range stats {
					recordCount += n
				}
				scoped := make([]int, 0, 1)
				for _, seeded := range years {
					if seeded == year {
						scoped = append(scoped, seeded)
					}
				}
				years = scoped
			}

			cache := cacheReport{Enabled: cfg.SearchCache.Enabled, Path: cfg.SearchCache.Path}
			var cacheErr error
			if cfg.SearchCache.Enabled {
				sc, err := searchcache.Open(cfg.SearchCache.Path, cfg.SearchCache.TTLDays, nil)
				if err != nil {
					cacheErr = err
				} else {
					cache.Entries, cacheErr = sc.Len(cmd.Context())
					sc.Close()
				}
			}

			if asJSON {
				report := statusReport{
					StateFile:   store.Path(),
					Records:     recordCount,
					Years:       years,
					Pending:     stats[tracking.StatusPending],
					InProgress:  stats[tracking.StatusInProgress],
					Tracked:     stats[tracking.StatusTracked],
					Failed:      stats[tracking.StatusFailed],
					EligibleNow: eligible,
					SearchCache: cache,
				}
				if report.Years == nil {
					report.Years = []int{}
				}
				doc, err := marshalCompact(report)
				if err != nil {
					return err
				}
				return renderOutput(cmd, outputJSON, doc)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Datastore", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, stateFileLine(store, colorize))
			fmt.Fprintln(stdout, listingYearsLine(years, colorize))
			fmt.Fprintln(stdout, eligibleLine(eligible, colorize))
			fmt.Fprintln(stdout, cacheLine(cache, cacheErr, colorize))
			fmt.Fprintln(stdout)

			title := "Record Status"
			if year != 0 {
				title = fmt.Sprintf("Record Status (%d)", year)
			}
			for _, line := range renderSectionHeader(title, colorize) {
				fmt.Fprintln(stdout, line)
			}
			switch {
			case store.Len() == 0:
				fmt.Fprintln(stdout, "Datastore is empty")
			case recordCount == 0:
				fmt.Fprintf(stdout, "No records for %d\n", year)
			default:
				rows := buildStatusRows(stats)
				fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the status as JSON")
	cmd.Flags().IntVar(&year, "year", 0, "Limit record counts to one listing year")
	return cmd
}

// yearStats counts records by status, optionally scoped to one source year.
func yearStats(store *tracking.Store, year int) map[tracking.Status]int {
	if year == 0 {
		return store.Stats()
	}
	stats := make(map[tracking.Status]int, len(allStatusOrder))
	for _, record := range store.List(tracking.ListOptions{Year: year}) {
		stats[record.Status]++
	}
	return stats
}

func stateFileLine(store *tracking.Store, colorize bool) string {
	if _, err := os.Stat(store.Path()); err != nil {
		return renderStatusLine("State File", statusInfo,
			fmt.Sprintf("%s (not created yet, run 'bookshelf init')", store.Path()), colorize)
	}
	if store.Len() == 0 {
		return renderStatusLine("State File", statusWarn,
			fmt.Sprintf("%s (present but no records loaded)", store.Path()), colorize)
	}
	return renderStatusLine("State File", statusOK,
		fmt.Sprintf("%s (%d records)", store.Path(), store.Len()), colorize)
}

func listingYearsLine(years []int, colorize bool) string {
	if len(years) == 0 {
		return renderStatusLine("Listing Years", statusInfo, "None seeded", colorize)
	}
	return renderStatusLine("Listing Years", statusOK, formatYearSpans(years), colorize)
}

func eligibleLine(eligible int, colorize bool) string {
	if eligible == 0 {
		return renderStatusLine("Eligible Now", statusInfo, "None due", colorize)
	}
	return renderStatusLine("Eligible Now", statusOK,
		fmt.Sprintf("%d ready for acquire", eligible), colorize)
}

func cacheLine(cache cacheReport, cacheErr error, colorize bool) string {
	if !cache.Enabled {
		return renderStatusLine("Search Cache", statusInfo, "Disabled", colorize)
	}
	if cacheErr != nil {
		return renderStatusLine("Search Cache", statusWarn,
			fmt.Sprintf("Unavailable: %v", cacheErr), colorize)
	}
	return renderStatusLine("Search Cache", statusOK,
		fmt.Sprintf("%d entries at %s", cache.Entries, cache.Path), colorize)
}

var statusCaser = cases.Title(language.English)

// statusLabel turns a stored status value into its display form, for
// example in_progress into In Progress.
func statusLabel(status tracking.Status) string {
	return statusCaser.String(strings.ReplaceAll(string(status), "_", " "))
}

var allStatusOrder = []tracking.Status{
	tracking.StatusPending,
	tracking.StatusInProgress,
	tracking.StatusTracked,
	tracking.StatusFailed,
}

func buildStatusRows(stats map[tracking.Status]int) [][]string {
	rows := make([][]string, 0, len(allStatusOrder))
	for _, status := range allStatusOrder {
		rows = append(rows, []string{statusLabel(status), fmt.Sprintf("%d", stats[status])})
	}
	return rows
}

// formatYearSpans compresses a sorted year list into range notation, for
// example 2013-2020, 2022.
func formatYearSpans(years []int) string {
	var spans []string
	for i := 0; i < len(years); {
		j := i
		for j+1 < len(years) && years[j+1] == years[j]+1 {
			j++
		}
		if j > i {
			spans = append(spans, fmt.Sprintf("%d-%d", years[i], years[j]))
		} else {
			spans = append(spans, fmt.Sprintf("%d", years[i]))
		}
		i = j + 1
	}
	return strings.Join(spans, ", ")
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
