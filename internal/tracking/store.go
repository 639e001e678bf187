package tracking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"bookshelf/internal/fileutil"
	"bookshelf/internal/logging"
)

// Store holds every book record in insertion order and persists them as a
// single JSON document. It is built for the sequential CLI: callers mutate
// records in place and call Save when a change should reach disk.
type Store struct {
	path    string
	logger  *slog.Logger
	records *orderedmap.OrderedMap[string, *Record]
}

// Open loads the store at path. A missing, unreadable, or corrupt state file
// yields an empty store so a damaged file never blocks a run; the failure is
// logged and the next Save starts a fresh document.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "datastore")

	s := &Store{
		path:    path,
		logger:  logger,
		records: orderedmap.New[string, *Record](),
	}
	if err := s.load(); err != nil {
		logger.Warn("failed to load datastore, starting empty",
			logging.Error(err),
			logging.String("path", path))
		s.records = orderedmap.New[string, *Record]()
	}
	return s
}

// Path returns the location of the backing state file.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of records.
func (s *Store) Len() int {
	return s.records.Len()
}

// Get returns the record stored under key.
func (s *Store) Get(key string) (*Record, bool) {
	return s.records.Get(key)
}

// GetByID returns the record for a source year and local id.
func (s *Store) GetByID(year, localID int) (*Record, bool) {
	return s.Get(Key(year, localID))
}

// Records returns all records in insertion order.
func (s *Store) Records() []*Record {
	out := make([]*Record, 0, s.records.Len())
	for pair := s.records.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Put inserts or replaces a record under its key.
func (s *Store) Put(record *Record) {
	if record.Key == "" {
		record.Key = Key(record.SourceYear, record.LocalID)
	}
	s.records.Set(record.Key, record)
}

// SeedEntry carries the fields harvested from a yearly book listing.
type SeedEntry struct {
	Year    int
	LocalID int
	Title   string
	Author  string
	ISBN10  string
}

// EnsureEntry inserts a pending record for the seed unless one is already
// present. It returns the record and whether it was newly created; existing
// records are never modified.
func (s *Store) EnsureEntry(seed SeedEntry) (*Record, bool) {
	key := Key(seed.Year, seed.LocalID)
	if existing, ok := s.records.Get(key); ok {
		return existing, false
	}

	record := &Record{
		Key:        key,
		SourceYear: seed.Year,
		LocalID:    seed.LocalID,
		Title:      strings.TrimSpace(seed.Title),
		Author:     strings.TrimSpace(seed.Author),
		Identifiers: Identifiers{
			ISBN10: strings.TrimSpace(seed.ISBN10),
		},
		Status: StatusPending,
		Remote: Remote{Extra: map[string]any{}},
	}
	s.records.Set(key, record)
	return record, true
}

// EligibleOptions narrows which records Eligible returns.
type EligibleOptions struct {
	// Status replaces the default pending-or-failed selection when set.
	Status Status
	// Year keeps only records seeded from the given year when non-zero.
	Year int
	// Limit caps how many records are returned when positive.
	Limit int
}

// Eligible returns the records ready for processing at now, in insertion
// order. By default only pending and failed records qualify. A failed record
// still inside its backoff window is skipped even when its status is
// selected explicitly.
func (s *Store) Eligible(now time.Time, opts EligibleOptions) []*Record {
	allowed := map[Status]struct{}{
		StatusPending: {},
		StatusFailed:  {},
	}
	if opts.Status != "" {
		if _, ok := statusSet[opts.Status]; !ok {
			return nil
		}
		allowed = map[Status]struct{}{opts.Status: {}}
	}

	var out []*Record
	for pair := s.records.Oldest(); pair != nil; pair = pair.Next() {
		record := pair.Value
		if opts.Year != 0 && record.SourceYear != opts.Year {
			continue
		}
		if _, ok := allowed[record.Status]; !ok {
			continue
		}
		if !record.RetryDue(now) {
			continue
		}
		out = append(out, record)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out
}

// ListOptions narrows which records List returns.
type ListOptions struct {
	Status Status
	Year   int
}

// List returns records matching the filters in insertion order.
func (s *Store) List(opts ListOptions) []*Record {
	var out []*Record
	for pair := s.records.Oldest(); pair != nil; pair = pair.Next() {
		record := pair.Value
		if opts.Year != 0 && record.SourceYear != opts.Year {
			continue
		}
		if opts.Status != "" && record.Status != opts.Status {
			continue
		}
		out = append(out, record)
	}
	return out
}

// Stats counts records by status.
func (s *Store) Stats() map[Status]int {
	stats := make(map[Status]int, len(allStatuses))
	for pair := s.records.Oldest(); pair != nil; pair = pair.Next() {
		stats[pair.Value.Status]++
	}
	return stats
}

// Years returns the distinct source years present, sorted ascending.
func (s *Store) Years() []int {
	seen := make(map[int]struct{})
	var years []int
	for pair := s.records.Oldest(); pair != nil; pair = pair.Next() {
		year := pair.Value.SourceYear
		if _, ok := seen[year]; ok {
			continue
		}
		seen[year] = struct{}{}
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// ResetStuckInProgress returns in-progress records to pending and reports
// their keys. A record is left in progress when an earlier run stopped
// between claiming a book and recording the outcome; the eligibility filter
// would otherwise never pick it up again. Attempt counts and errors are kept.
func (s *Store) ResetStuckInProgress() []string {
	var keys []string
	for pair := s.records.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Status != StatusInProgress {
			continue
		}
		pair.Value.Status = StatusPending
		keys = append(keys, pair.Key)
	}
	return keys
}

// Save writes the store to disk, replacing the previous file atomically.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := fileutil.EnsureParentDir(s.path); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	records := orderedmap.New[string, *Record]()
	if err := records.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("parse state file: %w", err)
	}

	var stale []string
	for pair := records.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			stale = append(stale, pair.Key)
			continue
		}
		pair.Value.Key = pair.Key
	}
	for _, key := range stale {
		records.Delete(key)
	}

	s.records = records
	s.logger.Debug("loaded datastore",
		logging.Int("record_count", records.Len()),
		logging.String("path", s.path))
	return nil
}
