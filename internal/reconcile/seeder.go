package reconcile

import (
	"log/slog"
	"sort"

	"bookshelf/internal/bestbooks"
	"bookshelf/internal/logging"
	"bookshelf/internal/tracking"
)

// Seeder fills the datastore from the local year lists.
type Seeder struct {
	store   *tracking.Store
	library *bestbooks.Library
	logger  *slog.Logger
}

// NewSeeder returns a seeder over the given store and listing library.
func NewSeeder(store *tracking.Store, library *bestbooks.Library, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Seeder{
		store:   store,
		library: library,
		logger:  logging.NewComponentLogger(logger, "seeder"),
	}
}

// SeedSummary reports what a seeding pass saw. TotalBooks counts every book
// parsed from the year lists, not just newly inserted records.
type SeedSummary struct {
	TotalBooks     int
	NewRecords     int
	YearsProcessed []int
}

// Seed ensures a datastore record exists for every book listed in the given
// years. Existing records are never touched, so re-seeding cannot reset
// progress. The caller decides when to persist the store.
func (s *Seeder) Seed(years []int) SeedSummary {
	var summary SeedSummary
	seen := make(map[int]bool)
	for _, entry := range s.library.Books(years) {
		record, created := s.store.EnsureEntry(tracking.SeedEntry{
			Year:    entry.Year,
			LocalID: entry.Book.ID,
			Title:   entry.Book.Title,
			Author:  entry.Book.Author,
			ISBN10:  entry.Book.Cover,
		})
		summary.TotalBooks++
		seen[entry.Year] = true
		if created {
			summary.NewRecords++
			s.logger.Debug("seeded record",
				logging.String(logging.FieldRecordKey, record.Key),
				logging.Int(logging.FieldYear, entry.Year))
		}
	}
	summary.YearsProcessed = make([]int, 0, len(seen))
	for year := range seen {
		summary.YearsProcessed = append(summary.YearsProcessed, year)
	}
	sort.Ints(summary.YearsProcessed)
	return summary
}
