package testsupport

import (
	"testing"

	"bookshelf/internal/config"
	"bookshelf/internal/logging"
	"bookshelf/internal/tracking"
)

// MustOpenStore opens the tracking store backing the test config.
func MustOpenStore(t testing.TB, cfg *config.Config) *tracking.Store {
	t.Helper()

	return tracking.Open(cfg.Paths.StateFile, logging.NewNop())
}

// SeedBook inserts a pending record for tests using the provided store.
func SeedBook(t testing.TB, store *tracking.Store, year, localID int, title, author string) *tracking.Record {
	t.Helper()

	record, _ := store.EnsureEntry(tracking.SeedEntry{
		Year:    year,
		LocalID: localID,
		Title:   title,
		Author:  author,
	})
	return record
}
