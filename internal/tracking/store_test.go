package tracking_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookshelf/internal/testsupport"
	"bookshelf/internal/tracking"
)

func TestEnsureEntryIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	seed := tracking.SeedEntry{
		Year:    2023,
		LocalID: 42,
		Title:   "  The Example  ",
		Author:  " A. Author ",
		ISBN10:  " 031612345X ",
	}
	record, created := store.EnsureEntry(seed)
	if !created {
		t.Fatal("expected first insert to create the record")
	}
	if record.Title != "The Example" || record.Author != "A. Author" {
		t.Fatalf("fields not trimmed: %q by %q", record.Title, record.Author)
	}
	if record.Identifiers.ISBN10 != "031612345X" {
		t.Fatalf("isbn10 = %q", record.Identifiers.ISBN10)
	}
	if record.Status != tracking.StatusPending {
		t.Fatalf("status = %s, want pending", record.Status)
	}

	record.MarkInProgress(tracking.Now())
	again, created := store.EnsureEntry(seed)
	if created {
		t.Fatal("expected second insert to be a no-op")
	}
	if again != record {
		t.Fatal("expected the existing record back")
	}
	if again.Status != tracking.StatusInProgress {
		t.Fatalf("existing record was modified: %s", again.Status)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d records, want 1", store.Len())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	now := mustTime(t, "2025-03-01T10:00:00")

	first, _ := store.EnsureEntry(tracking.SeedEntry{Year: 2024, LocalID: 7, Title: "First", Author: "Author One", ISBN10: "0316069735"})
	second, _ := store.EnsureEntry(tracking.SeedEntry{Year: 2023, LocalID: 3, Title: "Second", Author: "Author Two"})
	store.EnsureEntry(tracking.SeedEntry{Year: 2024, LocalID: 1, Title: "Third", Author: "Author Three"})
	first.MarkTracked("book", "work-1", map[string]any{"foreignBookId": "work-1"}, now)
	second.MarkFailed("not found", 5, now)

	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.StateFile + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind after save")
	}
	data, err := os.ReadFile(cfg.Paths.StateFile)
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"") {
		t.Fatalf("state file not indented: %.40s", data)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	if reopened.Len() != 3 {
		t.Fatalf("reopened store has %d records, want 3", reopened.Len())
	}
	records := reopened.Records()
	wantKeys := []string{"2024:7", "2023:3", "2024:1"}
	for i, want := range wantKeys {
		if records[i].Key != want {
			t.Fatalf("insertion order lost: position %d has %s, want %s", i, records[i].Key, want)
		}
	}

	tracked, ok := reopened.Get("2024:7")
	if !ok {
		t.Fatal("missing record 2024:7")
	}
	if tracked.Status != tracking.StatusTracked || !tracked.Remote.Tracked || tracked.Remote.APIID != "work-1" {
		t.Fatalf("tracked record did not survive: %#v", tracked)
	}
	failed, ok := reopened.Get("2023:3")
	if !ok {
		t.Fatal("missing record 2023:3")
	}
	if failed.Attempts != 1 || failed.NextRetryAt == nil || !failed.NextRetryAt.Equal(now.Add(15*time.Minute)) {
		t.Fatalf("failed record did not survive: %#v", failed)
	}
}

func TestOpenCorruptFileStartsEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.StateFile), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.StateFile, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := testsupport.MustOpenStore(t, cfg)
	if store.Len() != 0 {
		t.Fatalf("store has %d records, want 0", store.Len())
	}
}

func TestOpenUnknownStatusStartsEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	payload := `{"2023:1": {"source_year": 2023, "local_id": 1, "title": "T", "author": "A", "status": "archived"}}`
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.StateFile), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.StateFile, []byte(payload), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := testsupport.MustOpenStore(t, cfg)
	if store.Len() != 0 {
		t.Fatalf("store has %d records, want 0", store.Len())
	}
}

func TestEligibleSelection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	now := mustTime(t, "2025-03-01T10:00:00")

	testsupport.SeedBook(t, store, 2024, 1, "Pending", "Author")
	failedDue := testsupport.SeedBook(t, store, 2024, 2, "Failed Due", "Author")
	failedDue.MarkFailed("not found", 0, now.Add(-time.Hour))
	failedWaiting := testsupport.SeedBook(t, store, 2024, 3, "Failed Waiting", "Author")
	failedWaiting.MarkFailed("not found", 0, now)
	trackedRec := testsupport.SeedBook(t, store, 2024, 4, "Tracked", "Author")
	trackedRec.MarkTracked("book", "work-4", nil, now)
	inProgress := testsupport.SeedBook(t, store, 2023, 5, "Claimed", "Author")
	inProgress.MarkInProgress(now)

	keysOf := func(records []*tracking.Record) []string {
		keys := make([]string, 0, len(records))
		for _, rec := range records {
			keys = append(keys, rec.Key)
		}
		return keys
	}

	got := keysOf(store.Eligible(now, tracking.EligibleOptions{}))
	want := []string{"2024:1", "2024:2"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("default eligibility = %v, want %v", got, want)
	}

	if got := store.Eligible(now, tracking.EligibleOptions{Year: 2023}); len(got) != 0 {
		t.Fatalf("year filter returned %v", keysOf(got))
	}
	if got := keysOf(store.Eligible(now, tracking.EligibleOptions{Status: tracking.StatusPending})); len(got) != 1 || got[0] != "2024:1" {
		t.Fatalf("pending filter = %v", got)
	}
	if got := keysOf(store.Eligible(now, tracking.EligibleOptions{Status: tracking.StatusFailed})); len(got) != 1 || got[0] != "2024:2" {
		t.Fatalf("failed filter should still honor the retry gate, got %v", got)
	}
	if got := keysOf(store.Eligible(now, tracking.EligibleOptions{Status: tracking.StatusInProgress})); len(got) != 1 || got[0] != "2023:5" {
		t.Fatalf("in_progress filter = %v", got)
	}
	if got := store.Eligible(now, tracking.EligibleOptions{Status: tracking.Status("archived")}); got != nil {
		t.Fatalf("unknown status should select nothing, got %v", keysOf(got))
	}
}

func TestEligibleLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	now := mustTime(t, "2025-03-01T10:00:00")

	for i := 1; i <= 5; i++ {
		testsupport.SeedBook(t, store, 2024, i, "Book", "Author")
	}

	got := store.Eligible(now, tracking.EligibleOptions{Limit: 2})
	if len(got) != 2 {
		t.Fatalf("limit ignored, got %d records", len(got))
	}
	if got[0].Key != "2024:1" || got[1].Key != "2024:2" {
		t.Fatalf("limit should keep insertion order, got %s then %s", got[0].Key, got[1].Key)
	}
}

func TestResetStuckInProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	now := mustTime(t, "2025-03-01T10:00:00")

	testsupport.SeedBook(t, store, 2024, 1, "Pending", "Author")
	stuck := testsupport.SeedBook(t, store, 2024, 2, "Stuck", "Author")
	stuck.MarkFailed("not found", 0, now)
	stuck.MarkFailed("not found", 0, now)
	stuck.MarkInProgress(now)

	keys := store.ResetStuckInProgress()
	if len(keys) != 1 || keys[0] != "2024:2" {
		t.Fatalf("reset keys = %v", keys)
	}
	if stuck.Status != tracking.StatusPending {
		t.Fatalf("status = %s, want pending", stuck.Status)
	}
	if stuck.Attempts != 2 {
		t.Fatalf("attempts = %d, want history preserved", stuck.Attempts)
	}
	if again := store.ResetStuckInProgress(); len(again) != 0 {
		t.Fatalf("second sweep found %v", again)
	}
}

func TestListFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	now := mustTime(t, "2025-03-01T10:00:00")

	testsupport.SeedBook(t, store, 2023, 1, "A", "Author")
	failed := testsupport.SeedBook(t, store, 2023, 2, "B", "Author")
	failed.MarkFailed("not found", 5, now)
	trackedRec := testsupport.SeedBook(t, store, 2024, 1, "C", "Author")
	trackedRec.MarkTracked("book", "work-1", nil, now)

	if got := store.List(tracking.ListOptions{}); len(got) != 3 || got[0].Key != "2023:1" {
		t.Fatalf("unfiltered list wrong: %d records", len(got))
	}
	if got := store.List(tracking.ListOptions{Status: tracking.StatusFailed}); len(got) != 1 || got[0].Key != "2023:2" {
		t.Fatalf("status filter wrong")
	}
	if got := store.List(tracking.ListOptions{Year: 2023}); len(got) != 2 {
		t.Fatalf("year filter returned %d records", len(got))
	}
	if got := store.List(tracking.ListOptions{Status: tracking.StatusTracked, Year: 2023}); len(got) != 0 {
		t.Fatalf("combined filter returned %d records", len(got))
	}
}

func TestStatsAndYears(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	now := mustTime(t, "2025-03-01T10:00:00")

	testsupport.SeedBook(t, store, 2024, 1, "A", "Author")
	testsupport.SeedBook(t, store, 2024, 2, "B", "Author")
	failed := testsupport.SeedBook(t, store, 2013, 1, "C", "Author")
	failed.MarkFailed("not found", 5, now)

	stats := store.Stats()
	if stats[tracking.StatusPending] != 2 || stats[tracking.StatusFailed] != 1 {
		t.Fatalf("stats = %v", stats)
	}

	years := store.Years()
	if len(years) != 2 || years[0] != 2013 || years[1] != 2024 {
		t.Fatalf("years = %v", years)
	}
}
