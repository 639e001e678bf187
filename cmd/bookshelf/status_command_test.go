package main

import (
	"encoding/json"
	"testing"

	"bookshelf/internal/testsupport"
	"bookshelf/internal/tracking"
)

func TestStatusCommandSections(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.SeedBook(t, store, 2023, 1, "The Power Broker", "Robert Caro")
	tracked := testsupport.SeedBook(t, store, 2024, 2, "James", "Percival Everett")
	tracked.MarkTracked("book", "42", map[string]any{"foreignBookId": "42"}, tracking.Now())
	if err := store.Save(); err != nil {
		t.Fatalf("save store: %v", err)
	}

	stdout, _, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, "== Datastore ==")
	requireContains(t, stdout, "State File:")
	requireContains(t, stdout, "(2 records)")
	requireContains(t, stdout, "Listing Years:")
	requireContains(t, stdout, "2023-2024")
	requireContains(t, stdout, "1 ready for acquire")
	requireContains(t, stdout, "Search Cache:")
	requireContains(t, stdout, "Disabled")
	requireContains(t, stdout, "== Record Status ==")
	requireContains(t, stdout, "Pending")
	requireContains(t, stdout, "Tracked")
}

func TestStatusCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.SeedBook(t, store, 2023, 1, "The Power Broker", "Robert Caro")
	tracked := testsupport.SeedBook(t, store, 2024, 2, "James", "Percival Everett")
	tracked.MarkTracked("book", "42", map[string]any{"foreignBookId": "42"}, tracking.Now())
	if err := store.Save(); err != nil {
		t.Fatalf("save store: %v", err)
	}

	stdout, _, err := runCLI(t, env, "status", "--json")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("parse status output %q: %v", stdout, err)
	}
	if report.Records != 2 || report.Pending != 1 || report.Tracked != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if len(report.Years) != 2 || report.Years[0] != 2023 || report.Years[1] != 2024 {
		t.Fatalf("unexpected years: %v", report.Years)
	}
	if report.EligibleNow != 1 {
		t.Fatalf("expected one eligible record, got %d", report.EligibleNow)
	}
	if report.SearchCache.Enabled {
		t.Fatalf("search cache should be disabled in tests: %+v", report.SearchCache)
	}
	if report.StateFile != env.cfg.Paths.StateFile {
		t.Fatalf("unexpected state file path %q", report.StateFile)
	}
}

func TestStatusCommandYearScope(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.SeedBook(t, store, 2023, 1, "The Power Broker", "Robert Caro")
	tracked := testsupport.SeedBook(t, store, 2024, 2, "James", "Percival Everett")
	tracked.MarkTracked("book", "42", map[string]any{"foreignBookId": "42"}, tracking.Now())
	if err := store.Save(); err != nil {
		t.Fatalf("save store: %v", err)
	}

	stdout, _, err := runCLI(t, env, "status", "--year", "2023", "--json")
	if err != nil {
		t.Fatalf("status --year: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("parse status output %q: %v", stdout, err)
	}
	if report.Records != 1 || report.Pending != 1 || report.Tracked != 0 {
		t.Fatalf("unexpected scoped counts: %+v", report)
	}
	if len(report.Years) != 1 || report.Years[0] != 2023 {
		t.Fatalf("unexpected scoped years: %v", report.Years)
	}
	if report.EligibleNow != 1 {
		t.Fatalf("expected one eligible record in 2023, got %d", report.EligibleNow)
	}

	stdout, _, err = runCLI(t, env, "status", "--year", "2024")
	if err != nil {
		t.Fatalf("status --year: %v", err)
	}
	requireContains(t, stdout, "== Record Status (2024) ==")

	stdout, _, err = runCLI(t, env, "status", "--year", "2012")
	if err != nil {
		t.Fatalf("status --year: %v", err)
	}
	requireContains(t, stdout, "No records for 2012")
}

func TestStatusCommandEmptyStore(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, "not created yet, run 'bookshelf init'")
	requireContains(t, stdout, "None seeded")
	requireContains(t, stdout, "None due")
	requireContains(t, stdout, "Datastore is empty")
}
