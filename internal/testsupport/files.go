package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteYearFile writes a yearly best-books listing under dir and returns its
// path. Each entry is one book object as the upstream feed publishes them.
func WriteYearFile(t testing.TB, dir string, year int, books []map[string]any) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("best-books-%d.json", year))
	data, err := json.Marshal(books)
	if err != nil {
		t.Fatalf("marshal year %d listing: %v", year, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadState parses the state file produced by a test run into raw JSON.
func ReadState(t testing.TB, path string) map[string]json.RawMessage {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state file %s: %v", path, err)
	}
	var state map[string]json.RawMessage
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("parse state file %s: %v", path, err)
	}
	return state
}
