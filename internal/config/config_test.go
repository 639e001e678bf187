package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookshelf/internal/config"
)

func TestLoadDefaultsUseEnvCredentialsAndExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("READARR_API_ENDPOINT", "http://localhost:8787")
	t.Setenv("READARR_API_KEY", "env-key")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "bookshelf", "state.json")
	if cfg.Paths.StateFile != wantState {
		t.Fatalf("unexpected state file: got %q want %q", cfg.Paths.StateFile, wantState)
	}
	wantBooks := filepath.Join(tempHome, ".local", "share", "bookshelf", "best-books")
	if cfg.Paths.BooksDir != wantBooks {
		t.Fatalf("unexpected books dir: %q", cfg.Paths.BooksDir)
	}
	if cfg.Readarr.Endpoint != "http://localhost:8787" {
		t.Fatalf("expected endpoint from env, got %q", cfg.Readarr.Endpoint)
	}
	if cfg.Readarr.APIKey != "env-key" {
		t.Fatalf("expected api key from env, got %q", cfg.Readarr.APIKey)
	}
	if cfg.NPR.BaseURL != config.Default().NPR.BaseURL {
		t.Fatalf("unexpected npr base url: %q", cfg.NPR.BaseURL)
	}
	if !cfg.SearchCache.Enabled {
		t.Fatal("expected search cache enabled by default")
	}
	if cfg.Tracker.Limit != 10 {
		t.Fatalf("unexpected tracker limit: %d", cfg.Tracker.Limit)
	}
	if cfg.Tracker.MaxAttempts != 5 {
		t.Fatalf("unexpected tracker max attempts: %d", cfg.Tracker.MaxAttempts)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{filepath.Dir(cfg.Paths.StateFile), cfg.Paths.BooksDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}
}

func TestLoadReadsTOMLFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("READARR_API_ENDPOINT", "")
	t.Setenv("READARR_API_KEY", "")

	configPath := filepath.Join(tempHome, "bookshelf.toml")
	content := strings.Join([]string{
		"[paths]",
		`state_file = "~/books/state.json"`,
		"",
		"[readarr]",
		`endpoint = "https://readarr.example.com/"`,
		`api_key = "file-key"`,
		"",
		"[tracker]",
		"limit = 3",
		"max_attempts = 2",
		"",
		"[logging]",
		`format = "json"`,
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}

	if cfg.Paths.StateFile != filepath.Join(tempHome, "books", "state.json") {
		t.Fatalf("expected tilde expansion, got %q", cfg.Paths.StateFile)
	}
	// Trailing slash is trimmed during normalization.
	if cfg.Readarr.Endpoint != "https://readarr.example.com" {
		t.Fatalf("unexpected endpoint: %q", cfg.Readarr.Endpoint)
	}
	if cfg.Readarr.APIKey != "file-key" {
		t.Fatalf("unexpected api key: %q", cfg.Readarr.APIKey)
	}
	if cfg.Tracker.Limit != 3 || cfg.Tracker.MaxAttempts != 2 {
		t.Fatalf("unexpected tracker settings: %+v", cfg.Tracker)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadReadarrEndpoint(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("READARR_API_ENDPOINT", "")
	t.Setenv("READARR_API_KEY", "")

	configPath := filepath.Join(tempHome, "bookshelf.toml")
	content := "[readarr]\nendpoint = \"ftp://readarr.example.com\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for non-http endpoint")
	}
}

func TestLoadMissingCredentialsStillValid(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("READARR_API_ENDPOINT", "")
	t.Setenv("READARR_API_KEY", "")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Readarr.Endpoint != "" || cfg.Readarr.APIKey != "" {
		t.Fatalf("expected empty credentials, got %+v", cfg.Readarr)
	}
}

func TestCreateSampleWritesParseableFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(content), "[readarr]") {
		t.Fatalf("expected readarr section in sample, got %q", content)
	}

	// The sample must load cleanly as a config file.
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("READARR_API_ENDPOINT", "")
	t.Setenv("READARR_API_KEY", "")
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestNormalizeCoercesBadLoggingValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("READARR_API_ENDPOINT", "")
	t.Setenv("READARR_API_KEY", "")

	configPath := filepath.Join(tempHome, "bookshelf.toml")
	content := "[logging]\nformat = \"xml\"\nlevel = \"\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected format coerced to console, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected level defaulted to info, got %q", cfg.Logging.Level)
	}
}
