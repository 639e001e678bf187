package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookshelf/internal/config"
	"bookshelf/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("READARR_API_ENDPOINT", "")
	t.Setenv("READARR_API_KEY", "")
	t.Setenv("READARR_QUALITY_PROFILE_ID", "")
	t.Setenv("READARR_METADATA_PROFILE_ID", "")

	cfg := testsupport.NewConfig(t, opts...)

	configPath := filepath.Join(homeDir, ".config", "bookshelf", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_file = %q
books_dir = %q
log_dir = %q

[npr]
base_url = %q
timeout_seconds = %d

[readarr]
endpoint = %q
api_key = %q
timeout_seconds = %d
quality_profile_id = %d
metadata_profile_id = %d
root_folder_path = %q

[search_cache]
enabled = %t
path = %q
ttl_days = %d

[tracker]
limit = %d
max_attempts = %d

[logging]
format = %q
level = %q
`,
		cfg.Paths.StateFile, cfg.Paths.BooksDir, cfg.Paths.LogDir,
		cfg.NPR.BaseURL, cfg.NPR.TimeoutSeconds,
		cfg.Readarr.Endpoint, cfg.Readarr.APIKey, cfg.Readarr.TimeoutSeconds,
		cfg.Readarr.QualityProfileID, cfg.Readarr.MetadataProfileID, cfg.Readarr.RootFolderPath,
		cfg.SearchCache.Enabled, cfg.SearchCache.Path, cfg.SearchCache.TTLDays,
		cfg.Tracker.Limit, cfg.Tracker.MaxAttempts,
		cfg.Logging.Format, cfg.Logging.Level)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
