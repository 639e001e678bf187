package testsupport

import (
	"path/filepath"
	"testing"

	"bookshelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateFile = filepath.Join(base, "state.json")
	cfgVal.Paths.BooksDir = filepath.Join(base, "best-books")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Readarr.Endpoint = "http://127.0.0.1:8787"
	cfgVal.Readarr.APIKey = "test"
	cfgVal.SearchCache.Enabled = false
	cfgVal.SearchCache.Path = filepath.Join(base, "cache", "search.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithReadarr points the test config at the given lookup endpoint and key.
func WithReadarr(endpoint, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Readarr.Endpoint = endpoint
		b.cfg.Readarr.APIKey = apiKey
	}
}

// WithNPRBaseURL points the yearly listing downloads at a test server.
func WithNPRBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.NPR.BaseURL = url
	}
}

// WithSearchCache enables the sqlite search cache under the test base dir.
func WithSearchCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.SearchCache.Enabled = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateFile)
}
