package searchcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bookshelf/internal/fileutil"
	"bookshelf/internal/logging"
)

const defaultTTLDays = 7

const schemaSQL = `
CREATE TABLE IF NOT EXISTS search_cache (
	term TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	cached_at TEXT NOT NULL,
	hit_count INTEGER NOT NULL DEFAULT 0
);
`

// Cache stores raw search responses keyed by search term. A Cache opened
// with an empty path is disabled: every read is a miss and writes are
// dropped.
type Cache struct {
	db     *sql.DB
	path   string
	ttl    time.Duration
	logger *slog.Logger
}

// Open connects to the cache database at path, creating the file and schema
// when missing. An empty path yields a disabled cache.
func Open(path string, ttlDays int, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "searchcache")
	if ttlDays <= 0 {
		ttlDays = defaultTTLDays
	}
	cache := &Cache{
		path:   strings.TrimSpace(path),
		ttl:    time.Duration(ttlDays) * 24 * time.Hour,
		logger: logger,
	}
	if cache.path == "" {
		return cache, nil
	}

	if err := fileutil.EnsureParentDir(cache.path); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", cache.path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	cache.db = db
	return cache, nil
}

// Enabled reports whether the cache is backed by a database.
func (c *Cache) Enabled() bool {
	return c != nil && c.db != nil
}

// Path returns the cache database location, empty when disabled.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached items for term when a fresh row exists. Rows older
// than the TTL count as misses and are removed on the way out.
func (c *Cache) Get(ctx context.Context, term string, now time.Time) ([]map[string]any, bool) {
	if !c.Enabled() {
		return nil, false
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, false
	}

	var payload, cachedAt string
	err := c.db.QueryRowContext(ctx,
		"SELECT payload, cached_at FROM search_cache WHERE term = ?", term,
	).Scan(&payload, &cachedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Debug("cache read failed",
				logging.String("term", term),
				logging.Error(err))
		}
		return nil, false
	}

	storedAt, err := time.Parse(time.RFC3339, cachedAt)
	if err != nil || now.Sub(storedAt) > c.ttl {
		c.evict(ctx, term)
		return nil, false
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		c.evict(ctx, term)
		return nil, false
	}

	if _, err := c.db.ExecContext(ctx,
		"UPDATE search_cache SET hit_count = hit_count + 1 WHERE term = ?", term,
	); err != nil {
		c.logger.Debug("cache hit count update failed",
			logging.String("term", term),
			logging.Error(err))
	}
	return items, true
}

// Put stores a search response for term. Empty responses are never cached
// so a later run still reaches the API for unanswered terms.
func (c *Cache) Put(ctx context.Context, term string, items []map[string]any, now time.Time) error {
	if !c.Enabled() {
		return nil
	}
	term = strings.TrimSpace(term)
	if term == "" || len(items) == 0 {
		return nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO search_cache (term, payload, cached_at, hit_count)
		 VALUES (?, ?, ?, 0)
		 ON CONFLICT(term) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at`,
		term, string(payload), now.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store cached response: %w", err)
	}
	return nil
}

// Prune deletes every row cached before cutoff and reports how many were
// removed.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}
	// RFC3339 UTC strings sort chronologically, so a text comparison works.
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM search_cache WHERE cached_at < ?", cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(removed), nil
}

// Len reports the number of cached terms.
func (c *Cache) Len(ctx context.Context) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}
	var count int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM search_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache rows: %w", err)
	}
	return count, nil
}

func (c *Cache) evict(ctx context.Context, term string) {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM search_cache WHERE term = ?", term); err != nil {
		c.logger.Debug("cache eviction failed",
			logging.String("term", term),
			logging.Error(err))
	}
}
