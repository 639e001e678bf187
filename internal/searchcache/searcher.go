package searchcache

import (
	"context"
	"time"

	"bookshelf/internal/logging"
	"bookshelf/internal/readarr"
)

// CachedSearcher serves search responses from the cache and falls back to
// the wrapped searcher, storing whatever non-empty response it fetched.
type CachedSearcher struct {
	cache    *Cache
	searcher readarr.Searcher
}

var _ readarr.Searcher = (*CachedSearcher)(nil)

// NewCachedSearcher wraps searcher with the cache. A disabled cache passes
// every call straight through.
func NewCachedSearcher(cache *Cache, searcher readarr.Searcher) *CachedSearcher {
	return &CachedSearcher{cache: cache, searcher: searcher}
}

// Search implements readarr.Searcher. Cache write failures are logged and
// otherwise ignored; the fetched response is still returned.
func (s *CachedSearcher) Search(ctx context.Context, term string) ([]map[string]any, error) {
	now := time.Now().UTC()
	if items, ok := s.cache.Get(ctx, term, now); ok {
		return items, nil
	}
	items, err := s.searcher.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if cacheErr := s.cache.Put(ctx, term, items, now); cacheErr != nil {
			s.cache.logger.Warn("failed to cache search response",
				logging.String("term", term),
				logging.Error(cacheErr))
		}
	}
	return items, nil
}
