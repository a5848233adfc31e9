package blank

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCatalogTTL = 24 * time.Hour

// CatalogCache memoizes the remote index for TTL. A zero TTL refetches on
// every call.
type CatalogCache struct {
	TTL time.Duration
	Now func() time.Time

	mu        sync.Mutex
	index     Index
	fetchedAt time.Time
}

func NewCatalogCache(ttl time.Duration) *CatalogCache {
	return &CatalogCache{TTL: ttl}
}

// Get returns the cached index or refreshes it with fetch. When a refresh
// fails the previous index, if any, is returned together with the error.
func (c *CatalogCache) Get(ctx context.Context, fetch func(context.Context) (Index, error)) (Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.index != nil && c.TTL > 0 && now.Sub(c.fetchedAt) < c.TTL {
		return c.index, nil
	}

	index, err := fetch(ctx)
	if err != nil {
		return c.index, err
	}
	c.index = index
	c.fetchedAt = now
	return index, nil
}

func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = nil
	c.fetchedAt = time.Time{}
}

func (c *CatalogCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// LocalIndex remembers whether blank.<ext> exists in the cache directory.
type LocalIndex struct {
	cache *lru.Cache[string, bool]
}

func NewLocalIndex(size int) (*LocalIndex, error) {
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	return &LocalIndex{cache: cache}, nil
}

// Lookup returns the memoized answer and whether one is known.
func (l *LocalIndex) Lookup(ext string) (exists, known bool) {
	return l.cache.Get(ext)
}

func (l *LocalIndex) Set(ext string, exists bool) {
	l.cache.Add(ext, exists)
}

func (l *LocalIndex) Invalidate() {
	l.cache.Purge()
}
