// Package ristretto keeps query results in process memory.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/StatForge/internal/port/cache"
)

// Cache is the in-process tier of the query cache. Entries cost their size in
// bytes, so large result sets are the first to be evicted.
type Cache struct {
	c          *ristretto.Cache[string, []byte]
	defaultTTL time.Duration
}

// New sizes the cache to maxBytes of encoded results. defaultTTL applies when
// Set is given a zero ttl.
func New(maxBytes int64, defaultTTL time.Duration) (*Cache, error) {
	// A typical encoded result set is a few hundred bytes; ristretto wants
	// about ten counters per live entry.
	counters := max(maxBytes/40, 10_000)
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     maxBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, defaultTTL: defaultTTL}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.c.Get(key)
	return v, ok, nil
}

// Set blocks until the entry is admitted so the next Get for the same query
// sees it. Admission may still reject it under memory pressure.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	c.c.Wait()
	return nil
}

// CacheStats reports ristretto's own hit counters.
func (c *Cache) CacheStats() []cache.TierStats {
	m := c.c.Metrics
	return []cache.TierStats{{Tier: "memory", Hits: m.Hits(), Misses: m.Misses()}}
}

func (c *Cache) Close() { c.c.Close() }
