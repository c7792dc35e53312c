// Package tiered puts the in-process query cache in front of the shared one.
package tiered

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Strob0t/StatForge/internal/port/cache"
)

// Cache answers from memory first and falls back to the shared tier, copying
// shared hits into memory. The shared tier is best effort: its failures are
// counted and logged, and the lookup degrades to a miss.
type Cache struct {
	local    cache.Cache
	shared   cache.Cache
	backfill time.Duration
	hits     atomic.Uint64
	misses   atomic.Uint64
	failures atomic.Uint64
}

// New layers local over shared. backfill is the ttl given to entries copied
// from shared into local.
func New(local, shared cache.Cache, backfill time.Duration) *Cache {
	return &Cache{local: local, shared: shared, backfill: backfill}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := c.local.Get(ctx, key); err != nil || ok {
		return v, ok, err
	}

	v, ok, err := c.shared.Get(ctx, key)
	switch {
	case err != nil:
		c.failures.Add(1)
		slog.Warn("shared cache lookup failed", "key", key, "error", err)
		return nil, false, nil
	case !ok:
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	if err := c.local.Set(ctx, key, v, c.backfill); err != nil {
		slog.Debug("backfill local cache", "key", key, "error", err)
	}
	return v, true, nil
}

// Set stores into both tiers. Only a local failure is returned.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.local.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := c.shared.Set(ctx, key, value, ttl); err != nil {
		c.failures.Add(1)
		slog.Warn("shared cache store failed", "key", key, "error", err)
	}
	return nil
}

// CacheStats lists the local tier's own stats, when it keeps any, followed
// by the shared tier as seen from this process.
func (c *Cache) CacheStats() []cache.TierStats {
	var out []cache.TierStats
	if r, ok := c.local.(cache.StatsReporter); ok {
		out = append(out, r.CacheStats()...)
	}
	return append(out, cache.TierStats{
		Tier:   "shared",
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.failures.Load(),
	})
}
