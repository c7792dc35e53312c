package tiered_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/StatForge/internal/adapter/tiered"
	"github.com/Strob0t/StatForge/internal/port/cache"
	"github.com/Strob0t/StatForge/internal/port/cache/cachetest"
)

var _ cache.StatsReporter = (*tiered.Cache)(nil)

// memCache records the ttl of every entry it stores.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttl[key] = ttl
	return nil
}

// countingCache is a local tier that reports its own stats.
type countingCache struct{ *memCache }

func (countingCache) CacheStats() []cache.TierStats {
	return []cache.TierStats{{Tier: "memory", Hits: 7}}
}

var errNoResponders = errors.New("nats: no responders available for request")

func TestCompliance(t *testing.T) {
	cachetest.Run(t, tiered.New(newMemCache(), newMemCache(), time.Minute))
}

func TestGet(t *testing.T) {
	tests := []struct {
		name         string
		local        map[string]string
		shared       map[string]string
		sharedErr    error
		wantVal      string
		wantOK       bool
		wantBackfill bool
	}{
		{name: "local hit", local: map[string]string{"sql_k": "l"}, shared: map[string]string{"sql_k": "s"}, wantVal: "l", wantOK: true},
		{name: "shared hit backfills", shared: map[string]string{"sql_k": "s"}, wantVal: "s", wantOK: true, wantBackfill: true},
		{name: "miss in both"},
		{name: "shared failure is a miss", sharedErr: errNoResponders},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, shared := newMemCache(), newMemCache()
			for k, v := range tt.local {
				local.data[k] = []byte(v)
			}
			for k, v := range tt.shared {
				shared.data[k] = []byte(v)
			}
			shared.err = tt.sharedErr
			c := tiered.New(local, shared, 45*time.Second)

			v, ok, err := c.Get(context.Background(), "sql_k")
			if err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			if ok != tt.wantOK || string(v) != tt.wantVal {
				t.Errorf("Get = %q, %v; want %q, %v", v, ok, tt.wantVal, tt.wantOK)
			}
			if tt.wantBackfill && local.ttl["sql_k"] != 45*time.Second {
				t.Errorf("backfill ttl = %v, want 45s", local.ttl["sql_k"])
			}
		})
	}
}

func TestSetWritesBothTiers(t *testing.T) {
	local, shared := newMemCache(), newMemCache()
	c := tiered.New(local, shared, time.Minute)

	if err := c.Set(context.Background(), "sql_k", []byte(`{}`), 10*time.Minute); err != nil {
		t.Fatal(err)
	}
	if local.ttl["sql_k"] != 10*time.Minute || shared.ttl["sql_k"] != 10*time.Minute {
		t.Errorf("ttl local %v shared %v", local.ttl["sql_k"], shared.ttl["sql_k"])
	}
}

func TestSetSurfacesOnlyLocalFailure(t *testing.T) {
	local, shared := newMemCache(), newMemCache()
	shared.err = errNoResponders
	c := tiered.New(local, shared, time.Minute)
	if err := c.Set(context.Background(), "sql_k", []byte(`{}`), 0); err != nil {
		t.Fatalf("shared failure surfaced: %v", err)
	}
	if _, ok := local.data["sql_k"]; !ok {
		t.Error("local tier not written")
	}

	local.err = errors.New("out of memory")
	if err := c.Set(context.Background(), "sql_k", []byte(`{}`), 0); err == nil {
		t.Error("local failure was swallowed")
	}
}

func TestCacheStats(t *testing.T) {
	local, shared := newMemCache(), newMemCache()
	shared.data["sql_hit"] = []byte(`{}`)
	c := tiered.New(countingCache{local}, shared, time.Minute)
	ctx := context.Background()

	_, _, _ = c.Get(ctx, "sql_hit")  // shared hit
	_, _, _ = c.Get(ctx, "sql_hit")  // local hit after backfill
	_, _, _ = c.Get(ctx, "sql_miss") // shared miss
	shared.err = errNoResponders
	_, _, _ = c.Get(ctx, "sql_down")

	st := c.CacheStats()
	if len(st) != 2 || st[0].Tier != "memory" || st[1].Tier != "shared" {
		t.Fatalf("stats = %+v", st)
	}
	if got := st[1]; got.Hits != 1 || got.Misses != 1 || got.Errors != 1 {
		t.Errorf("shared stats = %+v", got)
	}
}

func TestCacheStatsWithoutLocalReporter(t *testing.T) {
	st := tiered.New(newMemCache(), newMemCache(), time.Minute).CacheStats()
	if len(st) != 1 || st[0].Tier != "shared" {
		t.Errorf("stats = %+v", st)
	}
}
