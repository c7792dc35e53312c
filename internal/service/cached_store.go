package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/StatForge/internal/port/cache"
	"github.com/Strob0t/StatForge/internal/port/database"
	"github.com/Strob0t/StatForge/internal/sqlguard"
)

// CachedStore is a read-through cache in front of a ReadOnlyStore.
// Identical concurrent queries share one database round trip.
type CachedStore struct {
	next  database.ReadOnlyStore
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedStore wraps next with c. ttl applies to each stored result.
func NewCachedStore(next database.ReadOnlyStore, c cache.Cache, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: c, ttl: ttl}
}

// ExecuteReadOnly returns a cached result when present. Refused and failed
// queries are never cached.
func (s *CachedStore) ExecuteReadOnly(ctx context.Context, query string, args ...any) (*database.QueryResult, error) {
	if err := sqlguard.Check(query); err != nil {
		return nil, err
	}

	key, err := queryCacheKey(query, args)
	if err != nil {
		return s.next.ExecuteReadOnly(ctx, query, args...)
	}

	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		if res, err := decodeQueryResult(data); err == nil {
			return res, nil
		}
		slog.Warn("discarding corrupt cached query result", "key", key)
	}

	// The shared call outlives any one caller; the store's query timeout bounds it.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		res, err := s.next.ExecuteReadOnly(shared, query, args...)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(res); err == nil {
			if err := s.cache.Set(shared, key, data, s.ttl); err != nil {
				slog.Warn("cache query result", "key", key, "error", err)
			}
		}
		return res, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*database.QueryResult), nil
	}
}

// queryCacheKey hashes the query text and its arguments. The result only uses
// characters valid in NATS KV keys.
func queryCacheKey(query string, args []any) (string, error) {
	a, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write(a)
	return "sql_" + hex.EncodeToString(h.Sum(nil)), nil
}

func decodeQueryResult(data []byte) (*database.QueryResult, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var res database.QueryResult
	if err := dec.Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
