// Package natskv shares query results between replicas through a JetStream
// key-value bucket.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// MaxValueSize is the largest encoded result the bucket accepts. Larger
// results stay in the in-process tier only.
const MaxValueSize = 512 << 10

// Cache is the shared tier of the query cache. Expiry is bucket-wide, so the
// ttl passed to Set is ignored.
type Cache struct {
	kv jetstream.KeyValue
}

// New wraps an existing bucket.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

// Open creates bucket, or updates its TTL when it already exists.
func Open(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (*Cache, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:       bucket,
		Description:  "StatForge read-only query results",
		TTL:          ttl,
		History:      1,
		MaxValueSize: MaxValueSize,
	})
	if err != nil {
		return nil, fmt.Errorf("kv bucket %s: %w", bucket, err)
	}
	return New(kv), nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	case e.Operation() != jetstream.KeyValuePut:
		return nil, false, nil
	}
	return e.Value(), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if len(value) > MaxValueSize {
		slog.Debug("result too large for shared cache", "key", key, "bytes", len(value))
		return nil
	}
	_, err := c.kv.Put(ctx, key, value)
	return err
}
