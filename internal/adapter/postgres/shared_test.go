package postgres

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/StatForge/internal/config"
)

// lazyPool builds a pool that never dials until a connection is acquired.
func lazyPool(ctx context.Context, _ config.Postgres) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, "postgres://statforge:x@127.0.0.1:1/nfl?connect_timeout=1")
}

func TestSharedPoolInitialisesOnce(t *testing.T) {
	var connects atomic.Int32
	sp := NewSharedPool(config.Postgres{})
	sp.connect = func(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
		connects.Add(1)
		return lazyPool(ctx, cfg)
	}
	defer sp.Close()

	if sp.Initialized() {
		t.Fatal("pool must not exist before first use")
	}

	const callers = 32
	pools := make([]*pgxpool.Pool, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := sp.Pool(context.Background())
			if err != nil {
				t.Errorf("Pool: %v", err)
				return
			}
			pools[i] = p
		}()
	}
	wg.Wait()

	if n := connects.Load(); n != 1 {
		t.Fatalf("expected exactly one connect, got %d", n)
	}
	for i := 1; i < callers; i++ {
		if pools[i] != pools[0] {
			t.Fatal("all callers must share the same pool")
		}
	}
}

func TestSharedPoolRetriesAfterFailure(t *testing.T) {
	var connects atomic.Int32
	sp := NewSharedPool(config.Postgres{})
	sp.connect = func(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
		if connects.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return lazyPool(ctx, cfg)
	}
	defer sp.Close()

	if _, err := sp.Pool(context.Background()); err == nil {
		t.Fatal("expected first connect to fail")
	}
	if sp.Initialized() {
		t.Fatal("failed connect must not be cached")
	}
	if _, err := sp.Pool(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if connects.Load() != 2 {
		t.Fatalf("expected 2 connects, got %d", connects.Load())
	}
}
