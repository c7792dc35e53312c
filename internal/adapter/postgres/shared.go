package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/StatForge/internal/config"
)

// PoolSource hands out the connection pool used for stats queries.
type PoolSource interface {
	Pool(ctx context.Context) (*pgxpool.Pool, error)
}

// SharedPool owns one process-wide pool, created on first use.
// After initialisation Pool is a single atomic load; pgxpool hands each
// query its own connection so callers never contend on a handle.
type SharedPool struct {
	cfg     config.Postgres
	connect func(context.Context, config.Postgres) (*pgxpool.Pool, error)

	mu   sync.Mutex
	pool atomic.Pointer[pgxpool.Pool]
}

// NewSharedPool returns an uninitialised shared pool owner.
func NewSharedPool(cfg config.Postgres) *SharedPool {
	return &SharedPool{cfg: cfg, connect: NewPool}
}

// Pool returns the shared pool, connecting under the lock on first call.
// A failed connect is not cached; the next caller retries.
func (s *SharedPool) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	if p := s.pool.Load(); p != nil {
		return p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.pool.Load(); p != nil {
		return p, nil
	}

	p, err := s.connect(ctx, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("shared pool: %w", err)
	}
	s.pool.Store(p)
	return p, nil
}

// Initialized reports whether the pool has been created.
func (s *SharedPool) Initialized() bool {
	return s.pool.Load() != nil
}

// Close closes the pool if it was ever created. Called once at shutdown.
func (s *SharedPool) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.pool.Swap(nil); p != nil {
		p.Close()
	}
}

// FixedPool adapts an already-open pool to PoolSource.
type FixedPool struct{ P *pgxpool.Pool }

// Pool returns the wrapped pool.
func (f FixedPool) Pool(context.Context) (*pgxpool.Pool, error) { return f.P, nil }
