package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/StatForge/internal/domain"
)

type countingSource struct{ calls int }

func (c *countingSource) Pool(context.Context) (*pgxpool.Pool, error) {
	c.calls++
	return nil, errors.New("pool must not be requested")
}

func TestExecuteReadOnlyRefusesWritesBeforePool(t *testing.T) {
	queries := []string{
		"DROP TABLE player_games",
		"insert into teams values ('X', 'X')",
		"SELECT 1; DELETE FROM games",
		"WITH x AS (SELECT 1) UPDATE players SET team = 'KC'",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			src := &countingSource{}
			s := NewStore(src, 0)

			_, err := s.ExecuteReadOnly(context.Background(), q)
			if !errors.Is(err, domain.ErrPermissionDenied) {
				t.Fatalf("expected ErrPermissionDenied, got %v", err)
			}
			if src.calls != 0 {
				t.Fatalf("pool requested %d times for a refused query", src.calls)
			}
		})
	}
}

func TestExecuteReadOnlyPoolError(t *testing.T) {
	src := &countingSource{}
	s := NewStore(src, 0)

	_, err := s.ExecuteReadOnly(context.Background(), "SELECT 1")
	if err == nil {
		t.Fatal("expected pool error")
	}
	if src.calls != 1 {
		t.Fatalf("expected one pool request, got %d", src.calls)
	}
}
