package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/StatForge/internal/domain/stats"
	"github.com/Strob0t/StatForge/internal/port/database"
	"github.com/Strob0t/StatForge/internal/sqlguard"
)

// Store implements database.ReadOnlyStore over PostgreSQL.
type Store struct {
	source  PoolSource
	timeout time.Duration
}

var _ database.ReadOnlyStore = (*Store)(nil)

// NewStore creates a Store. A zero timeout leaves queries bounded only by ctx.
func NewStore(source PoolSource, timeout time.Duration) *Store {
	return &Store{source: source, timeout: timeout}
}

// ExecuteReadOnly runs query inside a READ ONLY transaction.
// Write queries are refused by the SQL guard before a pool is even requested.
func (s *Store) ExecuteReadOnly(ctx context.Context, query string, args ...any) (*database.QueryResult, error) {
	if err := sqlguard.Check(query); err != nil {
		return nil, err
	}

	pool, err := s.source.Pool(ctx)
	if err != nil {
		return nil, fmt.Errorf("read-only query: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read-only tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := &database.QueryResult{
		Columns: make([]string, len(fields)),
		Rows:    [][]any{},
	}
	for i, fd := range fields {
		result.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i := range values {
			values[i] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

// HealthCheck returns the row count of every stats table.
func (s *Store) HealthCheck(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(stats.Tables))
	for _, table := range stats.Tables {
		res, err := s.ExecuteReadOnly(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize())
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		if res.RowCount() == 1 {
			if n, ok := res.Rows[0][0].(int64); ok {
				counts[table] = n
			}
		}
	}
	return counts, nil
}
