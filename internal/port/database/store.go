// Package database defines the read-only stats store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/StatForge/internal/domain/tool"
)

// QueryResult holds the columns and rows of a read-only query.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// RowCount returns the number of rows.
func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Records converts rows into column-ordered records.
func (r *QueryResult) Records() []*tool.Record {
	if r == nil {
		return []*tool.Record{}
	}
	out := make([]*tool.Record, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, tool.RecordFrom(r.Columns, row))
	}
	return out
}

// ReadOnlyStore executes queries that can never mutate data.
// Implementations refuse write queries with a *domain.PermissionError
// before any connection is acquired.
type ReadOnlyStore interface {
	ExecuteReadOnly(ctx context.Context, query string, args ...any) (*QueryResult, error)
}
