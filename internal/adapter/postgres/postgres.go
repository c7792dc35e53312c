// Package postgres provides the PostgreSQL connection pool, the migration
// runner and the read-only stats store.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver used by goose
	"github.com/pressly/goose/v3"

	"github.com/Strob0t/StatForge/internal/config"
)

//go:embed migrations/*.sql
var embedded embed.FS

// NewPool opens a pool sized by cfg and checks that the server answers.
func NewPool(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns, pc.MinConns = cfg.MaxConns, cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.HealthCheckPeriod = cfg.HealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", pc.ConnConfig.Host, err)
	}
	return pool, nil
}

// MigrationStep is one migration applied or rolled back.
type MigrationStep struct {
	Version  int64
	File     string
	Duration time.Duration
}

// MigrationState describes one embedded migration as seen by the database.
type MigrationState struct {
	Version   int64
	File      string
	Applied   bool
	AppliedAt time.Time
}

// Migrator applies the embedded schema migrations. It is the only code path
// that writes to the stats schema.
type Migrator struct {
	p *goose.Provider
}

// OpenMigrator connects to dsn over database/sql. Close releases the connection.
func OpenMigrator(dsn string) (*Migrator, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration db: %w", err)
	}
	files, err := fs.Sub(embedded, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return &Migrator{p: p}, nil
}

func (m *Migrator) Close() error { return m.p.Close() }

// Up applies every pending migration. Steps applied before a failure are
// still returned.
func (m *Migrator) Up(ctx context.Context) ([]MigrationStep, error) {
	res, err := m.p.Up(ctx)
	steps := make([]MigrationStep, 0, len(res))
	for _, r := range res {
		steps = append(steps, stepOf(r))
	}
	if err != nil {
		return steps, fmt.Errorf("migrate up: %w", err)
	}
	return steps, nil
}

// Down rolls back at most n migrations, stopping early at an empty schema.
func (m *Migrator) Down(ctx context.Context, n int) ([]MigrationStep, error) {
	var steps []MigrationStep
	for range n {
		v, err := m.p.GetDBVersion(ctx)
		if err != nil {
			return steps, fmt.Errorf("migrate down: %w", err)
		}
		if v == 0 {
			break
		}
		r, err := m.p.Down(ctx)
		if r != nil && r.Source != nil {
			steps = append(steps, stepOf(r))
		}
		if err != nil {
			return steps, fmt.Errorf("migrate down: %w", err)
		}
	}
	return steps, nil
}

// Version returns the highest applied migration, 0 for an empty schema.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return v, nil
}

// Status lists every embedded migration in version order.
func (m *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	st, err := m.p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]MigrationState, 0, len(st))
	for _, s := range st {
		out = append(out, MigrationState{
			Version:   s.Source.Version,
			File:      path.Base(s.Source.Path),
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Migrate brings the schema at dsn up to date and logs each applied step.
func Migrate(ctx context.Context, dsn string) error {
	m, err := OpenMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	steps, err := m.Up(ctx)
	for _, s := range steps {
		slog.Info("migration applied", "version", s.Version, "file", s.File, "duration", s.Duration)
	}
	return err
}

func stepOf(r *goose.MigrationResult) MigrationStep {
	return MigrationStep{Version: r.Source.Version, File: path.Base(r.Source.Path), Duration: r.Duration}
}
