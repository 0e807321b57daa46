// Package repository stores users, projects and project events in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns   = 10
	defaultMinConns   = 2
	maxConnLifetime   = time.Hour
	connectTimeout    = 10 * time.Second
	sqlStateUniqueKey = "23505"
)

// Repository is the PostgreSQL store behind the project and account services.
type Repository struct {
	pool *pgxpool.Pool
}

// New opens a pool against databaseURL and pings it once. Pool sizes given
// as pool_max_conns / pool_min_conns in the URL take precedence.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if !strings.Contains(databaseURL, "pool_max_conns") {
		cfg.MaxConns = defaultMaxConns
	}
	if !strings.Contains(databaseURL, "pool_min_conns") {
		cfg.MinConns = defaultMinConns
	}
	cfg.MaxConnLifetime = maxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping reports whether PostgreSQL answers. It backs the readiness probe.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool exposes the pool to integration tests that lock or reset the schema.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// uniqueConstraint names the unique index err violated, if any.
func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != sqlStateUniqueKey {
		return "", false
	}
	return pgErr.ConstraintName, true
}
