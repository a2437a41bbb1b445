// Package postgres provides a PostgreSQL-backed DocumentStore on a pgx pool.
// Documents live in one jsonb table; read-modify-write locks the row with
// SELECT ... FOR UPDATE.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/infra/metrics"
)

const backend = "postgres"

// Config holds pool settings.
type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// Store implements domain.DocumentStore on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates the pool, verifies it, and runs migrations.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			value      JSONB,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// Get retrieves a document. A row whose value is NULL reads as absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	defer metrics.ObserveStore(backend, "get", time.Now())
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM documents WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	if value == nil {
		return nil, domain.ErrNotFound
	}
	return value, nil
}

// Set upserts a document.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	defer metrics.ObserveStore(backend, "set", time.Now())
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// UpdateAtomic locks the row for the duration of fn. A placeholder row with
// a NULL value is inserted first so that concurrent creators serialize on it.
func (s *Store) UpdateAtomic(ctx context.Context, key string, fn domain.UpdateFunc) error {
	defer metrics.ObserveStore(backend, "update", time.Now())
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO documents (key, value) VALUES ($1, NULL) ON CONFLICT (key) DO NOTHING`, key); err != nil {
		return unavailable(err)
	}

	var cur []byte
	if err := tx.QueryRow(ctx,
		`SELECT value FROM documents WHERE key = $1 FOR UPDATE`, key).Scan(&cur); err != nil {
		return unavailable(err)
	}

	next, err := fn(cur, cur != nil)
	if errors.Is(err, domain.ErrNoChange) {
		// Rolling back also drops a placeholder inserted above.
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE documents SET value = $2, updated_at = NOW() WHERE key = $1`, key, next); err != nil {
		return unavailable(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE key = $1`, key); err != nil {
		return unavailable(err)
	}
	return nil
}

// Keys lists keys with prefix, skipping NULL placeholders.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM documents WHERE key LIKE $1 ESCAPE '\' AND value IS NOT NULL ORDER BY key`,
		likePrefix(prefix))
	if err != nil {
		return nil, unavailable(err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, unavailable(err)
	}
	return keys, nil
}

// Ping checks pool connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
