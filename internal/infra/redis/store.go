// Package redis provides a Redis-backed DocumentStore.
// Read-modify-write uses WATCH/MULTI optimistic transactions.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/infra/metrics"
)

const backend = "redis"

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Namespace is prepended to every key, e.g. "questforge:".
	Namespace string

	// MaxRetries bounds optimistic transaction retries before ErrConflict.
	MaxRetries int
}

// Store implements domain.DocumentStore on a Redis client.
type Store struct {
	client     *goredis.Client
	ns         string
	maxRetries int
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewWithClient(client, cfg.Namespace, cfg.MaxRetries), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, namespace string, maxRetries int) *Store {
	if maxRetries <= 0 {
		maxRetries = 10
	}
	return &Store{client: client, ns: namespace, maxRetries: maxRetries}
}

func (s *Store) key(k string) string { return s.ns + k }

// Get retrieves a document.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	defer metrics.ObserveStore(backend, "get", time.Now())
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return v, nil
}

// Set overwrites a document.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	defer metrics.ObserveStore(backend, "set", time.Now())
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// callbackError marks errors that came from the UpdateFunc rather than Redis.
type callbackError struct{ err error }

func (e callbackError) Error() string { return e.err.Error() }
func (e callbackError) Unwrap() error { return e.err }

// UpdateAtomic watches key, runs fn, and commits with MULTI/EXEC. A write
// by another client between the read and EXEC aborts the transaction and
// fn is re-run on the fresh value, up to MaxRetries times.
func (s *Store) UpdateAtomic(ctx context.Context, key string, fn domain.UpdateFunc) error {
	defer metrics.ObserveStore(backend, "update", time.Now())
	k := s.key(key)

	txf := func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, k).Bytes()
		exists := true
		if errors.Is(err, goredis.Nil) {
			exists, err = false, nil
		}
		if err != nil {
			return err
		}

		next, err := fn(cur, exists)
		if err != nil {
			return callbackError{err}
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.client.Watch(ctx, txf, k)
		if err == nil {
			return nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		var cbErr callbackError
		if errors.As(err, &cbErr) {
			if errors.Is(cbErr.err, domain.ErrNoChange) {
				return nil
			}
			return cbErr.err
		}
		return unavailable(err)
	}
	return fmt.Errorf("%w: %s after %d attempts", domain.ErrConflict, key, s.maxRetries)
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Keys scans for keys with prefix. Keys are returned without the namespace.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(s.key(prefix)) + "*"
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, unavailable(err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.ns))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return keys, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func escapeGlob(p string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(p)
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
