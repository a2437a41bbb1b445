// Package memory provides an in-process DocumentStore.
// Used by the CLI's one-shot commands and by tests; nothing survives a restart.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/infra/metrics"
)

const backend = "memory"

// Store is a mutex-guarded map of documents.
type Store struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	closed bool
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// Get returns a copy of the document at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	defer metrics.ObserveStore(backend, "get", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreUnavailable
	}
	v, ok := s.docs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(v), nil
}

// Set overwrites the document at key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	defer metrics.ObserveStore(backend, "set", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreUnavailable
	}
	s.docs[key] = clone(value)
	return nil
}

// UpdateAtomic holds the write lock for the whole read-modify-write,
// so fn runs exactly once.
func (s *Store) UpdateAtomic(_ context.Context, key string, fn domain.UpdateFunc) error {
	defer metrics.ObserveStore(backend, "update", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreUnavailable
	}
	cur, exists := s.docs[key]
	next, err := fn(clone(cur), exists)
	if errors.Is(err, domain.ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	s.docs[key] = clone(next)
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreUnavailable
	}
	delete(s.docs, key)
	return nil
}

// Keys lists keys with prefix in lexical order.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreUnavailable
	}
	var keys []string
	for k := range s.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping fails once the store is closed.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreUnavailable
	}
	return nil
}

// Close marks the store unavailable. Every later call fails with
// ErrStoreUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
