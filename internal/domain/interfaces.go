package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the engine depends on them.

// UpdateFunc receives the current document (exists=false when absent) and
// returns the replacement. It may run more than once on optimistic backends,
// so it must not leak side effects. Returning ErrNoChange skips the write.
type UpdateFunc func(current []byte, exists bool) ([]byte, error)

// DocumentStore is the persistence boundary: a key/value document database.
// No ordering guarantee across keys.
type DocumentStore interface {
	// Get returns the document at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the document at key.
	Set(ctx context.Context, key string, value []byte) error

	// UpdateAtomic runs a read-modify-write of key as one atomic operation.
	UpdateAtomic(ctx context.Context, key string, fn UpdateFunc) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}

// Clock supplies the current instant and the calendar day in a fixed timezone.
type Clock interface {
	Now() time.Time
	Today() Day
	Location() *time.Location
}

// QuestFilter narrows a catalog query. Zero value matches every quest.
type QuestFilter struct {
	FreeOnly   bool
	Category   string
	ExcludeIDs map[string]bool
}

// Matches reports whether q passes the filter.
func (f QuestFilter) Matches(q QuestDefinition) bool {
	if f.FreeOnly && q.IsPremium {
		return false
	}
	if f.Category != "" && q.Category != f.Category {
		return false
	}
	return !f.ExcludeIDs[q.ID]
}

// QuestCatalog is the read-only quest metadata source.
type QuestCatalog interface {
	ListQuests(ctx context.Context, filter QuestFilter) ([]QuestDefinition, error)
	Quest(ctx context.Context, id string) (QuestDefinition, error)
}
