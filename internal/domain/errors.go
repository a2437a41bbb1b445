package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Input errors: rejected locally, never persisted.
	ErrInvalidInput  = errors.New("invalid input")
	ErrQuestNotFound = errors.New("quest not found")

	// Catalog errors
	ErrEmptyCatalog         = errors.New("quest catalog has no selectable quests")
	ErrNoChallengeAvailable = errors.New("no daily challenge available")

	// Daily challenge lifecycle
	ErrChallengeCompleted = errors.New("daily challenge already completed")

	// Store errors
	ErrStoreUnavailable = errors.New("document store unavailable")
	ErrNotFound         = errors.New("document not found")
	ErrConflict         = errors.New("concurrent update conflict")

	// ErrNoChange is returned by an UpdateAtomic callback to skip the write.
	ErrNoChange = errors.New("no change")
)
