// Package store defines the persistence interface for the scoring backend.
// Implementations include PostgreSQL (source of truth) and in-memory (for
// testing). The Redis tier lives in internal/cache and is a best-effort
// mirror, not a Store implementation.
package store

import (
	"context"
	"errors"

	"github.com/Ashu27-arc/cricket-backend/internal/model"
)

// ErrNotFound is returned when a referenced match does not exist.
var ErrNotFound = errors.New("match not found")

// ErrDuplicateMatchID is returned when an insert collides with an existing
// public match ID. Callers treat this as a retryable allocator collision.
var ErrDuplicateMatchID = errors.New("duplicate match id")

// Store is the persistence interface. PostgreSQL is the source of truth.
type Store interface {
	// --- Match operations ---

	// CreateMatch persists a new match. Returns ErrDuplicateMatchID if the
	// public match ID is already taken.
	CreateMatch(ctx context.Context, m *model.Match) error

	// GetMatchByMatchID retrieves a match by its public 4-digit ID.
	GetMatchByMatchID(ctx context.Context, matchID string) (*model.Match, error)

	// GetMatchByID retrieves a match by its storage-internal ID.
	GetMatchByID(ctx context.Context, id string) (*model.Match, error)

	// MatchIDExists reports whether a public match ID is already in use.
	MatchIDExists(ctx context.Context, matchID string) (bool, error)

	// ListMatches returns recent matches, newest first, up to limit.
	ListMatches(ctx context.Context, limit int) ([]model.Match, error)

	// ListLiveMatches returns matches with status "live", newest first.
	ListLiveMatches(ctx context.Context, limit int) ([]model.Match, error)

	// UpdateMatch writes status, summary fields, and full state for the
	// match identified by m.MatchID.
	UpdateMatch(ctx context.Context, m *model.Match) error

	// ReplaceMatch overwrites the match identified by m.ID (legacy path,
	// keyed by storage-internal ID).
	ReplaceMatch(ctx context.Context, m *model.Match) error

	// DeleteMatch removes the match identified by its internal ID.
	DeleteMatch(ctx context.Context, id string) error

	// --- Commentary operations ---

	// InsertCommentary appends an immutable commentary entry.
	InsertCommentary(ctx context.Context, c *model.Commentary) error

	// ListCommentary returns all entries for a match ordered by (over, ball).
	ListCommentary(ctx context.Context, matchID string) ([]model.Commentary, error)
}
