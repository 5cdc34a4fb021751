// Package cache provides the volatile read-optimized mirror of match state
// and commentary. Redis holds the mirror; the durable store remains the
// source of truth. The mirror is best-effort: every operation degrades
// silently, and a missing or unreachable cache is never an error.
package cache

import (
	"context"

	"github.com/Ashu27-arc/cricket-backend/internal/model"
)

// Mirror is the cache tier contract. A miss (ok == false) means the caller
// falls through to the durable store; implementations never surface errors.
type Mirror interface {
	// GetMatch returns the mirrored match state, if present.
	GetMatch(ctx context.Context, matchID string) (*model.Match, bool)

	// PutMatch writes or overwrites the mirrored state and resets its TTL.
	PutMatch(ctx context.Context, m *model.Match)

	// AppendCommentary prepends an entry to the match's commentary list
	// (most-recent-first) and resets the list's TTL.
	AppendCommentary(ctx context.Context, matchID string, c *model.Commentary)

	// ListCommentary returns the mirrored commentary in (over, ball) display
	// order. An empty cached list is reported as a miss so entries written
	// before the cache was warm are not masked.
	ListCommentary(ctx context.Context, matchID string) ([]model.Commentary, bool)

	// InvalidateMatch drops the mirrored state and commentary for a match.
	InvalidateMatch(ctx context.Context, matchID string)
}

// NopMirror is the cache-absent implementation: every read misses and every
// write is discarded. The service runs store-only with it.
type NopMirror struct{}

func (NopMirror) GetMatch(context.Context, string) (*model.Match, bool) { return nil, false }

func (NopMirror) PutMatch(context.Context, *model.Match) {}

func (NopMirror) AppendCommentary(context.Context, string, *model.Commentary) {}

func (NopMirror) ListCommentary(context.Context, string) ([]model.Commentary, bool) {
	return nil, false
}

func (NopMirror) InvalidateMatch(context.Context, string) {}
