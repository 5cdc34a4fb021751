// Package matchid allocates the public 4-digit identifiers clients use to
// address matches. Candidates are drawn at random from [1000, 9999] and
// checked against the durable store; at realistic match counts collisions
// are rare, but the retry ceiling guarantees allocation terminates.
package matchid

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"

	"github.com/Ashu27-arc/cricket-backend/internal/metrics"
)

// ErrExhausted is returned when no free ID was found within maxAttempts.
var ErrExhausted = errors.New("unable to allocate unique match id")

const (
	idFloor     = 1000
	idSpan      = 9000
	maxAttempts = 100
)

// ExistsChecker is the narrow store view the allocator needs.
type ExistsChecker interface {
	MatchIDExists(ctx context.Context, matchID string) (bool, error)
}

// Allocator produces collision-free public match IDs. The check here is
// advisory: a concurrent insert can still take the ID between check and
// use, so the store's unique constraint remains the final authority and
// callers retry on a duplicate-ID insert error.
type Allocator struct {
	store ExistsChecker
	intN  func(n int) int
}

// New creates an allocator backed by the given store.
func New(store ExistsChecker) *Allocator {
	return &Allocator{store: store, intN: rand.IntN}
}

// NewWithRand creates an allocator with an injected random source, for
// deterministic tests.
func NewWithRand(store ExistsChecker, intN func(n int) int) *Allocator {
	return &Allocator{store: store, intN: intN}
}

// Allocate returns a free 4-digit match ID, or ErrExhausted after
// maxAttempts collisions.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate := strconv.Itoa(idFloor + a.intN(idSpan))

		exists, err := a.store.MatchIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		metrics.IDAllocatorRetries.Inc()
	}
	return "", ErrExhausted
}
