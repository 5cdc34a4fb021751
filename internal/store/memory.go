package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Ashu27-arc/cricket-backend/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu         sync.RWMutex
	matches    map[string]*model.Match // keyed by internal ID
	byMatchID  map[string]string       // public match ID → internal ID
	commentary []model.Commentary
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches:   make(map[string]*model.Match),
		byMatchID: make(map[string]string),
	}
}

func (s *MemoryStore) CreateMatch(_ context.Context, m *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byMatchID[m.MatchID]; taken {
		return ErrDuplicateMatchID
	}

	// Store a copy to avoid external mutation.
	cp := *m
	s.matches[m.ID] = &cp
	s.byMatchID[m.MatchID] = m.ID
	return nil
}

func (s *MemoryStore) GetMatchByMatchID(_ context.Context, matchID string) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byMatchID[matchID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.matches[id]
	return &cp, nil
}

func (s *MemoryStore) GetMatchByID(_ context.Context, id string) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) MatchIDExists(_ context.Context, matchID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byMatchID[matchID]
	return ok, nil
}

func (s *MemoryStore) ListMatches(_ context.Context, limit int) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(limit, func(*model.Match) bool { return true }), nil
}

func (s *MemoryStore) ListLiveMatches(_ context.Context, limit int) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(limit, func(m *model.Match) bool {
		return m.Status == model.StatusLive
	}), nil
}

// collect gathers matching entries newest first. Callers hold the lock.
func (s *MemoryStore) collect(limit int, keep func(*model.Match) bool) []model.Match {
	var matches []model.Match
	for _, m := range s.matches {
		if keep(m) {
			matches = append(matches, *m)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func (s *MemoryStore) UpdateMatch(_ context.Context, m *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byMatchID[m.MatchID]
	if !ok {
		return ErrNotFound
	}
	cur := s.matches[id]
	cur.Status = m.Status
	cur.Runs = m.Runs
	cur.Wickets = m.Wickets
	cur.BallCount = m.BallCount
	cur.IsInningsOver = m.IsInningsOver
	cur.FullState = m.FullState
	cur.UpdatedAt = m.UpdatedAt
	return nil
}

func (s *MemoryStore) ReplaceMatch(_ context.Context, m *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.matches[m.ID]
	if !ok {
		return ErrNotFound
	}
	cp := *m
	cp.MatchID = cur.MatchID // public ID is immutable
	cp.CreatedAt = cur.CreatedAt
	s.matches[m.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteMatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byMatchID, m.MatchID)
	delete(s.matches, id)
	return nil
}

func (s *MemoryStore) InsertCommentary(_ context.Context, c *model.Commentary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commentary = append(s.commentary, *c)
	return nil
}

func (s *MemoryStore) ListCommentary(_ context.Context, matchID string) ([]model.Commentary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []model.Commentary
	for _, c := range s.commentary {
		if c.MatchID == matchID {
			entries = append(entries, c)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Over != entries[j].Over {
			return entries[i].Over < entries[j].Over
		}
		return entries[i].Ball < entries[j].Ball
	})
	return entries, nil
}
