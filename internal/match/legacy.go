package match

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ashu27-arc/cricket-backend/internal/commentary"
	"github.com/Ashu27-arc/cricket-backend/internal/live"
	"github.com/Ashu27-arc/cricket-backend/internal/matchid"
	"github.com/Ashu27-arc/cricket-backend/internal/metrics"
	"github.com/Ashu27-arc/cricket-backend/internal/model"
	"github.com/Ashu27-arc/cricket-backend/internal/store"
)

// Legacy record path: full-replace semantics keyed by the storage-internal
// ID. The scorer pushes its complete state each ball; when the payload
// carries the last delivery we synthesize commentary and broadcast it along
// with over and innings boundary summaries the caller flags.

// RecordRequest is the JSON body for the legacy create/update routes.
type RecordRequest struct {
	TeamA            string                 `json:"teamA,omitempty"`
	TeamB            string                 `json:"teamB,omitempty"`
	Batting          string                 `json:"batting,omitempty"`
	Overs            int                    `json:"overs,omitempty"`
	FullState        json.RawMessage        `json:"fullMatchJSON"`
	LastBall         *commentary.BallEvent  `json:"lastBall,omitempty"`
	OverCompleted    bool                   `json:"overCompleted,omitempty"`
	CompletedOver    []commentary.BallEvent `json:"completedOver,omitempty"`
	OverNumber       int                    `json:"overNumber,omitempty"`
	InningsJustEnded bool                   `json:"inningsJustEnded,omitempty"`
}

// CreateRecord handles POST /api/matches (legacy). The snapshot is
// required; summary fields are lifted from it with request-level fallbacks.
func (s *Service) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.FullState) == 0 {
		writeError(w, "fullMatchJSON is required in request body", http.StatusBadRequest)
		return
	}

	var snap snapshot
	if err := json.Unmarshal(req.FullState, &snap); err != nil {
		writeError(w, "invalid fullMatchJSON", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	now := s.clock.Now().UTC()

	// Even legacy records get a public ID so broadcast groups and the
	// mirror have a single keying scheme. The allocator's check is
	// advisory, so a duplicate-ID insert re-allocates like StartMatch.
	var m *model.Match
	for attempt := 0; attempt < maxInsertRetries; attempt++ {
		publicID, err := s.alloc.Allocate(ctx)
		if err != nil {
			if errors.Is(err, matchid.ErrExhausted) {
				slog.Error("match id space exhausted")
			}
			writeError(w, "Server error", http.StatusInternalServerError)
			return
		}

		candidate := &model.Match{
			ID:            uuid.New().String(),
			MatchID:       publicID,
			TeamA:         firstNonEmpty(snap.TeamA, req.TeamA, "Team A"),
			TeamB:         firstNonEmpty(snap.TeamB, req.TeamB, "Team B"),
			Batting:       firstNonEmpty(snap.Batting, req.Batting, "Team A"),
			Overs:         firstPositive(snap.Overs, req.Overs),
			Runs:          snap.Runs,
			Wickets:       snap.Wickets,
			BallCount:     snap.BallCount,
			IsInningsOver: snap.IsInningsOver,
			Status:        model.StatusUpcoming,
			FullState:     req.FullState,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err = s.store.CreateMatch(ctx, candidate)
		if err == nil {
			m = candidate
			break
		}
		if errors.Is(err, store.ErrDuplicateMatchID) {
			continue
		}
		slog.Error("create record failed", "err", err)
		writeError(w, "Server error", http.StatusInternalServerError)
		return
	}
	if m == nil {
		writeError(w, "Server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// ListRecords handles GET /api/matches (legacy): recent matches, newest first.
func (s *Service) ListRecords(w http.ResponseWriter, r *http.Request) {
	matches, err := s.store.ListMatches(r.Context(), maxListLimit)
	if err != nil {
		slog.Error("list records failed", "err", err)
		writeError(w, "Server error", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// GetRecord handles GET /api/matches/records/{id} (legacy, internal ID).
func (s *Service) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, "Invalid id", http.StatusBadRequest)
		return
	}

	m, err := s.store.GetMatchByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Match not found", http.StatusNotFound)
			return
		}
		slog.Error("get record failed", "id", id, "err", err)
		writeError(w, "Server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateRecord handles PUT /api/matches/records/{id} (legacy full replace).
// A payload carrying lastBall triggers commentary synthesis and a
// match-update broadcast to the match group, plus over-completed and
// innings-ended summaries when the caller signals those boundaries.
func (s *Service) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, "Invalid id", http.StatusBadRequest)
		return
	}

	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.FullState) == 0 {
		writeError(w, "fullMatchJSON required", http.StatusBadRequest)
		return
	}

	var snap snapshot
	if err := json.Unmarshal(req.FullState, &snap); err != nil {
		writeError(w, "invalid fullMatchJSON", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	m, err := s.store.GetMatchByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Match not found", http.StatusNotFound)
			return
		}
		slog.Error("get record failed", "id", id, "err", err)
		writeError(w, "Server error", http.StatusInternalServerError)
		return
	}

	m.TeamA = firstNonEmpty(snap.TeamA, req.TeamA, m.TeamA)
	m.TeamB = firstNonEmpty(snap.TeamB, req.TeamB, m.TeamB)
	m.Batting = firstNonEmpty(snap.Batting, req.Batting, m.Batting)
	m.Overs = firstPositive(snap.Overs, req.Overs, m.Overs)
	m.Runs = snap.Runs
	m.Wickets = snap.Wickets
	m.BallCount = snap.BallCount
	m.IsInningsOver = snap.IsInningsOver
	m.FullState = req.FullState
	m.UpdatedAt = s.clock.Now().UTC()

	if err := s.store.ReplaceMatch(ctx, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Match not found", http.StatusNotFound)
			return
		}
		slog.Error("replace record failed", "id", id, "err", err)
		writeError(w, "Server error", http.StatusInternalServerError)
		return
	}

	s.mirror.PutMatch(ctx, m)

	if req.LastBall != nil && s.hub != nil {
		state := commentary.MatchState{
			TeamA:         m.TeamA,
			TeamB:         m.TeamB,
			Batting:       m.Batting,
			Runs:          m.Runs,
			Wickets:       m.Wickets,
			BallCount:     m.BallCount,
			Striker:       snap.Striker,
			NonStriker:    snap.NonStriker,
			IsInningsOver: m.IsInningsOver,
		}

		line := s.gen.Ball(*req.LastBall, state)
		metrics.CommentaryGenerated.WithLabelValues("ball").Inc()
		s.hub.Publish(m.MatchID, live.EventMatchUpdate, map[string]any{
			"match":      m,
			"commentary": line,
			"lastBall":   req.LastBall,
		})

		if req.OverCompleted {
			summary := s.gen.OverComplete(req.CompletedOver, req.OverNumber, state,
				req.LastBall.NewStriker, req.LastBall.NewNonStriker)
			metrics.CommentaryGenerated.WithLabelValues("over-summary").Inc()
			s.hub.Publish(m.MatchID, live.EventOverCompleted, summary)
		}

		if m.IsInningsOver && req.InningsJustEnded {
			closing := s.gen.InningsEnd(state)
			metrics.CommentaryGenerated.WithLabelValues("innings-end").Inc()
			s.hub.Publish(m.MatchID, live.EventInningsEnded, closing)
		}
	}

	writeJSON(w, http.StatusOK, m)
}

// DeleteRecord handles DELETE /api/matches/records/{id} (legacy, internal ID).
func (s *Service) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeError(w, "Invalid id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Look the match up first so the mirror entry can be invalidated too.
	m, err := s.store.GetMatchByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Match not found", http.StatusNotFound)
			return
		}
		slog.Error("get record failed", "id", id, "err", err)
		writeError(w, "Server error", http.StatusInternalServerError)
		return
	}

	if err := s.store.DeleteMatch(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Match not found", http.StatusNotFound)
			return
		}
		slog.Error("delete record failed", "id", id, "err", err)
		writeError(w, "Server error", http.StatusInternalServerError)
		return
	}

	s.mirror.InvalidateMatch(ctx, m.MatchID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
