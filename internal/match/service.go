// Package match provides the HTTP handlers and orchestration for the live
// scoring flow: starting matches, recording ball-by-ball commentary,
// read-through match queries, and status updates, each fanned out to
// broadcast subscribers.
package match

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Ashu27-arc/cricket-backend/internal/cache"
	"github.com/Ashu27-arc/cricket-backend/internal/commentary"
	"github.com/Ashu27-arc/cricket-backend/internal/live"
	"github.com/Ashu27-arc/cricket-backend/internal/matchid"
	"github.com/Ashu27-arc/cricket-backend/internal/metrics"
	"github.com/Ashu27-arc/cricket-backend/internal/model"
	"github.com/Ashu27-arc/cricket-backend/internal/store"
)

const (
	defaultLiveLimit = 20
	maxListLimit     = 200

	// A fresh ID can be taken between the allocator's existence check and
	// our insert; the store's unique constraint decides, and we re-allocate.
	maxInsertRetries = 3
)

// Service orchestrates the scoring flow. The mirror is best-effort and the
// hub optional; the durable store is the only hard dependency.
type Service struct {
	store  store.Store
	mirror cache.Mirror
	hub    *live.Hub
	alloc  *matchid.Allocator
	gen    *commentary.Generator
	clock  clockwork.Clock
}

// NewService creates a new scoring service. Pass a NopMirror to run
// store-only and nil for hub if broadcasting is not needed.
func NewService(st store.Store, mirror cache.Mirror, hub *live.Hub, clock clockwork.Clock) *Service {
	if mirror == nil {
		mirror = cache.NopMirror{}
	}
	return &Service{
		store:  st,
		mirror: mirror,
		hub:    hub,
		alloc:  matchid.New(st),
		gen:    commentary.NewGenerator(clock),
		clock:  clock,
	}
}

// --- Request/Response types ---

// StartMatchRequest is the JSON body for POST /api/matches/start.
type StartMatchRequest struct {
	TeamA        string `json:"teamA"`
	TeamB        string `json:"teamB"`
	Overs        int    `json:"overs"`
	TossWinner   string `json:"tossWinner,omitempty"`
	TossDecision string `json:"tossDecision,omitempty"`
}

// AddCommentaryRequest is the JSON body for POST /api/matches/{matchID}/commentary.
// Ball is a pointer so a legitimate ball 0 is distinguishable from the
// field being absent.
type AddCommentaryRequest struct {
	Over          int                 `json:"over"`
	Ball          *int                `json:"ball"`
	EventType     string              `json:"eventType"`
	Runs          int                 `json:"runs"`
	Description   string              `json:"description"`
	Batsman       string              `json:"batsman,omitempty"`
	Bowler        string              `json:"bowler,omitempty"`
	Extras        *model.ExtraDetail  `json:"extras,omitempty"`
	WicketDetails *model.WicketDetail `json:"wicketDetails,omitempty"`
}

// UpdateStatusRequest is the JSON body for PUT /api/matches/{matchID}/status.
type UpdateStatusRequest struct {
	Status    string          `json:"status"`
	FullState json.RawMessage `json:"fullMatchJSON,omitempty"`
}

// snapshot holds the summary fields lifted from the scorer's opaque full
// state. Absent numeric fields default to zero.
type snapshot struct {
	TeamA         string `json:"teamA"`
	TeamB         string `json:"teamB"`
	Batting       string `json:"batting"`
	Overs         int    `json:"overs"`
	Runs          int    `json:"runs"`
	Wickets       int    `json:"wickets"`
	BallCount     int    `json:"ballCount"`
	IsInningsOver bool   `json:"isInningsOver"`
	Striker       string `json:"striker,omitempty"`
	NonStriker    string `json:"nonStriker,omitempty"`
}

// --- HTTP Handlers ---

// StartMatch handles POST /api/matches/start.
func (s *Service) StartMatch(w http.ResponseWriter, r *http.Request) {
	var req StartMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.TeamA == "" || req.TeamB == "" || req.Overs <= 0 {
		writeError(w, "teamA, teamB, and overs are required", http.StatusBadRequest)
		return
	}

	// Toss decides the batting side: the winner bats on "bat", the other
	// side on "bowl". Without toss info teamA opens.
	batting := req.TeamA
	if req.TossWinner != "" && req.TossDecision != "" {
		switch req.TossDecision {
		case "bat":
			batting = req.TossWinner
		case "bowl":
			if req.TossWinner == req.TeamA {
				batting = req.TeamB
			} else {
				batting = req.TeamA
			}
		}
	}

	ctx := r.Context()
	now := s.clock.Now().UTC()

	var match *model.Match
	for attempt := 0; attempt < maxInsertRetries; attempt++ {
		matchID, err := s.alloc.Allocate(ctx)
		if err != nil {
			if errors.Is(err, matchid.ErrExhausted) {
				slog.Error("match id space exhausted")
			} else {
				slog.Error("match id allocation failed", "err", err)
			}
			writeError(w, "Failed to start match", http.StatusInternalServerError)
			return
		}

		initialState, _ := json.Marshal(map[string]any{
			"matchId":       matchID,
			"teamA":         req.TeamA,
			"teamB":         req.TeamB,
			"batting":       batting,
			"overs":         req.Overs,
			"runs":          0,
			"wickets":       0,
			"ballCount":     0,
			"currentOver":   1,
			"isInningsOver": false,
			"tossWinner":    req.TossWinner,
			"tossDecision":  req.TossDecision,
			"innings":       1,
		})

		candidate := &model.Match{
			ID:        uuid.New().String(),
			MatchID:   matchID,
			TeamA:     req.TeamA,
			TeamB:     req.TeamB,
			Batting:   batting,
			Overs:     req.Overs,
			Status:    model.StatusLive,
			FullState: initialState,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = s.store.CreateMatch(ctx, candidate)
		if err == nil {
			match = candidate
			break
		}
		if errors.Is(err, store.ErrDuplicateMatchID) {
			continue
		}
		slog.Error("create match failed", "err", err)
		writeError(w, "Failed to start match", http.StatusInternalServerError)
		return
	}
	if match == nil {
		writeError(w, "Failed to start match", http.StatusInternalServerError)
		return
	}

	s.mirror.PutMatch(ctx, match)

	if s.hub != nil {
		s.hub.PublishGlobal(live.EventMatchStarted, map[string]any{
			"matchId": match.MatchID,
			"match":   match,
		})
	}

	metrics.MatchesStarted.Inc()
	slog.Info("match started",
		"match_id", match.MatchID,
		"team_a", match.TeamA,
		"team_b", match.TeamB,
		"batting", match.Batting,
		"overs", match.Overs,
	)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"matchId": match.MatchID,
		"match":   match,
	})
}

// AddCommentary handles POST /api/matches/{matchID}/commentary.
func (s *Service) AddCommentary(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var req AddCommentaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Over < 1 || req.Ball == nil || *req.Ball < 0 || req.EventType == "" || req.Description == "" {
		writeError(w, "over, ball, eventType, and description are required", http.StatusBadRequest)
		return
	}
	if !model.ValidEventType(req.EventType) {
		writeError(w, "unknown eventType: "+req.EventType, http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if _, err := s.store.GetMatchByMatchID(ctx, matchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Match not found", http.StatusNotFound)
			return
		}
		slog.Error("match lookup failed", "match_id", matchID, "err", err)
		writeError(w, "Failed to add commentary", http.StatusInternalServerError)
		return
	}

	entry := &model.Commentary{
		ID:            uuid.New().String(),
		MatchID:       matchID,
		Over:          req.Over,
		Ball:          *req.Ball,
		EventType:     req.EventType,
		Runs:          req.Runs,
		Description:   req.Description,
		Batsman:       req.Batsman,
		Bowler:        req.Bowler,
		Extras:        req.Extras,
		WicketDetails: req.WicketDetails,
		Timestamp:     s.clock.Now().UTC(),
	}

	if err := s.store.InsertCommentary(ctx, entry); err != nil {
		slog.Error("insert commentary failed", "match_id", matchID, "err", err)
		writeError(w, "Failed to add commentary", http.StatusInternalServerError)
		return
	}

	s.mirror.AppendCommentary(ctx, matchID, entry)

	if s.hub != nil {
		s.hub.Publish(matchID, live.EventCommentaryUpdate, map[string]any{
			"matchId":    matchID,
			"commentary": entry,
		})
	}

	metrics.CommentaryEntries.WithLabelValues(entry.EventType).Inc()

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"commentary": entry,
	})
}

// GetMatch handles GET /api/matches/{matchID}. Reads go through the mirror
// first and repopulate it on a miss; the durable store stays authoritative.
func (s *Service) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	ctx := r.Context()

	match, ok := s.mirror.GetMatch(ctx, matchID)
	if !ok {
		var err error
		match, err = s.store.GetMatchByMatchID(ctx, matchID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, "Match not found", http.StatusNotFound)
				return
			}
			slog.Error("get match failed", "match_id", matchID, "err", err)
			writeError(w, "Failed to get match details", http.StatusInternalServerError)
			return
		}
		s.mirror.PutMatch(ctx, match)
	}

	entries, ok := s.mirror.ListCommentary(ctx, matchID)
	if !ok {
		var err error
		entries, err = s.store.ListCommentary(ctx, matchID)
		if err != nil {
			slog.Error("list commentary failed", "match_id", matchID, "err", err)
			writeError(w, "Failed to get match details", http.StatusInternalServerError)
			return
		}
		// Repopulate oldest first so the list ends up newest at the head.
		for i := range entries {
			s.mirror.AppendCommentary(ctx, matchID, &entries[i])
		}
	}
	if entries == nil {
		entries = []model.Commentary{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"match":           match,
		"commentary":      entries,
		"totalCommentary": len(entries),
	})
}

// ListLive handles GET /api/matches/live.
func (s *Service) ListLive(w http.ResponseWriter, r *http.Request) {
	limit := defaultLiveLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	matches, err := s.store.ListLiveMatches(r.Context(), limit)
	if err != nil {
		slog.Error("list live matches failed", "err", err)
		writeError(w, "Failed to get live matches", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"matches": matches,
		"count":   len(matches),
	})
}

// UpdateStatus handles PUT /api/matches/{matchID}/status. When a full-state
// snapshot accompanies the status it is stored as-is and its summary fields
// are lifted onto the match record.
func (s *Service) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !model.ValidStatus(req.Status) {
		writeError(w, "Valid status (upcoming, live, completed) is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	match, err := s.store.GetMatchByMatchID(ctx, matchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Match not found", http.StatusNotFound)
			return
		}
		slog.Error("match lookup failed", "match_id", matchID, "err", err)
		writeError(w, "Failed to update match status", http.StatusInternalServerError)
		return
	}

	match.Status = req.Status
	match.UpdatedAt = s.clock.Now().UTC()
	if len(req.FullState) > 0 {
		var snap snapshot
		if err := json.Unmarshal(req.FullState, &snap); err != nil {
			writeError(w, "invalid fullMatchJSON", http.StatusBadRequest)
			return
		}
		match.FullState = req.FullState
		match.Runs = snap.Runs
		match.Wickets = snap.Wickets
		match.BallCount = snap.BallCount
		match.IsInningsOver = snap.IsInningsOver
	}

	if err := s.store.UpdateMatch(ctx, match); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Match not found", http.StatusNotFound)
			return
		}
		slog.Error("update match failed", "match_id", matchID, "err", err)
		writeError(w, "Failed to update match status", http.StatusInternalServerError)
		return
	}

	s.mirror.PutMatch(ctx, match)

	if s.hub != nil {
		s.hub.PublishGlobal(live.EventMatchStatusUpdate, map[string]any{
			"matchId": matchID,
			"status":  match.Status,
			"match":   match,
		})
	}

	slog.Info("match status updated", "match_id", matchID, "status", match.Status)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"match":   match,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"message": message})
}
