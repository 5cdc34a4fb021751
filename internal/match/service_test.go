package match_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/Ashu27-arc/cricket-backend/internal/live"
	"github.com/Ashu27-arc/cricket-backend/internal/match"
	"github.com/Ashu27-arc/cricket-backend/internal/model"
	"github.com/Ashu27-arc/cricket-backend/internal/store"
)

// countingStore wraps a Store and counts durable reads, so tests can prove
// the mirror actually absorbed them.
type countingStore struct {
	store.Store
	mu             sync.Mutex
	matchReads     int
	commentaryList int
}

func (c *countingStore) GetMatchByMatchID(ctx context.Context, matchID string) (*model.Match, error) {
	c.mu.Lock()
	c.matchReads++
	c.mu.Unlock()
	return c.Store.GetMatchByMatchID(ctx, matchID)
}

func (c *countingStore) ListCommentary(ctx context.Context, matchID string) ([]model.Commentary, error) {
	c.mu.Lock()
	c.commentaryList++
	c.mu.Unlock()
	return c.Store.ListCommentary(ctx, matchID)
}

func (c *countingStore) reads() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchReads, c.commentaryList
}

// mapMirror is an in-process Mirror with the same hit/miss semantics as the
// Redis tier: empty commentary lists read as misses.
type mapMirror struct {
	mu         sync.Mutex
	matches    map[string]*model.Match
	commentary map[string][]model.Commentary
}

func newMapMirror() *mapMirror {
	return &mapMirror{
		matches:    make(map[string]*model.Match),
		commentary: make(map[string][]model.Commentary),
	}
}

func (m *mapMirror) GetMatch(_ context.Context, matchID string) (*model.Match, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return nil, false
	}
	cp := *match
	return &cp, true
}

func (m *mapMirror) PutMatch(_ context.Context, match *model.Match) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *match
	m.matches[match.MatchID] = &cp
}

func (m *mapMirror) AppendCommentary(_ context.Context, matchID string, c *model.Commentary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commentary[matchID] = append([]model.Commentary{*c}, m.commentary[matchID]...)
}

func (m *mapMirror) ListCommentary(_ context.Context, matchID string) ([]model.Commentary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.commentary[matchID]
	if len(entries) == 0 {
		return nil, false
	}
	out := make([]model.Commentary, len(entries))
	// Stored newest first; reverse into display order.
	for i, c := range entries {
		out[len(entries)-1-i] = c
	}
	return out, true
}

func (m *mapMirror) InvalidateMatch(_ context.Context, matchID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.matches, matchID)
	delete(m.commentary, matchID)
}

type testEnv struct {
	store  *countingStore
	mirror *mapMirror
	hub    *live.Hub
	router chi.Router
}

// newTestEnv creates a Service on an in-memory store with an in-process
// mirror and hub, routed the way cmd/server wires it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, store.NewMemoryStore())
}

// newTestEnvWithStore is newTestEnv with an injected durable store, for
// tests that need to fault specific store operations.
func newTestEnvWithStore(t *testing.T, st store.Store) *testEnv {
	t.Helper()

	cs := &countingStore{Store: st}
	mirror := newMapMirror()
	hub := live.NewHub()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC))
	svc := match.NewService(cs, mirror, hub, clock)

	r := chi.NewRouter()
	r.Route("/api/matches", func(r chi.Router) {
		r.Post("/start", svc.StartMatch)
		r.Get("/live", svc.ListLive)
		r.Get("/{matchID}", svc.GetMatch)
		r.Post("/{matchID}/commentary", svc.AddCommentary)
		r.Put("/{matchID}/status", svc.UpdateStatus)

		r.Post("/", svc.CreateRecord)
		r.Get("/", svc.ListRecords)
		r.Get("/records/{id}", svc.GetRecord)
		r.Put("/records/{id}", svc.UpdateRecord)
		r.Delete("/records/{id}", svc.DeleteRecord)
	})

	return &testEnv{store: cs, mirror: mirror, hub: hub, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) startMatch(t *testing.T, body map[string]any) string {
	t.Helper()
	w := e.do(t, "POST", "/api/matches/start", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("start match: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		MatchID string `json:"matchId"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.MatchID
}

var fourDigits = regexp.MustCompile(`^[1-9][0-9]{3}$`)

// --- Start match ---

func TestStartMatch_TossDecidesBatting(t *testing.T) {
	tests := []struct {
		name        string
		winner      string
		decision    string
		wantBatting string
	}{
		{"winner bats", "Chennai Super Kings", "bat", "Chennai Super Kings"},
		{"winner bowls, other side bats", "Chennai Super Kings", "bowl", "Mumbai Indians"},
		{"team a wins and bowls", "Mumbai Indians", "bowl", "Chennai Super Kings"},
		{"no toss info defaults to team a", "", "", "Mumbai Indians"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(t, "POST", "/api/matches/start", map[string]any{
				"teamA":        "Mumbai Indians",
				"teamB":        "Chennai Super Kings",
				"overs":        20,
				"tossWinner":   tt.winner,
				"tossDecision": tt.decision,
			})
			if w.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
			}

			var resp struct {
				Success bool        `json:"success"`
				MatchID string      `json:"matchId"`
				Match   model.Match `json:"match"`
			}
			json.Unmarshal(w.Body.Bytes(), &resp)

			if !resp.Success {
				t.Error("expected success true")
			}
			if !fourDigits.MatchString(resp.MatchID) {
				t.Errorf("matchId %q is not a 4-digit id", resp.MatchID)
			}
			if resp.Match.Batting != tt.wantBatting {
				t.Errorf("batting = %q, want %q", resp.Match.Batting, tt.wantBatting)
			}
			if resp.Match.Status != model.StatusLive {
				t.Errorf("status = %q, want live", resp.Match.Status)
			}
		})
	}
}

func TestStartMatch_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []map[string]any{
		{"teamB": "Chennai Super Kings", "overs": 20},
		{"teamA": "Mumbai Indians", "overs": 20},
		{"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings"},
	} {
		w := env.do(t, "POST", "/api/matches/start", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %v: expected 400, got %d", body, w.Code)
		}
	}
}

// --- Commentary ---

func TestAddCommentary_PersistsAndCounts(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	w := env.do(t, "POST", "/api/matches/"+matchID+"/commentary", map[string]any{
		"over": 1, "ball": 1, "eventType": "run", "runs": 4,
		"description": "Rohit Sharma drives beautifully through covers for four!",
		"batsman":     "Rohit Sharma", "bowler": "Deepak Chahar",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Commentary model.Commentary `json:"commentary"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Commentary.ID == "" {
		t.Error("expected a generated commentary id")
	}
	if resp.Commentary.EventType != model.EventRun || resp.Commentary.Runs != 4 {
		t.Errorf("unexpected entry: %+v", resp.Commentary)
	}
}

func TestAddCommentary_AcceptsBallZero(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	// Some scorers number deliveries from zero; only an absent ball is an
	// error.
	w := env.do(t, "POST", "/api/matches/"+matchID+"/commentary", map[string]any{
		"over": 1, "ball": 0, "eventType": "dot", "description": "defended",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Commentary model.Commentary `json:"commentary"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Commentary.Ball != 0 {
		t.Errorf("ball = %d, want 0", resp.Commentary.Ball)
	}
}

func TestAddCommentary_MatchNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/matches/9999/commentary", map[string]any{
		"over": 1, "ball": 1, "eventType": "run", "description": "four!",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAddCommentary_Validation(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	for name, body := range map[string]map[string]any{
		"missing over":        {"ball": 1, "eventType": "run", "description": "x"},
		"missing ball":        {"over": 1, "eventType": "run", "description": "x"},
		"missing eventType":   {"over": 1, "ball": 1, "description": "x"},
		"missing description": {"over": 1, "ball": 1, "eventType": "run"},
		"unknown eventType":   {"over": 1, "ball": 1, "eventType": "googly", "description": "x"},
	} {
		w := env.do(t, "POST", "/api/matches/"+matchID+"/commentary", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, w.Code)
		}
	}
}

// --- Read path ---

func TestGetMatch_ReadThrough(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	// Cold mirror: drop the write-through entry to force a store read.
	env.mirror.InvalidateMatch(context.Background(), matchID)

	w := env.do(t, "GET", "/api/matches/"+matchID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	coldReads, _ := env.store.reads()
	if coldReads != 1 {
		t.Fatalf("cold read: store reads = %d, want 1", coldReads)
	}

	var cold struct {
		Match model.Match `json:"match"`
	}
	json.Unmarshal(w.Body.Bytes(), &cold)

	// Warm mirror: the repopulated entry must absorb the second read.
	w = env.do(t, "GET", "/api/matches/"+matchID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	warmReads, _ := env.store.reads()
	if warmReads != 1 {
		t.Errorf("warm read hit the store: reads = %d, want 1", warmReads)
	}

	var warm struct {
		Match model.Match `json:"match"`
	}
	json.Unmarshal(w.Body.Bytes(), &warm)
	if warm.Match.MatchID != cold.Match.MatchID || warm.Match.Status != cold.Match.Status {
		t.Errorf("warm payload %+v differs from cold %+v", warm.Match, cold.Match)
	}
}

func TestGetMatch_EmptyCachedCommentaryFallsThrough(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	// Entry written while the mirror was cold ends up store-only.
	env.mirror.InvalidateMatch(context.Background(), matchID)
	entry := &model.Commentary{
		ID: "pre-warm", MatchID: matchID, Over: 1, Ball: 1,
		EventType: model.EventDot, Description: "defended",
	}
	if err := env.store.InsertCommentary(context.Background(), entry); err != nil {
		t.Fatalf("insert commentary: %v", err)
	}

	w := env.do(t, "GET", "/api/matches/"+matchID, nil)
	var resp struct {
		TotalCommentary int `json:"totalCommentary"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.TotalCommentary != 1 {
		t.Errorf("totalCommentary = %d, want 1 (empty cache list must not mask store entries)", resp.TotalCommentary)
	}
}

func TestGetMatch_RepopulatesCommentaryMirror(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	env.mirror.InvalidateMatch(context.Background(), matchID)
	entry := &model.Commentary{
		ID: "store-only", MatchID: matchID, Over: 1, Ball: 1,
		EventType: model.EventRun, Runs: 4, Description: "four!",
	}
	if err := env.store.InsertCommentary(context.Background(), entry); err != nil {
		t.Fatalf("insert commentary: %v", err)
	}

	// First read misses the mirror and falls through to the store.
	env.do(t, "GET", "/api/matches/"+matchID, nil)
	_, listsAfterCold := env.store.reads()

	// The fallback result must have been written back: no second store list.
	env.do(t, "GET", "/api/matches/"+matchID, nil)
	_, listsAfterWarm := env.store.reads()
	if listsAfterWarm != listsAfterCold {
		t.Errorf("warm read listed the store %d extra times, want 0",
			listsAfterWarm-listsAfterCold)
	}
}

func TestGetMatch_NotFound(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/api/matches/9999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// --- Status updates ---

func TestUpdateStatus_WriteThrough(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	w := env.do(t, "PUT", "/api/matches/"+matchID+"/status", map[string]any{
		"status": "completed",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	before, _ := env.store.reads()
	w = env.do(t, "GET", "/api/matches/"+matchID, nil)
	after, _ := env.store.reads()

	var resp struct {
		Match model.Match `json:"match"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Match.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", resp.Match.Status)
	}
	// The write-through entry must absorb the read: no cache-miss fallback.
	if after != before {
		t.Errorf("get after update cost %d extra store match reads, want 0", after-before)
	}
}

func TestUpdateStatus_LiftsSnapshotSummary(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	w := env.do(t, "PUT", "/api/matches/"+matchID+"/status", map[string]any{
		"status": "completed",
		"fullMatchJSON": map[string]any{
			"runs": 185, "wickets": 6, "ballCount": 120, "isInningsOver": true,
			"result": "Mumbai Indians won by 25 runs",
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Match model.Match `json:"match"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Match.Runs != 185 || resp.Match.Wickets != 6 || resp.Match.BallCount != 120 {
		t.Errorf("summary not lifted from snapshot: %+v", resp.Match)
	}
	if !resp.Match.IsInningsOver {
		t.Error("isInningsOver not lifted from snapshot")
	}
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	w := env.do(t, "PUT", "/api/matches/"+matchID+"/status", map[string]any{
		"status": "abandoned",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// --- Live list ---

func TestListLive_OnlyLiveMatches(t *testing.T) {
	env := newTestEnv(t)

	first := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})
	second := env.startMatch(t, map[string]any{
		"teamA": "Royal Challengers Bengaluru", "teamB": "Kolkata Knight Riders", "overs": 20,
	})

	env.do(t, "PUT", "/api/matches/"+first+"/status", map[string]any{"status": "completed"})

	w := env.do(t, "GET", "/api/matches/live", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Matches []model.Match `json:"matches"`
		Count   int           `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}
	if resp.Matches[0].MatchID != second {
		t.Errorf("live match = %q, want %q", resp.Matches[0].MatchID, second)
	}
}

func TestListLive_RejectsBadLimit(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/api/matches/live?limit=0", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// --- Broadcast integration ---

func TestBroadcast_CommentaryReachesMatchGroup(t *testing.T) {
	env := newTestEnv(t)
	matchID := env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	joined := env.hub.Subscribe()
	other := env.hub.Subscribe()
	defer env.hub.Unsubscribe(joined)
	defer env.hub.Unsubscribe(other)
	env.hub.Join(joined, matchID)
	env.hub.Join(other, "0000")

	env.do(t, "POST", "/api/matches/"+matchID+"/commentary", map[string]any{
		"over": 1, "ball": 1, "eventType": "run", "runs": 4, "description": "four!",
	})

	select {
	case msg := <-joined.Receive():
		var envlp live.Envelope
		json.Unmarshal(msg, &envlp)
		if envlp.Event != live.EventCommentaryUpdate {
			t.Errorf("event = %q, want commentary-update", envlp.Event)
		}
	default:
		t.Fatal("joined subscriber did not receive commentary-update")
	}

	select {
	case msg := <-other.Receive():
		t.Errorf("subscriber of another match received: %s", msg)
	default:
	}
}

func TestBroadcast_MatchStartedOnLiveFeed(t *testing.T) {
	env := newTestEnv(t)

	watcher := env.hub.Subscribe()
	defer env.hub.Unsubscribe(watcher)
	env.hub.JoinLive(watcher)

	env.startMatch(t, map[string]any{
		"teamA": "Mumbai Indians", "teamB": "Chennai Super Kings", "overs": 20,
	})

	select {
	case msg := <-watcher.Receive():
		var envlp live.Envelope
		json.Unmarshal(msg, &envlp)
		if envlp.Event != live.EventMatchStarted {
			t.Errorf("event = %q, want match-started", envlp.Event)
		}
	default:
		t.Fatal("live-feed subscriber did not receive match-started")
	}
}

// --- End-to-end scenario ---

func TestEndToEnd_StartScoreComplete(t *testing.T) {
	env := newTestEnv(t)

	matchID := env.startMatch(t, map[string]any{
		"teamA":        "Mumbai Indians",
		"teamB":        "Chennai Super Kings",
		"overs":        20,
		"tossWinner":   "Mumbai Indians",
		"tossDecision": "bat",
	})
	if !fourDigits.MatchString(matchID) {
		t.Fatalf("matchId %q is not a 4-digit id", matchID)
	}

	w := env.do(t, "POST", "/api/matches/"+matchID+"/commentary", map[string]any{
		"over": 1, "ball": 1, "eventType": "run", "runs": 4,
		"description": "driven through covers for four",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add commentary: expected 201, got %d", w.Code)
	}

	w = env.do(t, "GET", "/api/matches/"+matchID, nil)
	var details struct {
		Match           model.Match        `json:"match"`
		Commentary      []model.Commentary `json:"commentary"`
		TotalCommentary int                `json:"totalCommentary"`
	}
	json.Unmarshal(w.Body.Bytes(), &details)

	if details.Match.Batting != "Mumbai Indians" {
		t.Errorf("batting = %q, want Mumbai Indians", details.Match.Batting)
	}
	if details.Match.Status != model.StatusLive {
		t.Errorf("status = %q, want live", details.Match.Status)
	}
	if details.TotalCommentary != 1 {
		t.Fatalf("totalCommentary = %d, want 1", details.TotalCommentary)
	}
	if details.Commentary[0].Over != 1 || details.Commentary[0].Ball != 1 || details.Commentary[0].Runs != 4 {
		t.Errorf("unexpected stored entry: %+v", details.Commentary[0])
	}

	w = env.do(t, "PUT", "/api/matches/"+matchID+"/status", map[string]any{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status: expected 200, got %d", w.Code)
	}

	w = env.do(t, "GET", "/api/matches/"+matchID, nil)
	json.Unmarshal(w.Body.Bytes(), &details)
	if details.Match.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", details.Match.Status)
	}
}
