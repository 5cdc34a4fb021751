// Package live implements the broadcast fan-out: subscribers join
// match-scoped groups or the global live-matches feed and receive named
// events published to those groups. Delivery is at-most-once with no
// backlog; a subscriber joining after a publish never sees it.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Ashu27-arc/cricket-backend/internal/metrics"
)

// Event names delivered to subscribers.
const (
	EventMatchStarted      = "match-started"
	EventCommentaryUpdate  = "commentary-update"
	EventMatchStatusUpdate = "match-status-update"
	EventMatchUpdate       = "match-update"
	EventOverCompleted     = "over-completed"
	EventInningsEnded      = "innings-ended"
	EventJoinedMatch       = "joined-match"
)

// Envelope is the wire shape of every published event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

const sendBuffer = 64

// Subscriber is one connected consumer. Messages arrive on Receive; a
// subscriber that stops draining is dropped rather than allowed to block
// a publish.
type Subscriber struct {
	hub  *Hub
	send chan []byte
}

// Receive returns the subscriber's message channel. It is closed when the
// subscriber is dropped or unsubscribed.
func (s *Subscriber) Receive() <-chan []byte {
	return s.send
}

// Hub tracks subscribers and their group membership. Each match has its
// own group keyed by public match ID; the live feed is a single global
// group. Membership is independent per subscriber and cleared in full on
// unsubscribe.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Subscriber]struct{}
	live   map[*Subscriber]struct{}
	subs   map[*Subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[*Subscriber]struct{}),
		live:   make(map[*Subscriber]struct{}),
		subs:   make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber with no group memberships.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{hub: h, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	metrics.Subscribers.Inc()
	return s
}

// Unsubscribe removes the subscriber from every group and closes its
// channel. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, s)
	delete(h.live, s)
	for matchID, group := range h.groups {
		delete(group, s)
		if len(group) == 0 {
			delete(h.groups, matchID)
		}
	}
	h.mu.Unlock()

	close(s.send)
	metrics.Subscribers.Dec()
}

// Join adds the subscriber to a match group.
func (h *Hub) Join(s *Subscriber, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s]; !ok {
		return
	}
	group, ok := h.groups[matchID]
	if !ok {
		group = make(map[*Subscriber]struct{})
		h.groups[matchID] = group
	}
	group[s] = struct{}{}
}

// Leave removes the subscriber from a match group.
func (h *Hub) Leave(s *Subscriber, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[matchID]
	if !ok {
		return
	}
	delete(group, s)
	if len(group) == 0 {
		delete(h.groups, matchID)
	}
}

// JoinLive adds the subscriber to the global live-matches feed.
func (h *Hub) JoinLive(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s]; ok {
		h.live[s] = struct{}{}
	}
}

// LeaveLive removes the subscriber from the global live-matches feed.
func (h *Hub) LeaveLive(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.live, s)
}

// Publish delivers an event to every subscriber in the match group.
func (h *Hub) Publish(matchID, event string, payload any) {
	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		slog.Error("publish marshal failed", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	stalled := deliver(h.groups[matchID], data)
	h.mu.RUnlock()

	h.drop(stalled)
	metrics.EventsPublished.WithLabelValues(event).Inc()
}

// PublishGlobal delivers an event to every live-feed subscriber.
func (h *Hub) PublishGlobal(event string, payload any) {
	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		slog.Error("publish marshal failed", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	stalled := deliver(h.live, data)
	h.mu.RUnlock()

	h.drop(stalled)
	metrics.EventsPublished.WithLabelValues(event).Inc()
}

// Send delivers a message to a single subscriber, outside any group. A
// subscriber already dropped or unsubscribed is skipped: its channel is
// closed, so sending without the membership check would panic.
func (h *Hub) Send(s *Subscriber, event string, payload any) {
	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return
	}

	h.mu.RLock()
	if _, ok := h.subs[s]; !ok {
		h.mu.RUnlock()
		return
	}
	stalled := false
	select {
	case s.send <- data:
	default:
		stalled = true
	}
	h.mu.RUnlock()

	if stalled {
		h.drop([]*Subscriber{s})
	}
}

// GroupSize reports the current membership of a match group.
func (h *Hub) GroupSize(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[matchID])
}

// deliver fans data out to a group, returning subscribers whose buffers
// were full. Callers hold at least a read lock.
func deliver(group map[*Subscriber]struct{}, data []byte) []*Subscriber {
	var stalled []*Subscriber
	for s := range group {
		select {
		case s.send <- data:
		default:
			stalled = append(stalled, s)
		}
	}
	return stalled
}

// drop unsubscribes stalled subscribers so one slow consumer cannot block
// or backlog the rest.
func (h *Hub) drop(stalled []*Subscriber) {
	for _, s := range stalled {
		slog.Warn("dropping slow subscriber")
		h.Unsubscribe(s)
	}
}
