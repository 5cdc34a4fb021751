// Package model defines the core domain types shared across the scoring
// backend. The authoritative scoring state lives in FullState, an opaque
// JSON payload produced by the upstream scorer. This service never
// interprets it beyond lifting a few summary fields.
package model

import (
	"encoding/json"
	"time"
)

// Match lifecycle statuses.
const (
	StatusUpcoming  = "upcoming"
	StatusLive      = "live"
	StatusCompleted = "completed"
)

// ValidStatus reports whether s is one of the defined lifecycle statuses.
func ValidStatus(s string) bool {
	return s == StatusUpcoming || s == StatusLive || s == StatusCompleted
}

// Match is one cricket match. ID is the storage-internal identifier;
// MatchID is the public 4-digit identifier clients address matches by.
// MatchID is unique and immutable once assigned.
type Match struct {
	ID            string          `json:"id"`
	MatchID       string          `json:"matchId"`
	TeamA         string          `json:"teamA"`
	TeamB         string          `json:"teamB"`
	Batting       string          `json:"batting"`
	Overs         int             `json:"overs"`
	Runs          int             `json:"runs"`
	Wickets       int             `json:"wickets"`
	BallCount     int             `json:"ballCount"`
	IsInningsOver bool            `json:"isInningsOver"`
	Status        string          `json:"status"`
	FullState     json.RawMessage `json:"fullMatchJSON,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Commentary event types.
const (
	EventRun      = "run"
	EventWicket   = "wicket"
	EventWide     = "wide"
	EventNoBall   = "no-ball"
	EventBye      = "bye"
	EventLegBye   = "leg-bye"
	EventDot      = "dot"
	EventBoundary = "boundary"
	EventSix      = "six"
)

// ValidEventType reports whether t is a recognized ball event type.
func ValidEventType(t string) bool {
	switch t {
	case EventRun, EventWicket, EventWide, EventNoBall, EventBye,
		EventLegBye, EventDot, EventBoundary, EventSix:
		return true
	}
	return false
}

// ExtraDetail describes runs awarded not off the bat.
type ExtraDetail struct {
	Type  string `json:"type,omitempty"`
	Value int    `json:"value,omitempty"`
}

// WicketDetail describes a dismissal.
type WicketDetail struct {
	Type    string `json:"type,omitempty"`
	Fielder string `json:"fielder,omitempty"`
}

// Commentary is one ball's worth of commentary for a match, identified by
// its (over, ball) position. Entries are immutable once created and are
// displayed in (over, ball) order.
type Commentary struct {
	ID            string        `json:"id"`
	MatchID       string        `json:"matchId"`
	Over          int           `json:"over"`
	Ball          int           `json:"ball"`
	EventType     string        `json:"eventType"`
	Runs          int           `json:"runs"`
	Description   string        `json:"description"`
	Batsman       string        `json:"batsman,omitempty"`
	Bowler        string        `json:"bowler,omitempty"`
	Extras        *ExtraDetail  `json:"extras,omitempty"`
	WicketDetails *WicketDetail `json:"wicketDetails,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}
