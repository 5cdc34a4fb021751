// Package commentary synthesizes human-readable text from ball events and
// match state: per-ball sentences, team milestone announcements, over
// summaries, and innings closings. Generation is pure given its injected
// clock and random source, and never fails: unrecognized categories fall
// back to the dot-ball family.
package commentary

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Ashu27-arc/cricket-backend/internal/model"
)

const ballsPerOver = 6

// BallEvent is one delivery as reported by the upstream scorer.
type BallEvent struct {
	Runs            int                 `json:"runs"`
	IsWicket        bool                `json:"isWicket"`
	Extra           *model.ExtraDetail  `json:"extra,omitempty"`
	WicketDetails   *model.WicketDetail `json:"wicketDetails,omitempty"`
	BatsmanOnStrike string              `json:"batsmanOnStrike"`
	NonStriker      string              `json:"nonStriker"`
	Bowler          string              `json:"bowler,omitempty"`
	NewStriker      string              `json:"newStriker,omitempty"`
	NewNonStriker   string              `json:"newNonStriker,omitempty"`
}

// MatchState is the summary snapshot the generator reads. Totals are the
// values after the delivery being described.
type MatchState struct {
	TeamA         string `json:"teamA"`
	TeamB         string `json:"teamB"`
	Batting       string `json:"batting"`
	Runs          int    `json:"runs"`
	Wickets       int    `json:"wickets"`
	BallCount     int    `json:"ballCount"`
	Striker       string `json:"striker,omitempty"`
	NonStriker    string `json:"nonStriker,omitempty"`
	IsInningsOver bool   `json:"isInningsOver"`
}

// Line is one synthesized commentary sentence with positional metadata so
// consumers can order or deduplicate entries.
type Line struct {
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	BallNumber int       `json:"ballNumber"`
	Over       int       `json:"over"`
	BallInOver int       `json:"ballInOver"`
}

// Batsmen is the striker pair after an over change.
type Batsmen struct {
	Striker    string `json:"striker"`
	NonStriker string `json:"nonStriker"`
}

// OverSummary describes a just-completed over.
type OverSummary struct {
	Text             string    `json:"text"`
	Timestamp        time.Time `json:"timestamp"`
	Type             string    `json:"type"`
	OverNumber       int       `json:"overNumber"`
	OverRuns         int       `json:"overRuns"`
	OverWickets      int       `json:"overWickets"`
	BatsmenAfterOver Batsmen   `json:"batsmenAfterOver"`
}

// InningsSummary closes out an innings.
type InningsSummary struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// Generator synthesizes commentary. The clock and random source are
// injected so tests can pin both.
type Generator struct {
	clock clockwork.Clock
	intN  func(n int) int
}

// NewGenerator creates a generator with the real random source.
func NewGenerator(clock clockwork.Clock) *Generator {
	return &Generator{clock: clock, intN: rand.IntN}
}

// NewGeneratorWithRand creates a generator with an injected random source.
func NewGeneratorWithRand(clock clockwork.Clock, intN func(n int) int) *Generator {
	return &Generator{clock: clock, intN: intN}
}

// Ball produces the sentence for one delivery, with a milestone sentence
// appended when the team total just crossed a threshold.
func (g *Generator) Ball(ev BallEvent, st MatchState) Line {
	var text string

	switch {
	case ev.IsWicket:
		text = strings.ReplaceAll(g.pick(wicketTemplates), "{batsman}", ev.BatsmanOnStrike)
		text = strings.ReplaceAll(text, "{runs}", strconv.Itoa(st.Runs))

	case ev.Extra != nil:
		family, ok := extraTemplates[ev.Extra.Type]
		if !ok {
			family = runTemplates[0]
		}
		text = strings.ReplaceAll(g.pick(family), "{batsman}", ev.BatsmanOnStrike)
		text = strings.ReplaceAll(text, "{bowler}", bowlerName(ev.Bowler))

	default:
		family, ok := runTemplates[ev.Runs]
		if !ok {
			family = runTemplates[0]
		}
		text = strings.ReplaceAll(g.pick(family), "{batsman}", ev.BatsmanOnStrike)
		text = strings.ReplaceAll(text, "{bowler}", bowlerName(ev.Bowler))
	}

	if milestone := checkMilestone(st, ev.Runs); milestone != "" {
		if text != "" {
			text += " "
		}
		text += milestone
	}

	return Line{
		Text:       text,
		Timestamp:  g.clock.Now(),
		BallNumber: st.BallCount + 1,
		Over:       st.BallCount/ballsPerOver + 1,
		BallInOver: st.BallCount%ballsPerOver + 1,
	}
}

// checkMilestone returns the milestone sentence for the highest threshold
// the team total crossed with this delivery, or "" when none was crossed.
func checkMilestone(st MatchState, runsScored int) string {
	for _, threshold := range milestoneThresholds {
		if st.Runs >= threshold && st.Runs-runsScored < threshold {
			return strings.ReplaceAll(teamMilestones[threshold], "{team}", st.Batting)
		}
	}
	return ""
}

// OverComplete summarizes a just-completed over from its ordered deliveries
// and reports the incoming striker pair.
func (g *Generator) OverComplete(deliveries []BallEvent, overNumber int, st MatchState, newStriker, newNonStriker string) OverSummary {
	overRuns, overWickets := 0, 0
	for _, b := range deliveries {
		overRuns += b.Runs
		if b.Extra != nil {
			overRuns += b.Extra.Value
		}
		if b.IsWicket {
			overWickets++
		}
	}

	if newStriker == "" {
		newStriker = st.Striker
	}
	if newNonStriker == "" {
		newNonStriker = st.NonStriker
	}

	text := g.pick(overCompleteTemplates)
	text = strings.ReplaceAll(text, "{over}", strconv.Itoa(overNumber))
	text = strings.ReplaceAll(text, "{team}", st.Batting)
	text = strings.ReplaceAll(text, "{runs}", strconv.Itoa(st.Runs))
	text = strings.ReplaceAll(text, "{wickets}", strconv.Itoa(st.Wickets))
	text = strings.ReplaceAll(text, "{newStriker}", newStriker)
	text = strings.ReplaceAll(text, "{newNonStriker}", newNonStriker)

	return OverSummary{
		Text:             text,
		Timestamp:        g.clock.Now(),
		Type:             "over-summary",
		OverNumber:       overNumber,
		OverRuns:         overRuns,
		OverWickets:      overWickets,
		BatsmenAfterOver: Batsmen{Striker: newStriker, NonStriker: newNonStriker},
	}
}

// InningsEnd produces the closing sentence for a finished innings.
func (g *Generator) InningsEnd(st MatchState) InningsSummary {
	text := g.pick(inningsEndTemplates)
	text = strings.ReplaceAll(text, "{team}", st.Batting)
	text = strings.ReplaceAll(text, "{runs}", strconv.Itoa(st.Runs))
	text = strings.ReplaceAll(text, "{wickets}", strconv.Itoa(st.Wickets))

	return InningsSummary{
		Text:      text,
		Timestamp: g.clock.Now(),
		Type:      "innings-end",
	}
}

func (g *Generator) pick(family []string) string {
	return family[g.intN(len(family))]
}

func bowlerName(name string) string {
	if name == "" {
		return "Bowler"
	}
	return name
}
