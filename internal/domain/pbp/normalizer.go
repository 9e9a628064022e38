// Package pbp parses raw play-by-play rows into typed, validated game
// events. Normalization is a pure function of its input: the same rows
// always produce the same event sequence.
package pbp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/gameselect/internal/domain/model"
)

// Provider event type IDs that represent dunk attempts.
var dunkTypeIDs = map[string]struct{}{
	"96": {}, "115": {}, "116": {}, "118": {},
	"138": {}, "150": {}, "151": {}, "152": {},
}

// Provider event type IDs for period boundaries.
const (
	periodEndTypeID = "412"
	gameEndTypeID   = "402"
	foulTypeText    = "foul"
	turnoverTypeTxt = "turnover"
)

// RawRow is one play-by-play entry as delivered by the data provider,
// before typing and validation.
type RawRow struct {
	Period       int
	Clock        string // "MM:SS" or plain seconds, e.g. "24.7"
	TypeID       string
	TypeText     string
	Text         string
	TeamID       string
	PlayerID     string
	ScoringPlay  bool
	ShootingPlay bool
	ScoreValue   int
	HomeScore    int
	AwayScore    int
}

// Normalize converts an ordered sequence of raw rows for one game into
// typed events with the running score differential attached to each.
//
// It fails with ErrEmptyGame when rows is empty, and with ErrMalformedEvent
// when a row lacks a required field or the sequence is not in monotonic
// non-decreasing game-time order.
func Normalize(rows []RawRow) ([]model.GameEvent, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyGame
	}

	events := make([]model.GameEvent, 0, len(rows))
	prevElapsed := -1.0
	for i, row := range rows {
		if row.Period < 1 {
			return nil, fmt.Errorf("row %d: missing period: %w", i, ErrMalformedEvent)
		}
		if row.TypeID == "" && row.TypeText == "" {
			return nil, fmt.Errorf("row %d: missing event type: %w", i, ErrMalformedEvent)
		}
		if row.HomeScore < 0 || row.AwayScore < 0 {
			return nil, fmt.Errorf("row %d: negative score: %w", i, ErrMalformedEvent)
		}
		clockSec, err := clockToSeconds(row.Clock)
		if err != nil {
			return nil, fmt.Errorf("row %d: %v: %w", i, err, ErrMalformedEvent)
		}
		if clockSec > float64(PeriodSeconds(row.Period)) {
			return nil, fmt.Errorf("row %d: clock exceeds period length: %w", i, ErrMalformedEvent)
		}

		elapsed := Elapsed(row.Period, clockSec)
		if elapsed < prevElapsed {
			return nil, fmt.Errorf("row %d: timestamp precedes previous event: %w", i, ErrMalformedEvent)
		}
		prevElapsed = elapsed

		events = append(events, model.GameEvent{
			Period:     row.Period,
			ClockSec:   clockSec,
			Type:       classify(row),
			TeamID:     row.TeamID,
			PlayerID:   row.PlayerID,
			ScoreHome:  row.HomeScore,
			ScoreAway:  row.AwayScore,
			ScoreValue: row.ScoreValue,
			Diff:       row.HomeScore - row.AwayScore,
		})
	}
	return events, nil
}

// classify maps a raw row onto the generic event categories. Dunks, period
// boundaries and the end-of-game marker come from provider type IDs; blocks
// are recognized from the play description; three pointers from the score
// value of a made shot.
func classify(row RawRow) model.EventType {
	switch row.TypeID {
	case periodEndTypeID:
		return model.EventPeriodEnd
	case gameEndTypeID:
		return model.EventGameEnd
	}
	if _, ok := dunkTypeIDs[row.TypeID]; ok {
		return model.EventDunk
	}
	if strings.Contains(strings.ToLower(row.Text), "blocks") {
		return model.EventBlock
	}
	if row.ScoringPlay {
		if row.ScoreValue == 3 {
			return model.EventThreePointer
		}
		return model.EventScore
	}
	if row.ShootingPlay {
		return model.EventMiss
	}
	lowered := strings.ToLower(row.TypeText)
	if strings.Contains(lowered, foulTypeText) {
		return model.EventFoul
	}
	if strings.Contains(lowered, turnoverTypeTxt) {
		return model.EventTurnover
	}
	return model.EventOther
}

// Regulation and overtime period lengths in seconds.
const (
	regulationPeriods    = 4
	regulationPeriodSecs = 720
	overtimePeriodSecs   = 300
)

// PeriodSeconds returns the length of the given period in seconds.
func PeriodSeconds(period int) int {
	if period > regulationPeriods {
		return overtimePeriodSecs
	}
	return regulationPeriodSecs
}

// Elapsed converts (period, seconds remaining) into absolute game seconds
// from tip-off.
func Elapsed(period int, clockSec float64) float64 {
	total := 0
	for p := 1; p < period; p++ {
		total += PeriodSeconds(p)
	}
	return float64(total) + float64(PeriodSeconds(period)) - clockSec
}

// clockToSeconds parses a period clock. Accepts "MM:SS" and bare seconds
// such as "24.7"; an empty clock is malformed.
func clockToSeconds(clock string) (float64, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return 0, fmt.Errorf("missing clock")
	}
	if minutes, seconds, ok := strings.Cut(clock, ":"); ok {
		m, err := strconv.Atoi(minutes)
		if err != nil {
			return 0, fmt.Errorf("bad clock minutes %q", clock)
		}
		s, err := strconv.Atoi(seconds)
		if err != nil {
			return 0, fmt.Errorf("bad clock seconds %q", clock)
		}
		if m < 0 || s < 0 || s >= 60 {
			return 0, fmt.Errorf("clock out of range %q", clock)
		}
		return float64(m*60 + s), nil
	}
	sec, err := strconv.ParseFloat(clock, 64)
	if err != nil || sec < 0 {
		return 0, fmt.Errorf("bad clock %q", clock)
	}
	return sec, nil
}
