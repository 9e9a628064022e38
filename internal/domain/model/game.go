// Package model contains domain models passed between layers.
package model

import "time"

// EventType classifies a play-by-play entry into the generic categories the
// feature pipeline understands.
type EventType string

// Recognized event types.
const (
	EventScore        EventType = "score"
	EventThreePointer EventType = "three_pointer"
	EventDunk         EventType = "dunk"
	EventBlock        EventType = "block"
	EventMiss         EventType = "miss"
	EventFoul         EventType = "foul"
	EventTurnover     EventType = "turnover"
	EventPeriodEnd    EventType = "period_end"
	EventGameEnd      EventType = "game_end"
	EventOther        EventType = "other"
)

// GameEvent is one normalized play-by-play entry. Immutable once parsed;
// the per-game sequence is ordered chronologically and that ordering is
// authoritative.
type GameEvent struct {
	Period     int       // 1-4 regulation, 5+ overtime
	ClockSec   float64   // seconds remaining in the period
	Type       EventType // classified event category
	TeamID     string    // acting team
	PlayerID   string    // acting player, may be empty
	ScoreHome  int       // running home score after the event
	ScoreAway  int       // running away score after the event
	ScoreValue int       // points credited by this event (scoring plays only)
	Diff       int       // running score differential, home minus away
}

// FeatureVector is the fixed numeric feature schema for one game. Every
// field lies in [0,1] for a successfully extracted game.
type FeatureVector struct {
	LeadChangeCount float64 `json:"lead_change_count"`
	DunkRate        float64 `json:"dunk_rate"`
	BlockRate       float64 `json:"block_rate"`
	ThreePointRate  float64 `json:"three_point_rate"`
	MissRate        float64 `json:"miss_rate"`
	ScoringDensity  float64 `json:"scoring_density"`
	ClosenessScore  float64 `json:"closeness_score"`
	StarPowerScore  float64 `json:"star_power_score"`
	ExcitementScore float64 `json:"excitement_score"`
}

// Values returns the numeric fields in schema order, for vector math.
func (v FeatureVector) Values() []float64 {
	return []float64{
		v.LeadChangeCount,
		v.DunkRate,
		v.BlockRate,
		v.ThreePointRate,
		v.MissRate,
		v.ScoringDensity,
		v.ClosenessScore,
		v.StarPowerScore,
		v.ExcitementScore,
	}
}

// FinalScore is the last known score of a finished game.
type FinalScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// GameAttributes carries the categorical side of an extracted game.
type GameAttributes struct {
	GameID     string      `json:"game_id"`
	HomeTeamID string      `json:"home_team_id"`
	AwayTeamID string      `json:"away_team_id"`
	TopPlayers []string    `json:"top_players"`
	Datetime   time.Time   `json:"datetime"`
	FinalScore *FinalScore `json:"final_score,omitempty"`
}

// HasTeam reports whether id is one of the two participating teams.
func (a GameAttributes) HasTeam(id string) bool {
	return id != "" && (id == a.HomeTeamID || id == a.AwayTeamID)
}

// CacheEntry pairs a game's extracted features with the extraction scheme
// version they were computed under. Entries computed under a stale version
// are treated as cache misses.
type CacheEntry struct {
	Vector     FeatureVector  `json:"vector"`
	Attributes GameAttributes `json:"attributes"`
	Version    int            `json:"extraction_version"`
}
