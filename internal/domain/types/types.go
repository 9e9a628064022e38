// Package types contains common types shared between the service and the
// HTTP API.
package types

import "time"

// GameSummary describes one catalog game as returned by the API.
type GameSummary struct {
	Rank      int       `json:"rank,omitempty"`
	GameID    string    `json:"game_id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Venue     string    `json:"venue,omitempty"`
	Tipoff    time.Time `json:"tipoff"`
	HomeScore *int      `json:"home_score,omitempty"`
	AwayScore *int      `json:"away_score,omitempty"`
}

// Recommendation is the ranked result of a recommendation request.
type Recommendation struct {
	Mode     string        `json:"mode"`
	Games    []GameSummary `json:"games"`
	Excluded []string      `json:"excluded,omitempty"`
}
