// Package similarity scores a candidate game against a set of liked games,
// combining cosine similarity over the numeric features with weighted
// categorical overlap of teams and star players.
package similarity

import (
	"fmt"
	"math"

	"github.com/okian/gameselect/internal/domain/model"
)

const weightSumTolerance = 1e-9

// Weights is the validated similarity configuration. Cosine and Overlap
// blend the two terms and must sum to 1; Team and Player split the
// categorical term and must sum to 1.
type Weights struct {
	Cosine  float64 `koanf:"cosine"`
	Overlap float64 `koanf:"overlap"`
	Team    float64 `koanf:"team"`
	Player  float64 `koanf:"player"`
}

// DefaultWeights leans on the numeric features while still rewarding
// shared teams and players.
func DefaultWeights() Weights {
	return Weights{Cosine: 0.7, Overlap: 0.3, Team: 0.5, Player: 0.5}
}

// Validate checks the weight invariants once at configuration load.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"cosine": w.Cosine, "overlap": w.Overlap,
		"team": w.Team, "player": w.Player,
	} {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("%s must be non-negative: %w", name, ErrInvalidWeightConfig)
		}
	}
	if math.Abs(w.Cosine+w.Overlap-1) > weightSumTolerance {
		return fmt.Errorf("cosine+overlap sum to %v, want 1: %w", w.Cosine+w.Overlap, ErrInvalidWeightConfig)
	}
	if math.Abs(w.Team+w.Player-1) > weightSumTolerance {
		return fmt.Errorf("team+player sum to %v, want 1: %w", w.Team+w.Player, ErrInvalidWeightConfig)
	}
	return nil
}

// Liked is one liked game's extracted state.
type Liked struct {
	Vector     model.FeatureVector
	Attributes model.GameAttributes
}

// Engine scores candidates against an immutable liked set. Build one Engine
// per request; it precomputes the reference vector and the liked teams and
// players, so batch scoring across candidates is read-only and safe to run
// concurrently.
type Engine struct {
	weights   Weights
	reference []float64
	teams     map[string]struct{}
	players   map[string]struct{}
}

// NewEngine aggregates the liked set into a reference vector (elementwise
// mean) and indexes the liked teams and top players for overlap scoring.
func NewEngine(w Weights, liked []Liked) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if len(liked) == 0 {
		return nil, ErrEmptyLikedSet
	}

	dim := len(liked[0].Vector.Values())
	reference := make([]float64, dim)
	teams := make(map[string]struct{}, len(liked)*2)
	players := make(map[string]struct{})
	for _, l := range liked {
		for i, v := range l.Vector.Values() {
			reference[i] += v
		}
		if l.Attributes.HomeTeamID != "" {
			teams[l.Attributes.HomeTeamID] = struct{}{}
		}
		if l.Attributes.AwayTeamID != "" {
			teams[l.Attributes.AwayTeamID] = struct{}{}
		}
		for _, p := range l.Attributes.TopPlayers {
			players[p] = struct{}{}
		}
	}
	for i := range reference {
		reference[i] /= float64(len(liked))
	}

	return &Engine{weights: w, reference: reference, teams: teams, players: players}, nil
}

// Score returns the combined similarity of one candidate to the liked set,
// in [0,1].
func (e *Engine) Score(vec model.FeatureVector, attrs model.GameAttributes) float64 {
	cos := cosine(e.reference, vec.Values())
	overlap := e.weights.Team*e.teamOverlap(attrs) + e.weights.Player*e.playerOverlap(attrs)
	score := e.weights.Cosine*cos + e.weights.Overlap*overlap
	return math.Max(0, math.Min(1, score))
}

// teamOverlap is 1 when the candidate shares a team with any liked game.
func (e *Engine) teamOverlap(attrs model.GameAttributes) float64 {
	if _, ok := e.teams[attrs.HomeTeamID]; ok && attrs.HomeTeamID != "" {
		return 1
	}
	if _, ok := e.teams[attrs.AwayTeamID]; ok && attrs.AwayTeamID != "" {
		return 1
	}
	return 0
}

// playerOverlap is the fraction of the candidate's top players that appear
// in any liked game's top players.
func (e *Engine) playerOverlap(attrs model.GameAttributes) float64 {
	if len(attrs.TopPlayers) == 0 {
		return 0
	}
	shared := 0
	for _, p := range attrs.TopPlayers {
		if _, ok := e.players[p]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(attrs.TopPlayers))
}

// cosine computes cosine similarity between two equal-length vectors.
// A zero vector against anything is defined as 0; this never divides by
// zero.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
