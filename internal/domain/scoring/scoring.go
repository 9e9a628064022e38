// Package scoring computes the standalone excitement score for a game
// feature vector. The score is the fallback ranking criterion when no liked
// games are available, and it is also stored on the vector so it can
// participate in similarity.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/gameselect/internal/domain/model"
)

// weightSumTolerance bounds the accepted floating-point drift when checking
// that weights sum to one.
const weightSumTolerance = 1e-9

// Weights is the validated excitement configuration. Each weight is
// non-negative and the six weights must sum to 1.
type Weights struct {
	LeadChanges    float64 `koanf:"lead_changes"`
	Closeness      float64 `koanf:"closeness"`
	DunkRate       float64 `koanf:"dunk_rate"`
	BlockRate      float64 `koanf:"block_rate"`
	ThreePointRate float64 `koanf:"three_point_rate"`
	ScoringDensity float64 `koanf:"scoring_density"`
}

// DefaultWeights spreads the emphasis evenly across the six action features.
func DefaultWeights() Weights {
	const even = 1.0 / 6
	return Weights{
		LeadChanges:    even,
		Closeness:      even,
		DunkRate:       even,
		BlockRate:      even,
		ThreePointRate: even,
		ScoringDensity: even,
	}
}

// Validate checks the weight invariants. Validation happens once at
// configuration load, not per call.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"lead_changes":     w.LeadChanges,
		"closeness":        w.Closeness,
		"dunk_rate":        w.DunkRate,
		"block_rate":       w.BlockRate,
		"three_point_rate": w.ThreePointRate,
		"scoring_density":  w.ScoringDensity,
	} {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("%s must be non-negative: %w", name, ErrInvalidWeightConfig)
		}
	}
	sum := w.LeadChanges + w.Closeness + w.DunkRate + w.BlockRate + w.ThreePointRate + w.ScoringDensity
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights sum to %v, want 1: %w", sum, ErrInvalidWeightConfig)
	}
	return nil
}

// Scorer maps a feature vector to one excitement scalar in [0,1].
type Scorer struct {
	weights Weights
}

// NewScorer builds a scorer from validated weights.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Score returns the fixed-weight linear combination of the action features.
// With weights summing to 1 and every feature in [0,1] the result stays in
// [0,1]; it is clamped against float drift at the boundaries.
func (s *Scorer) Score(v model.FeatureVector) float64 {
	score := s.weights.LeadChanges*v.LeadChangeCount +
		s.weights.Closeness*v.ClosenessScore +
		s.weights.DunkRate*v.DunkRate +
		s.weights.BlockRate*v.BlockRate +
		s.weights.ThreePointRate*v.ThreePointRate +
		s.weights.ScoringDensity*v.ScoringDensity
	return math.Max(0, math.Min(1, score))
}
