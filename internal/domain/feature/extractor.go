// Package feature turns a normalized play-by-play sequence into the fixed
// numeric feature vector and categorical attributes used for ranking.
//
// The normalization constants are calibration parameters, not invariants:
// they encode league-typical maxima and are exposed through options so a
// deployment can tune them without touching the derivations.
package feature

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/gameselect/internal/domain/model"
	"github.com/okian/gameselect/internal/domain/pbp"
	"github.com/okian/gameselect/internal/domain/scoring"
)

// ExtractionVersion tags cache entries with the feature scheme they were
// computed under. Any change to the schema or the derivations below must
// increment it; stale entries are then treated as cache misses.
const ExtractionVersion = 3

// Default normalization constants, calibrated on league-typical games.
const (
	defaultLeadChangeMax    = 35.0  // lead changes in an extreme game
	defaultClosenessCutoff  = 40.0  // margin (points) beyond which closeness is 0
	defaultStarScoreMax     = 150.0 // weighted star involvement ceiling
	defaultRefDunkRate      = 0.07  // dunks per event in a dunk-heavy game
	defaultRefBlockRate     = 0.07  // blocks per event in a block-heavy game
	defaultRefThreePtRate   = 0.11  // made threes per event in a hot shooting game
	defaultRefMissRate      = 0.38  // misses per event in a bricky game
	defaultRefDensity       = 0.125 // points per game second in a shootout
	defaultTopPlayerCount   = 5
	defaultMinAppearances   = 10 // events a player must act in to count as a top player
	defaultUnknownStarValue = 1.0
)

// Roster maps player IDs to an importance weight, e.g. a season scoring
// average or a precomputed popularity rank. A nil Roster weighs every
// player equally, so star power reduces to pure event involvement.
type Roster map[string]float64

// Importance returns the weight for a player, falling back to def for
// players absent from the roster lookup.
func (r Roster) Importance(playerID string, def float64) float64 {
	if w, ok := r[playerID]; ok {
		return w
	}
	return def
}

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithLeadChangeMax sets the lead-change normalization ceiling.
func WithLeadChangeMax(max float64) Option {
	return func(e *Extractor) {
		if max > 0 {
			e.leadChangeMax = max
		}
	}
}

// WithClosenessCutoff sets the margin beyond which closeness maps to 0.
func WithClosenessCutoff(cutoff float64) Option {
	return func(e *Extractor) {
		if cutoff > 0 {
			e.closenessCutoff = cutoff
		}
	}
}

// WithStarScoreMax sets the star-power normalization ceiling.
func WithStarScoreMax(max float64) Option {
	return func(e *Extractor) {
		if max > 0 {
			e.starScoreMax = max
		}
	}
}

// WithReferenceRates sets the per-event reference rates used to normalize
// dunk, block, three-point and miss counts.
func WithReferenceRates(dunk, block, threePt, miss float64) Option {
	return func(e *Extractor) {
		if dunk > 0 {
			e.refDunkRate = dunk
		}
		if block > 0 {
			e.refBlockRate = block
		}
		if threePt > 0 {
			e.refThreePtRate = threePt
		}
		if miss > 0 {
			e.refMissRate = miss
		}
	}
}

// WithReferenceDensity sets the points-per-second reference for scoring
// density normalization.
func WithReferenceDensity(density float64) Option {
	return func(e *Extractor) {
		if density > 0 {
			e.refDensity = density
		}
	}
}

// WithTopPlayers sets how many players qualify as stars per game and the
// minimum number of events a player must appear in.
func WithTopPlayers(count, minAppearances int) Option {
	return func(e *Extractor) {
		if count > 0 {
			e.topPlayerCount = count
		}
		if minAppearances > 0 {
			e.minAppearances = minAppearances
		}
	}
}

// Extractor derives one FeatureVector and GameAttributes per game.
type Extractor struct {
	excite *scoring.Scorer

	leadChangeMax   float64
	closenessCutoff float64
	starScoreMax    float64
	refDunkRate     float64
	refBlockRate    float64
	refThreePtRate  float64
	refMissRate     float64
	refDensity      float64
	topPlayerCount  int
	minAppearances  int
	unknownStar     float64
}

// NewExtractor creates an extractor. The excitement scorer is required so
// the derived excitement score can be stored on the vector and participate
// in similarity.
func NewExtractor(excite *scoring.Scorer, opts ...Option) *Extractor {
	e := &Extractor{
		excite:          excite,
		leadChangeMax:   defaultLeadChangeMax,
		closenessCutoff: defaultClosenessCutoff,
		starScoreMax:    defaultStarScoreMax,
		refDunkRate:     defaultRefDunkRate,
		refBlockRate:    defaultRefBlockRate,
		refThreePtRate:  defaultRefThreePtRate,
		refMissRate:     defaultRefMissRate,
		refDensity:      defaultRefDensity,
		topPlayerCount:  defaultTopPlayerCount,
		minAppearances:  defaultMinAppearances,
		unknownStar:     defaultUnknownStarValue,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract derives the feature vector and attributes for one game from its
// normalized event sequence and a roster importance lookup. Deterministic
// for a fixed input and configuration.
//
// Fails with ErrDegenerateGame for games with zero events or zero elapsed
// time, and with ErrNonFinite if any derivation produces NaN or infinity.
func (e *Extractor) Extract(gameID string, tipoff time.Time, events []model.GameEvent, roster Roster) (model.FeatureVector, model.GameAttributes, error) {
	if len(events) == 0 {
		return model.FeatureVector{}, model.GameAttributes{}, fmt.Errorf("game %s has no events: %w", gameID, ErrDegenerateGame)
	}

	elapsed := elapsedSeconds(events)
	if elapsed <= 0 {
		return model.FeatureVector{}, model.GameAttributes{}, fmt.Errorf("game %s has zero elapsed time: %w", gameID, ErrDegenerateGame)
	}

	total := float64(len(events))
	counts := countByType(events)

	topPlayers, starRaw := e.starPower(events, roster)

	vec := model.FeatureVector{
		LeadChangeCount: clamp01(float64(countLeadChanges(events)) / e.leadChangeMax),
		DunkRate:        clamp01(float64(counts[model.EventDunk]) / total / e.refDunkRate),
		BlockRate:       clamp01(float64(counts[model.EventBlock]) / total / e.refBlockRate),
		ThreePointRate:  clamp01(float64(counts[model.EventThreePointer]) / total / e.refThreePtRate),
		MissRate:        clamp01(float64(counts[model.EventMiss]) / total / e.refMissRate),
		ScoringDensity:  clamp01(totalPoints(events) / elapsed / e.refDensity),
		ClosenessScore:  e.closeness(events),
		StarPowerScore:  clamp01(starRaw / e.starScoreMax),
	}
	vec.ExcitementScore = e.excite.Score(vec)

	for name, v := range map[string]float64{
		"lead_change_count": vec.LeadChangeCount,
		"dunk_rate":         vec.DunkRate,
		"block_rate":        vec.BlockRate,
		"three_point_rate":  vec.ThreePointRate,
		"miss_rate":         vec.MissRate,
		"scoring_density":   vec.ScoringDensity,
		"closeness_score":   vec.ClosenessScore,
		"star_power_score":  vec.StarPowerScore,
		"excitement_score":  vec.ExcitementScore,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.FeatureVector{}, model.GameAttributes{}, fmt.Errorf("game %s: %s: %w", gameID, name, ErrNonFinite)
		}
	}

	home, away := teamIDs(events)
	attrs := model.GameAttributes{
		GameID:     gameID,
		HomeTeamID: home,
		AwayTeamID: away,
		TopPlayers: topPlayers,
		Datetime:   tipoff,
		FinalScore: finalScore(events),
	}
	return vec, attrs, nil
}

// countLeadChanges counts the sign flips of the running score differential.
// Ties carry no leader, so a flip is only counted between two opposite
// non-zero signs.
func countLeadChanges(events []model.GameEvent) int {
	flips := 0
	prev := 0
	for _, ev := range events {
		sign := 0
		switch {
		case ev.Diff > 0:
			sign = 1
		case ev.Diff < 0:
			sign = -1
		}
		if sign != 0 {
			if prev != 0 && sign != prev {
				flips++
			}
			prev = sign
		}
	}
	return flips
}

func countByType(events []model.GameEvent) map[model.EventType]int {
	counts := make(map[model.EventType]int, 8)
	for _, ev := range events {
		counts[ev.Type]++
	}
	return counts
}

func totalPoints(events []model.GameEvent) float64 {
	last := events[len(events)-1]
	return float64(last.ScoreHome + last.ScoreAway)
}

func elapsedSeconds(events []model.GameEvent) float64 {
	first := events[0]
	last := events[len(events)-1]
	return pbp.Elapsed(last.Period, last.ClockSec) - pbp.Elapsed(first.Period, first.ClockSec)
}

// closeness averages the absolute score margin at period boundaries and
// maps it linearly onto [0,1]: margin 0 is 1.0, margins at or beyond the
// cutoff are 0.0. Games without period-boundary events fall back to the
// final event's margin.
func (e *Extractor) closeness(events []model.GameEvent) float64 {
	var sum float64
	var n int
	for _, ev := range events {
		if ev.Type == model.EventPeriodEnd || ev.Type == model.EventGameEnd {
			sum += math.Abs(float64(ev.Diff))
			n++
		}
	}
	margin := math.Abs(float64(events[len(events)-1].Diff))
	if n > 0 {
		margin = sum / float64(n)
	}
	return clamp01(1 - margin/e.closenessCutoff)
}

// starPower identifies the game's top players by event involvement and sums
// their roster importance weighted by how often they appeared.
func (e *Extractor) starPower(events []model.GameEvent, roster Roster) ([]string, float64) {
	appearances := make(map[string]int)
	for _, ev := range events {
		if ev.PlayerID != "" {
			appearances[ev.PlayerID]++
		}
	}

	type involvement struct {
		playerID string
		count    int
	}
	candidates := make([]involvement, 0, len(appearances))
	for id, c := range appearances {
		if c >= e.minAppearances {
			candidates = append(candidates, involvement{playerID: id, count: c})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].playerID < candidates[j].playerID
	})
	if len(candidates) > e.topPlayerCount {
		candidates = candidates[:e.topPlayerCount]
	}

	top := make([]string, 0, len(candidates))
	var star float64
	for _, c := range candidates {
		top = append(top, c.playerID)
		star += float64(c.count) * roster.Importance(c.playerID, e.unknownStar)
	}
	return top, star
}

// teamIDs returns the first two distinct team identifiers in event order.
func teamIDs(events []model.GameEvent) (string, string) {
	var first, second string
	for _, ev := range events {
		switch {
		case ev.TeamID == "" || ev.TeamID == first:
		case first == "":
			first = ev.TeamID
		case second == "":
			second = ev.TeamID
		}
		if second != "" {
			break
		}
	}
	return first, second
}

func finalScore(events []model.GameEvent) *model.FinalScore {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == model.EventGameEnd {
			return &model.FinalScore{Home: events[i].ScoreHome, Away: events[i].ScoreAway}
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
