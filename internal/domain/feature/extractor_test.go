package feature

import (
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gameselect/internal/domain/model"
	"github.com/okian/gameselect/internal/domain/scoring"
)

func newScorer(t *testing.T) *scoring.Scorer {
	t.Helper()
	s, err := scoring.NewScorer(scoring.DefaultWeights())
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}
	return s
}

// closeGame is a two-period game that changes leads twice and ends 4-3.
func closeGame() []model.GameEvent {
	return []model.GameEvent{
		{Period: 1, ClockSec: 700, Type: model.EventDunk, TeamID: "t-bos", PlayerID: "p-1", ScoreHome: 2, ScoreAway: 0, ScoreValue: 2, Diff: 2},
		{Period: 1, ClockSec: 650, Type: model.EventThreePointer, TeamID: "t-lal", PlayerID: "p-2", ScoreHome: 2, ScoreAway: 3, ScoreValue: 3, Diff: -1},
		{Period: 1, ClockSec: 600, Type: model.EventMiss, TeamID: "t-bos", PlayerID: "p-1", ScoreHome: 2, ScoreAway: 3, Diff: -1},
		{Period: 1, ClockSec: 0, Type: model.EventPeriodEnd, ScoreHome: 2, ScoreAway: 3, Diff: -1},
		{Period: 2, ClockSec: 500, Type: model.EventScore, TeamID: "t-bos", PlayerID: "p-1", ScoreHome: 4, ScoreAway: 3, ScoreValue: 2, Diff: 1},
		{Period: 2, ClockSec: 200, Type: model.EventBlock, TeamID: "t-lal", PlayerID: "p-2", ScoreHome: 4, ScoreAway: 3, Diff: 1},
		{Period: 2, ClockSec: 0, Type: model.EventGameEnd, ScoreHome: 4, ScoreAway: 3, Diff: 1},
	}
}

func TestExtract(t *testing.T) {
	tipoff := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

	Convey("Given an extractor with default configuration", t, func() {
		ex := NewExtractor(newScorer(t))

		Convey("When extracting a well-formed game", func() {
			vec, attrs, err := ex.Extract("g-1", tipoff, closeGame(), nil)

			Convey("Then it should succeed", func() {
				So(err, ShouldBeNil)
			})

			Convey("Then every feature should lie in [0,1]", func() {
				for _, v := range vec.Values() {
					So(v, ShouldBeBetweenOrEqual, 0, 1)
				}
			})

			Convey("Then the excitement score should match the scorer applied to the vector", func() {
				So(vec.ExcitementScore, ShouldAlmostEqual, newScorer(t).Score(vec), 1e-12)
			})

			Convey("Then attributes should carry teams, tipoff and final score", func() {
				So(attrs.GameID, ShouldEqual, "g-1")
				So(attrs.HomeTeamID, ShouldEqual, "t-bos")
				So(attrs.AwayTeamID, ShouldEqual, "t-lal")
				So(attrs.Datetime.Equal(tipoff), ShouldBeTrue)
				So(attrs.FinalScore, ShouldNotBeNil)
				So(attrs.FinalScore.Home, ShouldEqual, 4)
				So(attrs.FinalScore.Away, ShouldEqual, 3)
				So(attrs.HasTeam("t-bos"), ShouldBeTrue)
				So(attrs.HasTeam("t-chi"), ShouldBeFalse)
			})
		})

		Convey("When extracting the same game twice", func() {
			v1, a1, err1 := ex.Extract("g-1", tipoff, closeGame(), nil)
			v2, a2, err2 := ex.Extract("g-1", tipoff, closeGame(), nil)

			Convey("Then the results should be identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(v1, ShouldResemble, v2)
				So(a1, ShouldResemble, a2)
			})
		})

		Convey("When the game has no events", func() {
			_, _, err := ex.Extract("g-empty", tipoff, nil, nil)

			Convey("Then it should fail as degenerate", func() {
				So(errors.Is(err, ErrDegenerateGame), ShouldBeTrue)
			})
		})

		Convey("When the game has zero elapsed time", func() {
			events := []model.GameEvent{
				{Period: 1, ClockSec: 300, Type: model.EventScore, ScoreHome: 2, Diff: 2},
			}
			_, _, err := ex.Extract("g-flat", tipoff, events, nil)

			Convey("Then it should fail as degenerate", func() {
				So(errors.Is(err, ErrDegenerateGame), ShouldBeTrue)
			})
		})
	})
}

func TestLeadChanges(t *testing.T) {
	tipoff := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	Convey("Given an extractor with a lead-change ceiling of 2", t, func() {
		ex := NewExtractor(newScorer(t), WithLeadChangeMax(2))

		Convey("When the lead flips twice", func() {
			vec, _, err := ex.Extract("g-1", tipoff, closeGame(), nil)

			Convey("Then the lead-change feature should saturate", func() {
				So(err, ShouldBeNil)
				So(vec.LeadChangeCount, ShouldAlmostEqual, 1.0)
			})
		})

		Convey("When one side leads wire to wire", func() {
			events := []model.GameEvent{
				{Period: 1, ClockSec: 700, Type: model.EventScore, TeamID: "t-a", ScoreHome: 2, Diff: 2},
				{Period: 1, ClockSec: 400, Type: model.EventScore, TeamID: "t-a", ScoreHome: 4, Diff: 4},
				{Period: 1, ClockSec: 0, Type: model.EventGameEnd, ScoreHome: 4, Diff: 4},
			}
			vec, _, err := ex.Extract("g-2", tipoff, events, nil)

			Convey("Then there should be no lead changes", func() {
				So(err, ShouldBeNil)
				So(vec.LeadChangeCount, ShouldEqual, 0)
			})
		})

		Convey("When a tie separates two leads by the same team", func() {
			events := []model.GameEvent{
				{Period: 1, ClockSec: 700, Type: model.EventScore, TeamID: "t-a", ScoreHome: 2, Diff: 2},
				{Period: 1, ClockSec: 500, Type: model.EventScore, TeamID: "t-b", ScoreHome: 2, ScoreAway: 2, Diff: 0},
				{Period: 1, ClockSec: 300, Type: model.EventScore, TeamID: "t-a", ScoreHome: 4, ScoreAway: 2, Diff: 2},
				{Period: 1, ClockSec: 0, Type: model.EventGameEnd, ScoreHome: 4, ScoreAway: 2, Diff: 2},
			}
			vec, _, err := ex.Extract("g-3", tipoff, events, nil)

			Convey("Then the tie should not count as a flip", func() {
				So(err, ShouldBeNil)
				So(vec.LeadChangeCount, ShouldEqual, 0)
			})
		})
	})
}

func TestExcitementRisesWithLeadChanges(t *testing.T) {
	tipoff := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	// Both games share event count, elapsed time, final score and boundary
	// margins; only the running lead pattern differs.
	steadyGame := []model.GameEvent{
		{Period: 1, ClockSec: 700, Type: model.EventScore, TeamID: "t-a", ScoreHome: 2, ScoreValue: 2, Diff: 2},
		{Period: 1, ClockSec: 600, Type: model.EventScore, TeamID: "t-b", ScoreHome: 2, ScoreAway: 4, ScoreValue: 2, Diff: -2},
		{Period: 1, ClockSec: 500, Type: model.EventScore, TeamID: "t-a", ScoreHome: 6, ScoreAway: 4, ScoreValue: 2, Diff: 2},
		{Period: 1, ClockSec: 400, Type: model.EventScore, TeamID: "t-a", ScoreHome: 8, ScoreAway: 4, ScoreValue: 2, Diff: 4},
		{Period: 1, ClockSec: 0, Type: model.EventGameEnd, ScoreHome: 10, ScoreAway: 8, Diff: 2},
	}
	swingGame := []model.GameEvent{
		{Period: 1, ClockSec: 700, Type: model.EventScore, TeamID: "t-a", ScoreHome: 2, ScoreValue: 2, Diff: 2},
		{Period: 1, ClockSec: 600, Type: model.EventScore, TeamID: "t-b", ScoreHome: 2, ScoreAway: 4, ScoreValue: 2, Diff: -2},
		{Period: 1, ClockSec: 500, Type: model.EventScore, TeamID: "t-a", ScoreHome: 6, ScoreAway: 4, ScoreValue: 2, Diff: 2},
		{Period: 1, ClockSec: 400, Type: model.EventScore, TeamID: "t-b", ScoreHome: 6, ScoreAway: 8, ScoreValue: 2, Diff: -2},
		{Period: 1, ClockSec: 0, Type: model.EventGameEnd, ScoreHome: 10, ScoreAway: 8, Diff: 2},
	}

	Convey("Given two games identical except for lead volatility", t, func() {
		ex := NewExtractor(newScorer(t))

		Convey("When both are extracted", func() {
			steady, _, err1 := ex.Extract("g-steady", tipoff, steadyGame, nil)
			swing, _, err2 := ex.Extract("g-swing", tipoff, swingGame, nil)

			Convey("Then the swingier game should carry more lead changes", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(swing.LeadChangeCount, ShouldBeGreaterThan, steady.LeadChangeCount)
			})

			Convey("Then its excitement score should be strictly higher", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(swing.ExcitementScore, ShouldBeGreaterThan, steady.ExcitementScore)
			})

			Convey("Then every other feature should be unchanged", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(swing.ScoringDensity, ShouldEqual, steady.ScoringDensity)
				So(swing.ClosenessScore, ShouldEqual, steady.ClosenessScore)
				So(swing.DunkRate, ShouldEqual, steady.DunkRate)
				So(swing.MissRate, ShouldEqual, steady.MissRate)
			})
		})
	})
}

func TestCloseness(t *testing.T) {
	tipoff := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	Convey("Given an extractor with a closeness cutoff of 10", t, func() {
		ex := NewExtractor(newScorer(t), WithClosenessCutoff(10))

		Convey("When period boundaries average a 5-point margin", func() {
			events := []model.GameEvent{
				{Period: 1, ClockSec: 700, Type: model.EventScore, TeamID: "t-a", ScoreHome: 5, Diff: 5},
				{Period: 1, ClockSec: 0, Type: model.EventPeriodEnd, ScoreHome: 5, Diff: 5},
				{Period: 2, ClockSec: 0, Type: model.EventGameEnd, ScoreHome: 5, Diff: 5},
			}
			vec, _, err := ex.Extract("g-1", tipoff, events, nil)

			Convey("Then closeness should be half", func() {
				So(err, ShouldBeNil)
				So(vec.ClosenessScore, ShouldAlmostEqual, 0.5)
			})
		})

		Convey("When the margin meets the cutoff at every boundary", func() {
			events := []model.GameEvent{
				{Period: 1, ClockSec: 700, Type: model.EventScore, TeamID: "t-a", ScoreHome: 10, Diff: 10},
				{Period: 1, ClockSec: 0, Type: model.EventGameEnd, ScoreHome: 10, Diff: 10},
			}
			vec, _, err := ex.Extract("g-2", tipoff, events, nil)

			Convey("Then closeness should be zero", func() {
				So(err, ShouldBeNil)
				So(vec.ClosenessScore, ShouldEqual, 0)
			})
		})

		Convey("When no boundary events exist", func() {
			events := []model.GameEvent{
				{Period: 1, ClockSec: 700, Type: model.EventScore, TeamID: "t-a", ScoreHome: 2, Diff: 2},
				{Period: 1, ClockSec: 100, Type: model.EventScore, TeamID: "t-b", ScoreHome: 2, ScoreAway: 7, Diff: -5},
			}
			vec, _, err := ex.Extract("g-3", tipoff, events, nil)

			Convey("Then the final event's margin should be used", func() {
				So(err, ShouldBeNil)
				So(vec.ClosenessScore, ShouldAlmostEqual, 0.5)
			})
		})
	})
}

func TestStarPower(t *testing.T) {
	tipoff := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	// busyGame has p-star in 12 events and p-bench in 2.
	busyGame := func() []model.GameEvent {
		events := make([]model.GameEvent, 0, 16)
		clock := 700.0
		score := 0
		for i := 0; i < 12; i++ {
			score += 2
			events = append(events, model.GameEvent{
				Period: 1, ClockSec: clock, Type: model.EventScore,
				TeamID: "t-a", PlayerID: "p-star",
				ScoreHome: score, ScoreValue: 2, Diff: score,
			})
			clock -= 20
		}
		events = append(events,
			model.GameEvent{Period: 1, ClockSec: clock, Type: model.EventMiss, TeamID: "t-b", PlayerID: "p-bench", ScoreHome: score, Diff: score},
			model.GameEvent{Period: 1, ClockSec: clock - 20, Type: model.EventMiss, TeamID: "t-b", PlayerID: "p-bench", ScoreHome: score, Diff: score},
			model.GameEvent{Period: 1, ClockSec: 0, Type: model.EventGameEnd, ScoreHome: score, Diff: score},
		)
		return events
	}

	Convey("Given a game dominated by one player", t, func() {
		Convey("When extracting with the default appearance threshold", func() {
			ex := NewExtractor(newScorer(t))
			vec, attrs, err := ex.Extract("g-1", tipoff, busyGame(), Roster{"p-star": 10})

			Convey("Then only the qualifying player should be a top player", func() {
				So(err, ShouldBeNil)
				So(attrs.TopPlayers, ShouldResemble, []string{"p-star"})
			})

			Convey("Then the star score should weight appearances by roster importance", func() {
				So(err, ShouldBeNil)
				// 12 appearances * importance 10, over the 150 ceiling.
				So(vec.StarPowerScore, ShouldAlmostEqual, 0.8)
			})
		})

		Convey("When the appearance threshold is lowered", func() {
			ex := NewExtractor(newScorer(t), WithTopPlayers(5, 1))
			_, attrs, err := ex.Extract("g-1", tipoff, busyGame(), nil)

			Convey("Then players should rank by involvement", func() {
				So(err, ShouldBeNil)
				So(attrs.TopPlayers, ShouldResemble, []string{"p-star", "p-bench"})
			})
		})

		Convey("When the top-player count is capped at one", func() {
			ex := NewExtractor(newScorer(t), WithTopPlayers(1, 1))
			_, attrs, err := ex.Extract("g-1", tipoff, busyGame(), nil)

			Convey("Then only the most involved player should remain", func() {
				So(err, ShouldBeNil)
				So(attrs.TopPlayers, ShouldResemble, []string{"p-star"})
			})
		})

		Convey("When a roster weight is not finite", func() {
			ex := NewExtractor(newScorer(t))
			_, _, err := ex.Extract("g-1", tipoff, busyGame(), Roster{"p-star": math.NaN()})

			Convey("Then extraction should fail with a non-finite error", func() {
				So(errors.Is(err, ErrNonFinite), ShouldBeTrue)
			})
		})
	})
}

func TestReferenceRates(t *testing.T) {
	tipoff := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	Convey("Given two extractors with different dunk reference rates", t, func() {
		strict := NewExtractor(newScorer(t), WithReferenceRates(0.9, 0, 0, 0))
		loose := NewExtractor(newScorer(t), WithReferenceRates(0.01, 0, 0, 0))

		Convey("When extracting the same game with both", func() {
			strictVec, _, err1 := strict.Extract("g-1", tipoff, closeGame(), nil)
			looseVec, _, err2 := loose.Extract("g-1", tipoff, closeGame(), nil)

			Convey("Then the loose reference should saturate and the strict should not", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(looseVec.DunkRate, ShouldEqual, 1)
				So(strictVec.DunkRate, ShouldBeLessThan, 1)
				So(strictVec.DunkRate, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given non-positive option values", t, func() {
		Convey("When constructing an extractor with them", func() {
			ex := NewExtractor(newScorer(t),
				WithLeadChangeMax(0),
				WithClosenessCutoff(-1),
				WithStarScoreMax(0),
				WithReferenceDensity(0),
				WithTopPlayers(0, 0),
			)

			Convey("Then the defaults should be preserved", func() {
				So(ex.leadChangeMax, ShouldEqual, defaultLeadChangeMax)
				So(ex.closenessCutoff, ShouldEqual, defaultClosenessCutoff)
				So(ex.starScoreMax, ShouldEqual, defaultStarScoreMax)
				So(ex.refDensity, ShouldEqual, defaultRefDensity)
				So(ex.topPlayerCount, ShouldEqual, defaultTopPlayerCount)
				So(ex.minAppearances, ShouldEqual, defaultMinAppearances)
			})
		})
	})
}
