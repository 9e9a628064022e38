package model_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gameselect/internal/domain/model"
)

func TestFeatureVectorValues(t *testing.T) {
	Convey("Given a feature vector with distinct field values", t, func() {
		vec := model.FeatureVector{
			LeadChangeCount: 0.1,
			DunkRate:        0.2,
			BlockRate:       0.3,
			ThreePointRate:  0.4,
			MissRate:        0.5,
			ScoringDensity:  0.6,
			ClosenessScore:  0.7,
			StarPowerScore:  0.8,
			ExcitementScore: 0.9,
		}

		Convey("When flattened for vector math", func() {
			values := vec.Values()

			Convey("Then the fields should appear in schema order", func() {
				So(values, ShouldResemble, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9})
			})
		})
	})
}

func TestGameAttributesHasTeam(t *testing.T) {
	Convey("Given attributes for a game between two teams", t, func() {
		attrs := model.GameAttributes{HomeTeamID: "t-bos", AwayTeamID: "t-lal"}

		Convey("When checking team membership", func() {
			Convey("Then both participants should match", func() {
				So(attrs.HasTeam("t-bos"), ShouldBeTrue)
				So(attrs.HasTeam("t-lal"), ShouldBeTrue)
			})

			Convey("Then outsiders and the empty ID should not", func() {
				So(attrs.HasTeam("t-okc"), ShouldBeFalse)
				So(attrs.HasTeam(""), ShouldBeFalse)
			})
		})
	})
}
