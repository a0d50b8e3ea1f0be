package engagement

import (
	"testing"
	"time"

	"dealflow_backend/internal/deals/domain"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAggregateScenarios(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	agg := NewAggregator(DefaultWeights())

	Convey("Given the default weights", t, func() {
		Convey("A long returning session with many likes on a deal active an hour ago", func() {
			lastActive := now.Add(-time.Hour)
			m := agg.Aggregate(SessionData{
				PropertiesViewed:     20,
				PropertiesLiked:      6,
				PropertiesConsidered: 2,
				Duration:             900,
				ReturnVisit:          true,
			}, &lastActive, now)

			So(m.PropertyInteraction, ShouldEqual, 22)
			So(m.RecencyFactor, ShouldEqual, 15)
			So(m.SessionCompletion, ShouldEqual, 23)
			So(m.BehavioralIndicators, ShouldBeGreaterThanOrEqualTo, 10)
			So(m.HasSignal(SignalReturnVisit), ShouldBeTrue)
			So(m.TotalScore, ShouldBeGreaterThanOrEqualTo, 80)
			So(Classify(m.TotalScore), ShouldEqual, domain.TemperatureHot)
		})

		Convey("A session without viewed properties scores zero", func() {
			m := agg.Aggregate(SessionData{
				TotalProperties: 12,
				Duration:        1200,
				ReturnVisit:     true,
				PropertiesLiked: 4,
				EndTime:         now,
			}, nil, now)

			So(m.TotalScore, ShouldEqual, 0)
			So(m.SessionCompletion, ShouldEqual, 0)
			So(m.PropertyInteraction, ShouldEqual, 0)
			So(m.BehavioralIndicators, ShouldEqual, 0)
			So(m.RecencyFactor, ShouldEqual, 0)
			So(m.HasSignal(SignalNoPropertiesSeen), ShouldBeTrue)
		})

		Convey("Below the partial band completion contributes nothing", func() {
			m := agg.Aggregate(SessionData{TotalProperties: 10, PropertiesViewed: 3}, nil, now)
			So(m.SessionCompletion, ShouldEqual, 0)
			So(m.HasSignal(SignalBelowPartialBand), ShouldBeTrue)
		})

		Convey("Completion follows the bands", func() {
			So(agg.Aggregate(SessionData{PropertiesViewed: 5}, nil, now).SessionCompletion, ShouldEqual, 15)
			So(agg.Aggregate(SessionData{PropertiesViewed: 15}, nil, now).SessionCompletion, ShouldEqual, 15)
			So(agg.Aggregate(SessionData{PropertiesViewed: 16}, nil, now).SessionCompletion, ShouldEqual, 23)
			So(agg.Aggregate(SessionData{PropertiesViewed: 25}, nil, now).SessionCompletion, ShouldEqual, 23)

			beyond := agg.Aggregate(SessionData{PropertiesViewed: 40}, nil, now)
			So(beyond.SessionCompletion, ShouldEqual, 25)
			So(beyond.HasSignal(SignalBeyondCollection), ShouldBeTrue)
		})

		Convey("Interaction is capped at 35", func() {
			m := agg.Aggregate(SessionData{
				PropertiesViewed: 30,
				PropertiesLiked:  30,
				DetailViews:      40,
				ImagesBrowsed:    100,
			}, nil, now)
			So(m.PropertyInteraction, ShouldEqual, 35)
			So(m.HasSignal(SignalRichInteraction), ShouldBeTrue)
		})

		Convey("Behaviour bonuses add up and are capped at 25", func() {
			m := agg.Aggregate(SessionData{
				PropertiesViewed:   10,
				PropertiesLiked:    5,
				Duration:           601,
				ReturnVisit:        true,
				LikedPropertyTypes: []string{"Apartment", "apartment ", "apartment", "villa"},
			}, nil, now)
			So(m.BehavioralIndicators, ShouldEqual, 25)
			So(m.PreferredType, ShouldEqual, "apartment")
			So(m.HasSignal(SignalTypePreference), ShouldBeTrue)
		})

		Convey("A like ratio of exactly 25 percent earns no bonus", func() {
			m := agg.Aggregate(SessionData{PropertiesViewed: 8, PropertiesLiked: 2}, nil, now)
			So(m.HasSignal(SignalHighLikeRatio), ShouldBeFalse)
		})

		Convey("Type preference needs three typed likes and a 60 percent share", func() {
			m := agg.Aggregate(SessionData{PropertiesViewed: 10, PropertiesLiked: 2, LikedPropertyTypes: []string{"villa", "villa"}}, nil, now)
			So(m.HasSignal(SignalTypePreference), ShouldBeFalse)

			m = agg.Aggregate(SessionData{PropertiesViewed: 10, PropertiesLiked: 5, LikedPropertyTypes: []string{"villa", "villa", "loft", "loft", "house"}}, nil, now)
			So(m.HasSignal(SignalTypePreference), ShouldBeFalse)
		})

		Convey("Recency follows the most recent known activity", func() {
			end := now.Add(-3 * 24 * time.Hour)
			old := now.Add(-60 * 24 * time.Hour)
			So(agg.Aggregate(SessionData{PropertiesViewed: 5, EndTime: end}, &old, now).RecencyFactor, ShouldEqual, 10)

			recent := now.Add(-2 * time.Hour)
			So(agg.Aggregate(SessionData{PropertiesViewed: 5, EndTime: end}, &recent, now).RecencyFactor, ShouldEqual, 15)

			month := now.Add(-20 * 24 * time.Hour)
			monthEnd := now.Add(-25 * 24 * time.Hour)
			So(agg.Aggregate(SessionData{PropertiesViewed: 5, EndTime: monthEnd}, &month, now).RecencyFactor, ShouldEqual, 5)
			So(agg.Aggregate(SessionData{PropertiesViewed: 5, EndTime: old}, &old, now).RecencyFactor, ShouldEqual, 0)
		})

		Convey("A session without timestamps counts as activity at evaluation time", func() {
			old := now.Add(-60 * 24 * time.Hour)
			So(agg.Aggregate(SessionData{PropertiesViewed: 5}, nil, now).RecencyFactor, ShouldEqual, 15)
			So(agg.Aggregate(SessionData{PropertiesViewed: 5}, &old, now).RecencyFactor, ShouldEqual, 15)

			future := now.Add(48 * time.Hour)
			So(agg.Aggregate(SessionData{PropertiesViewed: 5, EndTime: future}, nil, now).RecencyFactor, ShouldEqual, 15)
		})

		Convey("Scoring against the persisted activity time gives the same metrics", func() {
			s := SessionData{PropertiesViewed: 20, PropertiesLiked: 6, PropertiesConsidered: 2, Duration: 900, ReturnVisit: true}
			first := agg.Aggregate(s, nil, now)
			persisted := s.ReportedAt(now)
			second := agg.Aggregate(s, &persisted, now.Add(time.Minute))
			So(second, ShouldResemble, first)
		})

		Convey("Huge counters saturate at the caps instead of overflowing", func() {
			huge := 1 << 62
			m := agg.Aggregate(SessionData{
				TotalProperties:      huge,
				PropertiesViewed:     huge,
				PropertiesLiked:      huge,
				PropertiesConsidered: huge,
				DetailViews:          huge,
				ImagesBrowsed:        huge,
				MapViews:             huge,
				Duration:             huge,
				ReturnVisit:          true,
				LikedPropertyTypes:   []string{"villa", "villa", "villa"},
			}, nil, now)
			So(m.SessionCompletion, ShouldEqual, 25)
			So(m.PropertyInteraction, ShouldEqual, 35)
			So(m.HasSignal(SignalHighLikeRatio), ShouldBeTrue)
			So(m.HasSignal(SignalLongSession), ShouldBeTrue)
			So(m.TotalScore, ShouldEqual, MaxScore)
		})

		Convey("Metrics carry the score version", func() {
			So(agg.Aggregate(SessionData{}, nil, now).Version, ShouldEqual, ScoreVersion)
		})
	})
}

func TestAggregateIsBounded(t *testing.T) {
	now := time.Now()
	agg := NewAggregator(DefaultWeights())
	last := now.Add(-time.Minute)

	counts := []int{-5, 0, 1, 4, 5, 15, 16, 25, 26, 100, 10000}
	for _, viewed := range counts {
		for _, liked := range counts {
			for _, total := range counts {
				m := agg.Aggregate(SessionData{
					TotalProperties:      total,
					PropertiesViewed:     viewed,
					PropertiesLiked:      liked,
					PropertiesConsidered: liked,
					DetailViews:          liked,
					Duration:             viewed * 100,
					ReturnVisit:          true,
					LikedPropertyTypes:   []string{"villa", "villa", "villa"},
				}, &last, now)
				if m.TotalScore < 0 || m.TotalScore > MaxScore {
					t.Fatalf("score %d out of bounds for viewed=%d liked=%d total=%d", m.TotalScore, viewed, liked, total)
				}
				sum := m.SessionCompletion + m.PropertyInteraction + m.BehavioralIndicators + m.RecencyFactor
				if sum != m.TotalScore {
					t.Fatalf("total %d does not equal sum of sub-scores %d", m.TotalScore, sum)
				}
			}
		}
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	now := time.Now()
	agg := NewAggregator(DefaultWeights())
	s := SessionData{PropertiesViewed: 12, PropertiesLiked: 4, LikedPropertyTypes: []string{"loft", "villa", "loft", "villa"}}

	first := agg.Aggregate(s, nil, now)
	for i := 0; i < 20; i++ {
		again := agg.Aggregate(s, nil, now)
		if again.TotalScore != first.TotalScore || again.PreferredType != first.PreferredType {
			t.Fatalf("non-deterministic result: %+v vs %+v", first, again)
		}
	}
}
