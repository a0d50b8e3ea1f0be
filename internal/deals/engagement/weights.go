package engagement

import "time"

const (
	// ScoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing the default weights.
	ScoreVersion = "2026-engagement-v1"

	// MaxScore is the upper bound of totalScore.
	MaxScore = 100
)

// CompletionBand awards Points when propertiesViewed is within [MinViewed, MaxViewed].
type CompletionBand struct {
	MinViewed int `koanf:"min_viewed" json:"minViewed"`
	MaxViewed int `koanf:"max_viewed" json:"maxViewed"`
	Points    int `koanf:"points" json:"points"`
}

// CompletionWeights is a banded, not linear, scale.
type CompletionWeights struct {
	Bands []CompletionBand `koanf:"bands" json:"bands"`
	// BeyondBonus is added to the highest band when viewing past its MaxViewed.
	BeyondBonus int `koanf:"beyond_bonus" json:"beyondBonus"`
	Max         int `koanf:"max" json:"max"`
}

type InteractionWeights struct {
	Like       int `koanf:"like" json:"like"`
	Consider   int `koanf:"consider" json:"consider"`
	DetailView int `koanf:"detail_view" json:"detailView"`
	Image      int `koanf:"image" json:"image"`
	MapView    int `koanf:"map_view" json:"mapView"`
	Max        int `koanf:"max" json:"max"`
}

type BehaviorWeights struct {
	ReturnVisit int `koanf:"return_visit" json:"returnVisit"`

	LongSession        int `koanf:"long_session" json:"longSession"`
	LongSessionSeconds int `koanf:"long_session_seconds" json:"longSessionSeconds"`

	HighLikeRatio    int `koanf:"high_like_ratio" json:"highLikeRatio"`
	HighLikeRatioPct int `koanf:"high_like_ratio_pct" json:"highLikeRatioPct"`

	TypePreference         int `koanf:"type_preference" json:"typePreference"`
	TypePreferenceMinLikes int `koanf:"type_preference_min_likes" json:"typePreferenceMinLikes"`
	TypePreferenceSharePct int `koanf:"type_preference_share_pct" json:"typePreferenceSharePct"`

	Max int `koanf:"max" json:"max"`
}

// RecencyBand awards Points when the last activity is at most Within ago.
type RecencyBand struct {
	Within time.Duration `koanf:"within" json:"within"`
	Points int           `koanf:"points" json:"points"`
}

type RecencyWeights struct {
	// Bands are evaluated in order; the first band that covers the elapsed
	// time wins.
	Bands []RecencyBand `koanf:"bands" json:"bands"`
	Max   int           `koanf:"max" json:"max"`
}

// Weights is the complete scoring policy table.
type Weights struct {
	Completion  CompletionWeights  `koanf:"completion" json:"completion"`
	Interaction InteractionWeights `koanf:"interaction" json:"interaction"`
	Behavior    BehaviorWeights    `koanf:"behavior" json:"behavior"`
	Recency     RecencyWeights     `koanf:"recency" json:"recency"`
}

// DefaultWeights returns the production scoring policy.
func DefaultWeights() Weights {
	return Weights{
		Completion: CompletionWeights{
			Bands: []CompletionBand{
				{MinViewed: 5, MaxViewed: 15, Points: 15},  // partial
				{MinViewed: 16, MaxViewed: 25, Points: 23}, // full
			},
			BeyondBonus: 2,
			Max:         25,
		},
		Interaction: InteractionWeights{
			Like:       3,
			Consider:   2,
			DetailView: 2,
			Image:      1,
			MapView:    1,
			Max:        35,
		},
		Behavior: BehaviorWeights{
			ReturnVisit:            10,
			LongSession:            5,
			LongSessionSeconds:     600,
			HighLikeRatio:          5,
			HighLikeRatioPct:       25,
			TypePreference:         5,
			TypePreferenceMinLikes: 3,
			TypePreferenceSharePct: 60,
			Max:                    25,
		},
		Recency: RecencyWeights{
			Bands: []RecencyBand{
				{Within: 24 * time.Hour, Points: 15},
				{Within: 7 * 24 * time.Hour, Points: 10},
				{Within: 30 * 24 * time.Hour, Points: 5},
			},
			Max: 15,
		},
	}
}

// Validate returns a non-empty reason when the table cannot keep
// totalScore within [0, MaxScore].
func (w Weights) Validate() string {
	if w.Completion.Max < 0 || w.Interaction.Max < 0 || w.Behavior.Max < 0 || w.Recency.Max < 0 {
		return "sub-score maximums must not be negative"
	}
	if w.Completion.Max+w.Interaction.Max+w.Behavior.Max+w.Recency.Max > MaxScore {
		return "sub-score maximums exceed the total score bound"
	}
	for i := 1; i < len(w.Completion.Bands); i++ {
		if w.Completion.Bands[i].MinViewed <= w.Completion.Bands[i-1].MaxViewed {
			return "completion bands must be ascending and disjoint"
		}
	}
	for i := 1; i < len(w.Recency.Bands); i++ {
		if w.Recency.Bands[i].Within <= w.Recency.Bands[i-1].Within {
			return "recency bands must be ascending"
		}
	}
	return ""
}
