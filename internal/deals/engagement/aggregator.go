package engagement

import (
	"sort"
	"time"
)

// Signal names a bonus or condition that fired while scoring a session.
type Signal string

const (
	SignalReturnVisit      Signal = "return_visit"
	SignalLongSession      Signal = "long_session"
	SignalHighLikeRatio    Signal = "high_like_ratio"
	SignalTypePreference   Signal = "type_preference"
	SignalFullCollection   Signal = "full_collection"
	SignalBeyondCollection Signal = "beyond_full_band"
	SignalRichInteraction  Signal = "rich_interaction"
	SignalRecentActivity   Signal = "recent_activity"
	SignalNoPropertiesSeen Signal = "no_properties_viewed"
	SignalBelowPartialBand Signal = "below_partial_band"
)

// Metrics is the immutable result of scoring one session.
type Metrics struct {
	SessionCompletion    int      `json:"sessionCompletion"`
	PropertyInteraction  int      `json:"propertyInteraction"`
	BehavioralIndicators int      `json:"behavioralIndicators"`
	RecencyFactor        int      `json:"recencyFactor"`
	TotalScore           int      `json:"totalScore"`
	CompletionRatio      float64  `json:"completionRatio"`
	PreferredType        string   `json:"preferredType,omitempty"`
	Signals              []Signal `json:"signals,omitempty"`
	Version              string   `json:"version"`
}

// HasSignal reports whether sig fired for these metrics.
func (m Metrics) HasSignal(sig Signal) bool {
	for _, s := range m.Signals {
		if s == sig {
			return true
		}
	}
	return false
}

// Aggregator reduces session counters into sub-scores using a Weights table.
type Aggregator struct {
	weights Weights
}

// NewAggregator creates an aggregator for the given policy table.
func NewAggregator(weights Weights) *Aggregator {
	return &Aggregator{weights: weights}
}

// Weights returns the policy table in use.
func (a *Aggregator) Weights() Weights {
	return a.weights
}

// Aggregate scores one session. lastActivityAt is the deal's last known
// activity before this session (nil when unknown); now is the evaluation time.
// Recency is measured from the later of lastActivityAt and the session's
// ReportedAt, which is also what the caller persists as the deal's activity.
// It never fails: malformed telemetry is normalised first.
func (a *Aggregator) Aggregate(session SessionData, lastActivityAt *time.Time, now time.Time) Metrics {
	s := session.Normalize()
	m := Metrics{Version: ScoreVersion}

	if s.PropertiesViewed == 0 {
		m.Signals = []Signal{SignalNoPropertiesSeen}
		return m
	}

	total := s.TotalProperties
	if total < 1 {
		total = 1
	}
	m.CompletionRatio = float64(s.PropertiesViewed) / float64(total)

	var signals []Signal
	m.SessionCompletion, signals = a.scoreCompletion(s, m.CompletionRatio, signals)
	m.PropertyInteraction, signals = a.scoreInteraction(s, signals)
	m.BehavioralIndicators, m.PreferredType, signals = a.scoreBehavior(s, signals)
	m.RecencyFactor, signals = a.scoreRecency(s, lastActivityAt, now, signals)

	m.TotalScore = clamp(m.SessionCompletion+m.PropertyInteraction+m.BehavioralIndicators+m.RecencyFactor, 0, MaxScore)
	m.Signals = signals
	return m
}

func (a *Aggregator) scoreCompletion(s SessionData, ratio float64, signals []Signal) (int, []Signal) {
	w := a.weights.Completion
	viewed := s.PropertiesViewed

	if ratio >= 1 && s.TotalProperties > 0 {
		signals = append(signals, SignalFullCollection)
	}
	if len(w.Bands) == 0 {
		return 0, signals
	}

	for _, band := range w.Bands {
		if viewed >= band.MinViewed && viewed <= band.MaxViewed {
			return clamp(band.Points, 0, w.Max), signals
		}
	}

	top := w.Bands[len(w.Bands)-1]
	if viewed > top.MaxViewed {
		signals = append(signals, SignalBeyondCollection)
		return clamp(top.Points+w.BeyondBonus, 0, w.Max), signals
	}

	// Below the partial band, or in a gap between bands.
	return 0, append(signals, SignalBelowPartialBand)
}

func (a *Aggregator) scoreInteraction(s SessionData, signals []Signal) (int, []Signal) {
	w := a.weights.Interaction
	points := s.PropertiesLiked*w.Like +
		s.PropertiesConsidered*w.Consider +
		s.DetailViews*w.DetailView +
		s.ImagesBrowsed*w.Image +
		s.MapViews*w.MapView

	media := s.DetailViews*w.DetailView + s.ImagesBrowsed*w.Image + s.MapViews*w.MapView
	if media > 0 && media*2 >= w.Max {
		signals = append(signals, SignalRichInteraction)
	}

	return clamp(points, 0, w.Max), signals
}

func (a *Aggregator) scoreBehavior(s SessionData, signals []Signal) (int, string, []Signal) {
	w := a.weights.Behavior
	points := 0

	if s.ReturnVisit {
		points += w.ReturnVisit
		signals = append(signals, SignalReturnVisit)
	}

	if s.Duration > w.LongSessionSeconds {
		points += w.LongSession
		signals = append(signals, SignalLongSession)
	}

	// Integer form of liked/viewed > pct/100.
	if s.PropertiesLiked*100 > s.PropertiesViewed*w.HighLikeRatioPct {
		points += w.HighLikeRatio
		signals = append(signals, SignalHighLikeRatio)
	}

	preferred := dominantType(s.LikedPropertyTypes, w.TypePreferenceMinLikes, w.TypePreferenceSharePct)
	if preferred != "" {
		points += w.TypePreference
		signals = append(signals, SignalTypePreference)
	}

	return clamp(points, 0, w.Max), preferred, signals
}

func (a *Aggregator) scoreRecency(s SessionData, lastActivityAt *time.Time, now time.Time, signals []Signal) (int, []Signal) {
	w := a.weights.Recency

	ref := s.ReportedAt(now)
	if lastActivityAt != nil && lastActivityAt.After(ref) {
		ref = *lastActivityAt
	}

	elapsed := now.Sub(ref)
	if elapsed < 0 {
		elapsed = 0
	}

	for i, band := range w.Bands {
		if elapsed <= band.Within {
			if i == 0 {
				signals = append(signals, SignalRecentActivity)
			}
			return clamp(band.Points, 0, w.Max), signals
		}
	}
	return 0, signals
}

// dominantType returns the property type that makes up at least sharePct of
// the likes, provided there are at least minLikes typed likes. Ties resolve
// alphabetically so the result is deterministic.
func dominantType(types []string, minLikes, sharePct int) string {
	if len(types) == 0 || len(types) < minLikes {
		return ""
	}

	counts := make(map[string]int, len(types))
	for _, t := range types {
		counts[t]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestCount := "", 0
	for _, name := range names {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}

	if bestCount*100 < len(types)*sharePct {
		return ""
	}
	return best
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
