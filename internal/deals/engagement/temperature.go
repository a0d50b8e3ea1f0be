package engagement

import "dealflow_backend/internal/deals/domain"

// Thresholds are the lower bounds (inclusive) of the warm and hot tiers.
type Thresholds struct {
	Hot  int `koanf:"hot" json:"hot"`
	Warm int `koanf:"warm" json:"warm"`
}

// DefaultThresholds: score >= 80 is hot, 50 <= score < 80 is warm, below is cold.
var DefaultThresholds = Thresholds{Hot: 80, Warm: 50}

// Classify maps a score to its temperature with the default thresholds.
func Classify(score int) domain.Temperature {
	return DefaultThresholds.Classify(score)
}

// Classify maps a score to its temperature. The tiers partition the whole
// integer line, so every score has exactly one temperature.
func (t Thresholds) Classify(score int) domain.Temperature {
	switch {
	case score >= t.Hot:
		return domain.TemperatureHot
	case score >= t.Warm:
		return domain.TemperatureWarm
	default:
		return domain.TemperatureCold
	}
}
