package engagement

import (
	"time"

	"dealflow_backend/internal/deals/domain"
)

// Engine is the scoring entry point used by the deal service.
type Engine struct {
	aggregator *Aggregator
	thresholds Thresholds
}

// NewEngine creates a scoring engine over the given policy.
func NewEngine(weights Weights, thresholds Thresholds) *Engine {
	return &Engine{aggregator: NewAggregator(weights), thresholds: thresholds}
}

// Score delegates to the aggregator.
func (e *Engine) Score(session SessionData, lastActivityAt *time.Time, now time.Time) Metrics {
	return e.aggregator.Aggregate(session, lastActivityAt, now)
}

// Classify maps a score to a temperature with the engine's thresholds.
func (e *Engine) Classify(score int) domain.Temperature {
	return e.thresholds.Classify(score)
}

// Insights is a convenience wrapper around the package-level Insights.
func (e *Engine) Insights(m Metrics) []string {
	return Insights(m)
}
