package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recompute outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Manager owns every collector. All methods are safe on a nil *Manager so
// tests and tools can run without metrics.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       *prometheus.Registry

	recomputations      *prometheus.CounterVec
	recomputeDuration   prometheus.Histogram
	scores              prometheus.Histogram
	temperatures        *prometheus.CounterVec
	stageTransitions    *prometheus.CounterVec
	tasksGenerated      *prometheus.CounterVec
	tasksSuppressed     *prometheus.CounterVec
	automationFailures  *prometheus.CounterVec
	tasksMarkedOverdue  prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a manager with its own registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "dealflow",
		subsystem:      "engine",
		latencyBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recomputations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recomputations_total",
		Help:      "Deal recomputations by outcome",
	}, []string{"outcome"})

	m.recomputeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_duration_milliseconds",
		Help:      "Duration of a deal recomputation including persistence",
		Buckets:   m.latencyBuckets,
	})

	m.scores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "engagement_score",
		Help:      "Distribution of computed engagement scores",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	m.temperatures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "temperature_total",
		Help:      "Classified temperatures",
	}, []string{"temperature"})

	m.stageTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_transitions_total",
		Help:      "Deal stage transitions",
	}, []string{"from", "to", "manual"})

	m.tasksGenerated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tasks_generated_total",
		Help:      "Automated tasks persisted, by trigger kind and priority",
	}, []string{"kind", "priority"})

	m.tasksSuppressed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tasks_suppressed_total",
		Help:      "Automated tasks not generated because of dedup or cooldown",
	}, []string{"kind", "reason"})

	m.automationFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "automation_failures_total",
		Help:      "Best-effort side effects that failed after the deal update committed",
	}, []string{"step"})

	m.tasksMarkedOverdue = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tasks_marked_overdue_total",
		Help:      "Tasks flagged overdue by the scheduler",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"route", "method", "status_code"})
}

// Registry returns the registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRecompute counts a recomputation and its latency.
func (m *Manager) RecordRecompute(outcome string, durationMs float64) {
	if m == nil {
		return
	}
	m.recomputations.WithLabelValues(outcome).Inc()
	m.recomputeDuration.Observe(durationMs)
}

// ObserveScore records a computed score and its temperature.
func (m *Manager) ObserveScore(score int, temperature string) {
	if m == nil {
		return
	}
	m.scores.Observe(float64(score))
	m.temperatures.WithLabelValues(temperature).Inc()
}

// RecordStageTransition counts a stage change.
func (m *Manager) RecordStageTransition(from, to string, manual bool) {
	if m == nil {
		return
	}
	m.stageTransitions.WithLabelValues(from, to, strconv.FormatBool(manual)).Inc()
}

// RecordTaskGenerated counts a persisted automated task.
func (m *Manager) RecordTaskGenerated(kind, priority string) {
	if m == nil {
		return
	}
	m.tasksGenerated.WithLabelValues(kind, priority).Inc()
}

// RecordTaskSuppressed counts a rule match that dedup suppressed.
func (m *Manager) RecordTaskSuppressed(kind, reason string) {
	if m == nil {
		return
	}
	m.tasksSuppressed.WithLabelValues(kind, reason).Inc()
}

// RecordAutomationFailure counts a failed best-effort side effect.
func (m *Manager) RecordAutomationFailure(step string) {
	if m == nil {
		return
	}
	m.automationFailures.WithLabelValues(step).Inc()
}

// RecordTaskOverdue counts a task flagged overdue.
func (m *Manager) RecordTaskOverdue() {
	if m == nil {
		return
	}
	m.tasksMarkedOverdue.Inc()
}

// RecordHTTPRequest records one request.
func (m *Manager) RecordHTTPRequest(route, method string, status int, durationMs float64) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, code).Observe(durationMs)
}
