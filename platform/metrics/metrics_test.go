package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		m := NewManager(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))

		Convey("Recording a recompute increments the outcome counter", func() {
			m.RecordRecompute(OutcomeOK, 12)
			m.RecordRecompute(OutcomeOK, 8)
			m.RecordRecompute(OutcomeNotFound, 1)
			So(testutil.ToFloat64(m.recomputations.WithLabelValues(OutcomeOK)), ShouldEqual, 2)
			So(testutil.ToFloat64(m.recomputations.WithLabelValues(OutcomeNotFound)), ShouldEqual, 1)
		})

		Convey("Task counters are labelled by kind", func() {
			m.RecordTaskGenerated("hot_lead", "high")
			m.RecordTaskSuppressed("hot_lead", "cooldown")
			m.RecordAutomationFailure("insert_task")
			So(testutil.ToFloat64(m.tasksGenerated.WithLabelValues("hot_lead", "high")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.tasksSuppressed.WithLabelValues("hot_lead", "cooldown")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.automationFailures.WithLabelValues("insert_task")), ShouldEqual, 1)
		})

		Convey("The handler exposes the registry", func() {
			m.ObserveScore(85, "hot")
			m.RecordStageTransition("created", "qualified", false)

			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.Contains(rec.Body.String(), "test_engine_engagement_score"), ShouldBeTrue)
			So(strings.Contains(rec.Body.String(), "test_engine_stage_transitions_total"), ShouldBeTrue)
		})
	})
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	m.RecordRecompute(OutcomeOK, 1)
	m.ObserveScore(10, "cold")
	m.RecordTaskGenerated("cold_nurture", "low")
	m.RecordHTTPRequest("/x", "GET", 200, 1)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}
