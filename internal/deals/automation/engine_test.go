package automation

import (
	"testing"
	"time"

	"dealflow_backend/internal/deals/domain"
	"dealflow_backend/internal/deals/engagement"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func input(score int, now time.Time, history ...TaskRecord) Input {
	return Input{
		Deal: DealSnapshot{
			ID:     uuid.MustParse("7b0c5d0e-2f6b-4b62-9a8d-0d4a3c2f1e10"),
			Title:  "Canal houses",
			Stage:  domain.StageEngaged,
			Status: domain.StatusActive,
		},
		Metrics:     engagement.Metrics{TotalScore: score},
		Temperature: engagement.Classify(score),
		Insights:    []string{"Returning visitor"},
		History:     history,
		Now:         now,
	}
}

func TestEvaluateRuleTable(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	engine := NewEngine(DefaultPolicy())

	Convey("Given the default rule table", t, func() {
		Convey("A hot score generates a high priority outreach due in two hours", func() {
			tasks := engine.Evaluate(input(85, now))
			So(tasks, ShouldHaveLength, 1)
			So(tasks[0].Priority, ShouldEqual, domain.TaskPriorityHigh)
			So(tasks[0].Type, ShouldEqual, domain.TaskTypeImmediateOutreach)
			So(tasks[0].DueDate, ShouldEqual, now.Add(2*time.Hour))
			So(tasks[0].Trigger.Kind, ShouldEqual, KindHotLead)
			So(tasks[0].Trigger.ScoreThreshold, ShouldEqual, 80)
			So(tasks[0].Title, ShouldContainSubstring, "Canal houses")
			So(tasks[0].Description, ShouldContainSubstring, "Returning visitor")
		})

		Convey("Exactly 80 is hot and exactly 50 is warm", func() {
			So(engine.Evaluate(input(80, now))[0].Trigger.Kind, ShouldEqual, KindHotLead)
			So(engine.Evaluate(input(79, now))[0].Trigger.Kind, ShouldEqual, KindWarmFollowUp)
			So(engine.Evaluate(input(50, now))[0].Trigger.Kind, ShouldEqual, KindWarmFollowUp)
			So(engine.Evaluate(input(49, now))[0].Trigger.Kind, ShouldEqual, KindColdNurture)
		})

		Convey("A warm score is due in 24 hours with medium priority", func() {
			tasks := engine.Evaluate(input(60, now))
			So(tasks, ShouldHaveLength, 1)
			So(tasks[0].Priority, ShouldEqual, domain.TaskPriorityMedium)
			So(tasks[0].DueDate, ShouldEqual, now.Add(24*time.Hour))
		})

		Convey("A cold score enrolls in nurture due in 7 days", func() {
			tasks := engine.Evaluate(input(1, now))
			So(tasks, ShouldHaveLength, 1)
			So(tasks[0].Priority, ShouldEqual, domain.TaskPriorityLow)
			So(tasks[0].Type, ShouldEqual, domain.TaskTypeNurtureCampaign)
			So(tasks[0].DueDate, ShouldEqual, now.Add(7*24*time.Hour))
		})

		Convey("A zero score generates nothing", func() {
			So(engine.Evaluate(input(0, now)), ShouldBeEmpty)
			So(engine.Decide(input(0, now)).Outcome, ShouldEqual, OutcomeNoRule)
		})

		Convey("Closed deals generate nothing", func() {
			in := input(95, now)
			in.Deal.Status = domain.StatusClosedWon
			So(engine.Evaluate(in), ShouldBeEmpty)

			in = input(95, now)
			in.Deal.Stage = domain.StageClosed
			So(engine.Decide(in).Outcome, ShouldEqual, OutcomeDealClosed)
		})
	})
}

func TestEvaluateDedup(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	engine := NewEngine(DefaultPolicy())

	Convey("Given a deal that already has a hot lead task", t, func() {
		Convey("A pending task created ten minutes ago suppresses a second one", func() {
			history := TaskRecord{Kind: KindHotLead, Status: domain.TaskStatusPending, IsAutomated: true, CreatedAt: now.Add(-10 * time.Minute)}
			So(engine.Evaluate(input(90, now, history)), ShouldBeEmpty)
			So(engine.Decide(input(90, now, history)).Outcome, ShouldEqual, OutcomeOpenTask)
		})

		Convey("An open task suppresses even after the cooldown", func() {
			history := TaskRecord{Kind: KindHotLead, Status: domain.TaskStatusInProgress, IsAutomated: true, CreatedAt: now.Add(-48 * time.Hour)}
			So(engine.Evaluate(input(90, now, history)), ShouldBeEmpty)
		})

		Convey("A completed task inside the cooldown suppresses", func() {
			history := TaskRecord{Kind: KindHotLead, Status: domain.TaskStatusCompleted, IsAutomated: true, CreatedAt: now.Add(-3 * time.Hour)}
			So(engine.Decide(input(90, now, history)).Outcome, ShouldEqual, OutcomeCooldown)
		})

		Convey("A completed task outside the cooldown does not suppress", func() {
			history := TaskRecord{Kind: KindHotLead, Status: domain.TaskStatusCompleted, IsAutomated: true, CreatedAt: now.Add(-4 * time.Hour)}
			So(engine.Evaluate(input(90, now, history)), ShouldHaveLength, 1)
		})

		Convey("A task of another kind does not suppress", func() {
			history := TaskRecord{Kind: KindWarmFollowUp, Status: domain.TaskStatusPending, IsAutomated: true, CreatedAt: now.Add(-time.Minute)}
			So(engine.Evaluate(input(90, now, history)), ShouldHaveLength, 1)
		})

		Convey("A manual task never suppresses", func() {
			history := TaskRecord{Kind: KindHotLead, Status: domain.TaskStatusPending, IsAutomated: false, CreatedAt: now}
			So(engine.Evaluate(input(90, now, history)), ShouldHaveLength, 1)
		})
	})
}

func TestTasksFollowTheDecision(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	engine := NewEngine(DefaultPolicy())

	Convey("Given decisions taken for several scores", t, func() {
		for _, score := range []int{0, 10, 55, 95} {
			in := input(score, now)
			d := engine.Decide(in)
			tasks := engine.Tasks(d, in)

			if d.Outcome == OutcomeGenerated {
				So(tasks, ShouldHaveLength, 1)
				So(tasks[0].Trigger.Kind, ShouldEqual, d.Rule.Kind)
			} else {
				So(tasks, ShouldBeEmpty)
			}
			So(tasks, ShouldResemble, engine.Evaluate(in))
		}

		Convey("A suppressed decision materialises nothing", func() {
			history := TaskRecord{Kind: KindHotLead, Status: domain.TaskStatusPending, IsAutomated: true, CreatedAt: now}
			in := input(90, now, history)
			So(engine.Tasks(engine.Decide(in), in), ShouldBeEmpty)
		})
	})
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	now := time.Now()
	engine := NewEngine(DefaultPolicy())
	history := []TaskRecord{{Kind: KindColdNurture, Status: domain.TaskStatusDismissed, IsAutomated: true, CreatedAt: now.Add(-30 * 24 * time.Hour)}}
	in := input(30, now, history...)

	engine.Evaluate(in)
	engine.Evaluate(in)

	if len(in.History) != 1 || in.History[0].Status != domain.TaskStatusDismissed {
		t.Fatalf("expected history to be untouched, got %#v", in.History)
	}
}

func TestPolicyValidate(t *testing.T) {
	if reason := DefaultPolicy().Validate(); reason != "" {
		t.Fatalf("expected default policy to be valid, got %q", reason)
	}

	p := DefaultPolicy()
	p.Rules[2].MinScore = 0
	if p.Validate() == "" {
		t.Fatal("expected rule firing on zero score to be rejected")
	}

	p = DefaultPolicy()
	p.Rules[1].Kind = KindHotLead
	if p.Validate() == "" {
		t.Fatal("expected duplicate kinds to be rejected")
	}

	p = DefaultPolicy()
	p.Cooldown = -time.Minute
	if p.Validate() == "" {
		t.Fatal("expected negative cooldown to be rejected")
	}
}

func TestEngineOrdersRulesByThreshold(t *testing.T) {
	p := DefaultPolicy()
	p.Rules[0], p.Rules[2] = p.Rules[2], p.Rules[0]
	engine := NewEngine(p)

	tasks := engine.Evaluate(input(99, time.Now()))
	if len(tasks) != 1 || tasks[0].Trigger.Kind != KindHotLead {
		t.Fatalf("expected hot lead regardless of table order, got %#v", tasks)
	}
}
