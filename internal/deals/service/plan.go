package service

import (
	"time"

	"dealflow_backend/internal/deals/automation"
	"dealflow_backend/internal/deals/domain"
	"dealflow_backend/internal/deals/engagement"
	"dealflow_backend/internal/deals/lifecycle"
	"dealflow_backend/internal/deals/policy"
	"dealflow_backend/internal/deals/repository"
)

// PlanInput is the snapshot a recomputation works on.
type PlanInput struct {
	Deal    repository.Deal
	Session engagement.SessionData
	History []automation.TaskRecord
	Now     time.Time
}

// Plan is everything a recomputation decided, before any side effect.
type Plan struct {
	// ActivityAt is the session activity time recency was scored against;
	// it is what gets persisted as the deal's last activity.
	ActivityAt  time.Time
	Metrics     engagement.Metrics
	Temperature domain.Temperature
	Insights    []string
	Stage       domain.Stage
	Status      domain.Status
	Transitions []lifecycle.Transition
	Decision    automation.Decision
	Tasks       []automation.Task
}

// StageChanged reports whether the plan moves the deal.
func (p Plan) StageChanged(from domain.Stage) bool {
	return p.Stage != from
}

// Planner chains scoring, classification, the stage machine and the rule
// engine. It holds no mutable state.
type Planner struct {
	scorer  *engagement.Engine
	machine *lifecycle.Machine
	rules   *automation.Engine
}

func NewPlanner(p policy.Policy) *Planner {
	return &Planner{
		scorer:  engagement.NewEngine(p.Weights, p.Thresholds),
		machine: lifecycle.NewMachine(p.Lifecycle),
		rules:   automation.NewEngine(p.Automation),
	}
}

// Machine exposes the stage machine for manual transitions.
func (p *Planner) Machine() *lifecycle.Machine {
	return p.machine
}

// Cooldown is the task-history window the planner needs.
func (p *Planner) Cooldown() time.Duration {
	return p.rules.Cooldown()
}

// Plan is pure: the same input always yields the same plan.
func (p *Planner) Plan(in PlanInput) Plan {
	metrics := p.scorer.Score(in.Session, in.Deal.LastActivityAt, in.Now)
	activityAt := in.Session.Normalize().ReportedAt(in.Now)
	temperature := p.scorer.Classify(metrics.TotalScore)

	stage, taken := p.machine.Walk(in.Deal.Stage, lifecycle.Facts{
		Distributed: true,
		Viewed:      in.Session.Normalize().PropertiesViewed > 0,
		Score:       metrics.TotalScore,
		Temperature: temperature,
	})
	status := domain.DeriveStatus(in.Deal.Status, temperature, metrics.TotalScore)
	insights := p.scorer.Insights(metrics)

	ruleInput := automation.Input{
		Deal: automation.DealSnapshot{
			ID:       in.Deal.ID,
			ClientID: in.Deal.ClientID,
			Title:    in.Deal.Title,
			Stage:    stage,
			Status:   status,
		},
		Metrics:     metrics,
		Temperature: temperature,
		Insights:    insights,
		History:     in.History,
		Now:         in.Now,
	}
	decision := p.rules.Decide(ruleInput)

	return Plan{
		ActivityAt:  activityAt,
		Metrics:     metrics,
		Temperature: temperature,
		Insights:    insights,
		Stage:       stage,
		Status:      status,
		Transitions: taken,
		Decision:    decision,
		Tasks:       p.rules.Tasks(decision, ruleInput),
	}
}

func taskRecords(tasks []repository.Task) []automation.TaskRecord {
	records := make([]automation.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		if t.TriggerKind == nil {
			continue
		}
		records = append(records, automation.TaskRecord{
			Kind:        automation.Kind(*t.TriggerKind),
			Status:      t.Status,
			IsAutomated: t.IsAutomated,
			CreatedAt:   t.CreatedAt,
		})
	}
	return records
}
