package automation

import (
	"strconv"
	"strings"
	"time"

	"dealflow_backend/internal/deals/domain"
	"dealflow_backend/internal/deals/engagement"

	"github.com/google/uuid"
)

// DealSnapshot is the part of a deal the rules look at.
type DealSnapshot struct {
	ID       uuid.UUID
	ClientID *uuid.UUID
	Title    string
	Stage    domain.Stage
	Status   domain.Status
}

// TaskRecord is an existing task of the deal, as far as dedup cares.
type TaskRecord struct {
	Kind        Kind
	Status      domain.TaskStatus
	IsAutomated bool
	CreatedAt   time.Time
}

// Input is everything one evaluation needs.
type Input struct {
	Deal        DealSnapshot
	Metrics     engagement.Metrics
	Temperature domain.Temperature
	Insights    []string
	History     []TaskRecord
	Now         time.Time
}

// Trigger records which rule fired and why.
type Trigger struct {
	Kind           Kind               `json:"kind"`
	ScoreThreshold int                `json:"scoreThreshold"`
	Score          int                `json:"score"`
	Temperature    domain.Temperature `json:"temperature"`
}

// Task is a new automated task, not yet persisted.
type Task struct {
	DealID      uuid.UUID
	ClientID    *uuid.UUID
	Type        domain.TaskType
	Priority    domain.TaskPriority
	Title       string
	Description string
	DueDate     time.Time
	Trigger     Trigger
}

// Outcome explains an evaluation.
type Outcome string

const (
	OutcomeGenerated  Outcome = "generated"
	OutcomeNoRule     Outcome = "no_rule"
	OutcomeDealClosed Outcome = "deal_closed"
	OutcomeOpenTask   Outcome = "open_task"
	OutcomeCooldown   Outcome = "cooldown"
)

// Decision is the result of Decide. Rule is nil when nothing matched.
type Decision struct {
	Outcome Outcome
	Rule    *Rule
}

// Engine evaluates a Policy.
type Engine struct {
	rules    []Rule
	cooldown time.Duration
}

// NewEngine creates an engine for the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{rules: policy.ordered(), cooldown: policy.Cooldown}
}

// Cooldown returns the configured dedup window.
func (e *Engine) Cooldown() time.Duration {
	return e.cooldown
}

// Decide picks the first matching rule and applies the dedup policy.
func (e *Engine) Decide(in Input) Decision {
	if domain.IsClosed(in.Deal.Stage, in.Deal.Status) {
		return Decision{Outcome: OutcomeDealClosed}
	}

	score := in.Metrics.TotalScore
	var match *Rule
	for i := range e.rules {
		if e.rules[i].Matches(score) {
			match = &e.rules[i]
			break
		}
	}
	if match == nil {
		return Decision{Outcome: OutcomeNoRule}
	}

	if outcome, dup := e.duplicate(match.Kind, in.History, in.Now); dup {
		return Decision{Outcome: outcome, Rule: match}
	}
	return Decision{Outcome: OutcomeGenerated, Rule: match}
}

// IsDuplicate reports whether a task of kind would duplicate history at now.
func (e *Engine) IsDuplicate(kind Kind, history []TaskRecord, now time.Time) bool {
	_, dup := e.duplicate(kind, history, now)
	return dup
}

func (e *Engine) duplicate(kind Kind, history []TaskRecord, now time.Time) (Outcome, bool) {
	for _, rec := range history {
		if !rec.IsAutomated || rec.Kind != kind {
			continue
		}
		if domain.IsOpenTaskStatus(rec.Status) {
			return OutcomeOpenTask, true
		}
		if now.Sub(rec.CreatedAt) < e.cooldown {
			return OutcomeCooldown, true
		}
	}
	return "", false
}

// Evaluate returns at most one new task. It never mutates in.
func (e *Engine) Evaluate(in Input) []Task {
	return e.Tasks(e.Decide(in), in)
}

// Tasks materialises a decision: one task when it generated, none otherwise.
// Callers that already hold a Decision use it so the two cannot disagree.
func (e *Engine) Tasks(d Decision, in Input) []Task {
	if d.Outcome != OutcomeGenerated || d.Rule == nil {
		return nil
	}
	return []Task{e.Build(*d.Rule, in)}
}

// Build renders the task r produces for in.
func (e *Engine) Build(r Rule, in Input) Task {
	score := in.Metrics.TotalScore
	repl := strings.NewReplacer(
		"{deal}", dealLabel(in.Deal),
		"{score}", strconv.Itoa(score),
		"{temperature}", string(in.Temperature),
		"{insights}", strings.Join(in.Insights, "; "),
	)

	return Task{
		DealID:      in.Deal.ID,
		ClientID:    in.Deal.ClientID,
		Type:        r.TaskType,
		Priority:    r.Priority,
		Title:       strings.TrimSpace(repl.Replace(r.Title)),
		Description: strings.TrimSpace(repl.Replace(r.Description)),
		DueDate:     in.Now.Add(r.DueIn),
		Trigger: Trigger{
			Kind:           r.Kind,
			ScoreThreshold: r.MinScore,
			Score:          score,
			Temperature:    in.Temperature,
		},
	}
}

func dealLabel(d DealSnapshot) string {
	if t := strings.TrimSpace(d.Title); t != "" {
		return t
	}
	return "deal " + d.ID.String()
}
