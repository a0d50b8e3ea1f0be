// Package lifecycle computes deal stage transitions from an explicit
// transition table. Automatic transitions only move forward; manual actions
// are the only way to reach advanced or closed, and the only way back.
package lifecycle

import (
	"errors"

	"dealflow_backend/internal/deals/domain"
)

var (
	ErrUnknownStage  = errors.New("unknown stage")
	ErrCloseRequired = errors.New("closing a deal requires a resolution")
	ErrAlreadyClosed = errors.New("deal is already closed")
	ErrNoChange      = errors.New("deal is already in that stage")
)

// Trigger tags the condition that moves a deal out of a stage.
type Trigger int

const (
	TriggerDistributed Trigger = iota + 1
	TriggerViewed
	TriggerEngaged
	TriggerQualified
	TriggerManualAdvance
	TriggerManualClose
)

func (t Trigger) String() string {
	switch t {
	case TriggerDistributed:
		return "distributed"
	case TriggerViewed:
		return "viewed"
	case TriggerEngaged:
		return "engaged"
	case TriggerQualified:
		return "qualified"
	case TriggerManualAdvance:
		return "manual_advance"
	case TriggerManualClose:
		return "manual_close"
	default:
		return "unknown"
	}
}

// Automatic reports whether the trigger can fire during a recomputation.
func (t Trigger) Automatic() bool {
	switch t {
	case TriggerDistributed, TriggerViewed, TriggerEngaged, TriggerQualified:
		return true
	default:
		return false
	}
}

// Transition is one row of the table.
type Transition struct {
	From    domain.Stage
	To      domain.Stage
	Trigger Trigger
}

// Facts are what a recomputation knows about the deal.
type Facts struct {
	// Distributed is true once the link has been shared. Any recorded session
	// implies it.
	Distributed bool
	// Viewed is true when a session was recorded for the deal.
	Viewed      bool
	Score       int
	Temperature domain.Temperature
}

// Policy holds the tunable parts of the transition predicates.
type Policy struct {
	// EngagedFloor is the score a deal must exceed to become engaged.
	EngagedFloor int `koanf:"engaged_floor" json:"engagedFloor"`
}

// DefaultPolicy is the production stage policy.
var DefaultPolicy = Policy{EngagedFloor: 20}

// Validate returns a non-empty reason when the policy is unusable.
func (p Policy) Validate() string {
	if p.EngagedFloor < 0 {
		return "engaged floor must not be negative"
	}
	return ""
}

var transitions = []Transition{
	{From: domain.StageCreated, To: domain.StageShared, Trigger: TriggerDistributed},
	{From: domain.StageShared, To: domain.StageAccessed, Trigger: TriggerViewed},
	{From: domain.StageAccessed, To: domain.StageEngaged, Trigger: TriggerEngaged},
	{From: domain.StageEngaged, To: domain.StageQualified, Trigger: TriggerQualified},
	{From: domain.StageQualified, To: domain.StageAdvanced, Trigger: TriggerManualAdvance},
	{From: domain.StageAdvanced, To: domain.StageClosed, Trigger: TriggerManualClose},
}

// Transitions returns a copy of the transition table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// Machine evaluates the transition table. It holds no mutable state.
type Machine struct {
	policy Policy
	byFrom map[domain.Stage]Transition
}

// NewMachine creates a machine for the given policy.
func NewMachine(policy Policy) *Machine {
	byFrom := make(map[domain.Stage]Transition, len(transitions))
	for _, t := range transitions {
		byFrom[t.From] = t
	}
	return &Machine{policy: policy, byFrom: byFrom}
}

func (m *Machine) holds(trigger Trigger, f Facts) bool {
	switch trigger {
	case TriggerDistributed:
		return f.Distributed || f.Viewed
	case TriggerViewed:
		return f.Viewed
	case TriggerEngaged:
		return f.Score > m.policy.EngagedFloor
	case TriggerQualified:
		return f.Temperature == domain.TemperatureWarm || f.Temperature == domain.TemperatureHot
	default:
		return false
	}
}

// Next returns the furthest stage reachable from current through automatic
// transitions whose triggers hold. Several stages may be crossed in one call.
// The result is never before current.
func (m *Machine) Next(current domain.Stage, f Facts) domain.Stage {
	next, _ := m.Walk(current, f)
	return next
}

// Walk is Next that also reports the transitions taken, in order.
func (m *Machine) Walk(current domain.Stage, f Facts) (domain.Stage, []Transition) {
	if !domain.IsKnownStage(current) {
		return current, nil
	}

	stage := current
	var taken []Transition
	for {
		t, ok := m.byFrom[stage]
		if !ok || !t.Trigger.Automatic() || !m.holds(t.Trigger, f) {
			break
		}
		taken = append(taken, t)
		stage = t.To
	}
	return domain.MaxStage(current, stage), taken
}

// ApplyManual validates an agent-driven stage change. Any known stage except
// closed may be targeted, backwards included; closing goes through Close.
func (m *Machine) ApplyManual(current, target domain.Stage) (domain.Stage, error) {
	if !domain.IsKnownStage(target) {
		return current, ErrUnknownStage
	}
	if target == domain.StageClosed {
		return current, ErrCloseRequired
	}
	if target == current {
		return current, ErrNoChange
	}
	return target, nil
}

// Close validates a manual resolution.
func (m *Machine) Close(current domain.Stage) (domain.Stage, error) {
	if current == domain.StageClosed {
		return current, ErrAlreadyClosed
	}
	return domain.StageClosed, nil
}
