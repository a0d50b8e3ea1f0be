// Package events defines the deal domain events. The bus itself lives in
// platform/events; its types are aliased here so modules need one import.
package events

import (
	"time"

	"dealflow_backend/platform/events"
	"dealflow_backend/platform/logger"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Deal Domain Events
// =============================================================================

// DealScored is published after every successful recomputation.
type DealScored struct {
	BaseEvent
	DealID      uuid.UUID  `json:"dealId"`
	AgentID     *uuid.UUID `json:"agentId,omitempty"`
	Score       int        `json:"score"`
	Temperature string     `json:"temperature"`
	SessionID   string     `json:"sessionId"`
}

func (e DealScored) EventName() string { return "deals.deal.scored" }

// DealStageChanged is published when a deal moves to another stage,
// automatically or through a manual action.
type DealStageChanged struct {
	BaseEvent
	DealID   uuid.UUID  `json:"dealId"`
	AgentID  *uuid.UUID `json:"agentId,omitempty"`
	OldStage string     `json:"oldStage"`
	NewStage string     `json:"newStage"`
	Manual   bool       `json:"manual"`
	Reason   string     `json:"reason,omitempty"`
}

func (e DealStageChanged) EventName() string { return "deals.deal.stage_changed" }

// TaskGenerated is published for each task created by an automation rule.
type TaskGenerated struct {
	BaseEvent
	TaskID      uuid.UUID  `json:"taskId"`
	DealID      uuid.UUID  `json:"dealId"`
	AgentID     *uuid.UUID `json:"agentId,omitempty"`
	DealTitle   string     `json:"dealTitle"`
	Title       string     `json:"title"`
	Priority    string     `json:"priority"`
	TriggerKind string     `json:"triggerKind"`
	DueDate     time.Time  `json:"dueDate"`
}

func (e TaskGenerated) EventName() string { return "deals.task.generated" }

// TaskOverdue is published when the overdue sweep flags a task.
type TaskOverdue struct {
	BaseEvent
	TaskID  uuid.UUID  `json:"taskId"`
	DealID  uuid.UUID  `json:"dealId"`
	AgentID *uuid.UUID `json:"agentId,omitempty"`
	Title   string     `json:"title"`
	DueDate time.Time  `json:"dueDate"`
}

func (e TaskOverdue) EventName() string { return "deals.task.overdue" }
