package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// DealReader provides read-only access to deals.
type DealReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Deal, error)
	List(ctx context.Context, params ListParams) ([]Deal, int, error)
}

// DealWriter provides deal creation and manual lifecycle updates.
type DealWriter interface {
	Create(ctx context.Context, params CreateDealParams) (Deal, error)
	UpdateLifecycle(ctx context.Context, id uuid.UUID, expectedVersion int, params LifecycleUpdate) (Deal, error)
}

// ScoreCommitter persists the primary effect of a recomputation atomically.
type ScoreCommitter interface {
	CommitScore(ctx context.Context, params ScoreCommit) (Deal, error)
}

// SessionReader provides the engagement history of a deal.
type SessionReader interface {
	ListSessions(ctx context.Context, dealID uuid.UUID, limit int) ([]EngagementSession, error)
}

// TaskReader provides read access to tasks.
type TaskReader interface {
	GetTask(ctx context.Context, id uuid.UUID) (Task, error)
	ListAutomatedHistory(ctx context.Context, dealID uuid.UUID, since time.Time) ([]Task, error)
	ListTasksByDeal(ctx context.Context, dealID uuid.UUID) ([]Task, error)
	ListTasks(ctx context.Context, params TaskListParams) ([]Task, int, error)
}

// TaskWriter provides task persistence.
type TaskWriter interface {
	InsertTask(ctx context.Context, task Task) (Task, error)
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, status string) (Task, error)
	MarkTaskOverdue(ctx context.Context, id uuid.UUID, now time.Time) (Task, error)
	MarkDueTasksOverdue(ctx context.Context, now time.Time, limit int) ([]Task, error)
}

// DealRepository composes every interface the deal service needs.
type DealRepository interface {
	DealReader
	DealWriter
	ScoreCommitter
	SessionReader
	TaskReader
	TaskWriter
}

var _ DealRepository = (*Repository)(nil)
