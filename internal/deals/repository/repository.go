package repository

import (
	"errors"
	"time"

	"dealflow_backend/internal/deals/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("deal not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrVersionConflict = errors.New("deal was modified concurrently")
	ErrDuplicateLink   = errors.New("a deal already exists for this link")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Deal struct {
	ID              uuid.UUID
	LinkID          string
	Title           string
	ClientID        *uuid.UUID
	AgentID         *uuid.UUID
	ValueCents      int64
	Stage           domain.Stage
	Status          domain.Status
	EngagementScore int
	Temperature     domain.Temperature
	LastActivityAt  *time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Task struct {
	ID                    uuid.UUID
	DealID                uuid.UUID
	ClientID              *uuid.UUID
	AssigneeID            *uuid.UUID
	Type                  domain.TaskType
	Priority              domain.TaskPriority
	Title                 string
	Description           string
	DueDate               time.Time
	Status                domain.TaskStatus
	IsAutomated           bool
	TriggerKind           *string
	TriggerScoreThreshold *int
	TriggerScore          *int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// EngagementSession is one scored browsing session, kept for history.
type EngagementSession struct {
	ID                   uuid.UUID
	DealID               uuid.UUID
	SessionID            string
	StartedAt            *time.Time
	EndedAt              *time.Time
	DurationSeconds      int
	TotalProperties      int
	PropertiesViewed     int
	PropertiesLiked      int
	PropertiesConsidered int
	ReturnVisit          bool
	SessionCompletion    int
	PropertyInteraction  int
	BehavioralIndicators int
	RecencyFactor        int
	TotalScore           int
	Temperature          domain.Temperature
	Signals              []string
	ScoreVersion         string
	RecordedAt           time.Time
}

const dealColumns = `id, link_id, title, client_id, agent_id, value_cents, stage, status,
	engagement_score, temperature, last_activity_at, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(row rowScanner) (Deal, error) {
	var d Deal
	err := row.Scan(
		&d.ID, &d.LinkID, &d.Title, &d.ClientID, &d.AgentID, &d.ValueCents, &d.Stage, &d.Status,
		&d.EngagementScore, &d.Temperature, &d.LastActivityAt, &d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}
