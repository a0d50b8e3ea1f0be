package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealflow_backend/internal/deals/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type CreateDealParams struct {
	LinkID     string
	Title      string
	ClientID   *uuid.UUID
	AgentID    *uuid.UUID
	ValueCents int64
}

func (r *Repository) Create(ctx context.Context, params CreateDealParams) (Deal, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO deals (id, link_id, title, client_id, agent_id, value_cents, stage, status, temperature)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+dealColumns,
		uuid.New(), params.LinkID, params.Title, params.ClientID, params.AgentID, params.ValueCents,
		domain.StageCreated, domain.StatusActive, domain.TemperatureCold,
	)

	deal, err := scanDeal(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Deal{}, ErrDuplicateLink
	}
	return deal, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Deal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id)
	deal, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, ErrNotFound
	}
	return deal, err
}

// LifecycleUpdate carries a manual change. Nil fields are left untouched.
type LifecycleUpdate struct {
	Stage  *domain.Stage
	Status *domain.Status
}

func (r *Repository) UpdateLifecycle(ctx context.Context, id uuid.UUID, expectedVersion int, params LifecycleUpdate) (Deal, error) {
	setClauses := []string{"version = version + 1", "updated_at = now()"}
	args := []interface{}{}
	argIdx := 1

	if params.Stage != nil {
		setClauses = append(setClauses, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, *params.Stage)
		argIdx++
	}
	if params.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}

	args = append(args, id, expectedVersion)
	query := fmt.Sprintf(`
		UPDATE deals SET %s
		WHERE id = $%d AND version = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, argIdx+1, dealColumns)

	deal, err := scanDeal(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, r.missingOrConflict(ctx, id)
	}
	return deal, err
}

// ScoreCommit is the primary effect of a recomputation.
type ScoreCommit struct {
	DealID          uuid.UUID
	ExpectedVersion int
	Stage           domain.Stage
	Status          domain.Status
	Score           int
	Temperature     domain.Temperature
	LastActivityAt  time.Time
	Session         EngagementSession
}

// CommitScore updates the deal and records the session in one transaction.
// It fails with ErrVersionConflict when the deal changed since it was read.
func (r *Repository) CommitScore(ctx context.Context, params ScoreCommit) (Deal, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Deal{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deal, err := scanDeal(tx.QueryRow(ctx, `
		UPDATE deals SET
			stage = $3, status = $4, engagement_score = $5, temperature = $6,
			last_activity_at = GREATEST(COALESCE(last_activity_at, $7), $7),
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+dealColumns,
		params.DealID, params.ExpectedVersion, params.Stage, params.Status,
		params.Score, params.Temperature, params.LastActivityAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, r.missingOrConflict(ctx, params.DealID)
	}
	if err != nil {
		return Deal{}, err
	}

	s := params.Session
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Signals == nil {
		s.Signals = []string{}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO engagement_sessions (
			id, deal_id, session_id, started_at, ended_at, duration_seconds,
			total_properties, properties_viewed, properties_liked, properties_considered, return_visit,
			session_completion, property_interaction, behavioral_indicators, recency_factor,
			total_score, temperature, signals, score_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		s.ID, params.DealID, s.SessionID, s.StartedAt, s.EndedAt, s.DurationSeconds,
		s.TotalProperties, s.PropertiesViewed, s.PropertiesLiked, s.PropertiesConsidered, s.ReturnVisit,
		s.SessionCompletion, s.PropertyInteraction, s.BehavioralIndicators, s.RecencyFactor,
		s.TotalScore, s.Temperature, s.Signals, s.ScoreVersion,
	)
	if err != nil {
		return Deal{}, fmt.Errorf("insert engagement session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Deal{}, err
	}
	return deal, nil
}

func (r *Repository) missingOrConflict(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM deals WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *Repository) ListSessions(ctx context.Context, dealID uuid.UUID, limit int) ([]EngagementSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, deal_id, session_id, started_at, ended_at, duration_seconds,
			total_properties, properties_viewed, properties_liked, properties_considered, return_visit,
			session_completion, property_interaction, behavioral_indicators, recency_factor,
			total_score, temperature, signals, score_version, recorded_at
		FROM engagement_sessions
		WHERE deal_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`, dealID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]EngagementSession, 0)
	for rows.Next() {
		var s EngagementSession
		if err := rows.Scan(
			&s.ID, &s.DealID, &s.SessionID, &s.StartedAt, &s.EndedAt, &s.DurationSeconds,
			&s.TotalProperties, &s.PropertiesViewed, &s.PropertiesLiked, &s.PropertiesConsidered, &s.ReturnVisit,
			&s.SessionCompletion, &s.PropertyInteraction, &s.BehavioralIndicators, &s.RecencyFactor,
			&s.TotalScore, &s.Temperature, &s.Signals, &s.ScoreVersion, &s.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
