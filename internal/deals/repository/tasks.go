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
)

const taskColumns = `id, deal_id, client_id, assignee_id, type, priority, title, description, due_date,
	status, is_automated, trigger_kind, trigger_score_threshold, trigger_score, created_at, updated_at`

func scanTask(row rowScanner) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.DealID, &t.ClientID, &t.AssigneeID, &t.Type, &t.Priority, &t.Title, &t.Description, &t.DueDate,
		&t.Status, &t.IsAutomated, &t.TriggerKind, &t.TriggerScoreThreshold, &t.TriggerScore, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func collectTasks(rows pgx.Rows) ([]Task, error) {
	defer rows.Close()
	items := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (r *Repository) InsertTask(ctx context.Context, task Task) (Task, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO deal_tasks (
			id, deal_id, client_id, assignee_id, type, priority, title, description, due_date,
			status, is_automated, trigger_rule, trigger_kind, trigger_score_threshold, trigger_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12, $13, $14)
		RETURNING `+taskColumns,
		task.ID, task.DealID, task.ClientID, task.AssigneeID, task.Type, task.Priority, task.Title, task.Description, task.DueDate,
		task.Status, task.IsAutomated, task.TriggerKind, task.TriggerScoreThreshold, task.TriggerScore,
	)
	return scanTask(row)
}

func (r *Repository) GetTask(ctx context.Context, id uuid.UUID) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM deal_tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return t, err
}

// ListAutomatedHistory returns the automated tasks of a deal that can still
// affect dedup: every open task, plus anything created since the given time.
func (r *Repository) ListAutomatedHistory(ctx context.Context, dealID uuid.UUID, since time.Time) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM deal_tasks
		WHERE deal_id = $1 AND is_automated
			AND (status NOT IN ('completed', 'dismissed') OR created_at >= $2)
		ORDER BY created_at DESC
	`, dealID, since)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *Repository) ListTasksByDeal(ctx context.Context, dealID uuid.UUID) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM deal_tasks
		WHERE deal_id = $1
		ORDER BY created_at DESC
	`, dealID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

type TaskListParams struct {
	Status     *string
	Priority   *string
	AssigneeID *uuid.UUID
	DueBefore  *time.Time
	Offset     int
	Limit      int
}

func (r *Repository) ListTasks(ctx context.Context, params TaskListParams) ([]Task, int, error) {
	whereClause, args, argIdx := buildTaskListWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM deal_tasks t WHERE %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM deal_tasks t
		WHERE %s
		ORDER BY t.due_date ASC, t.id
		LIMIT $%d OFFSET $%d
	`, taskColumns, whereClause, argIdx, argIdx+1), args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func buildTaskListWhere(params TaskListParams) (string, []interface{}, int) {
	whereClauses := []string{"1 = 1"}
	args := []interface{}{}
	argIdx := 1

	addClause := func(format string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(format, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Status != nil {
		addClause("t.status = $%d", *params.Status)
	}
	if params.Priority != nil {
		addClause("t.priority = $%d", *params.Priority)
	}
	if params.AssigneeID != nil {
		addClause("t.assignee_id = $%d", *params.AssigneeID)
	}
	if params.DueBefore != nil {
		addClause("t.due_date < $%d", *params.DueBefore)
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func (r *Repository) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status string) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE deal_tasks SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return t, err
}

// MarkTaskOverdue flags a single task when it is still pending or in
// progress past its due date. ErrTaskNotFound means there was nothing to do.
func (r *Repository) MarkTaskOverdue(ctx context.Context, id uuid.UUID, now time.Time) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE deal_tasks SET status = 'overdue', updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'in_progress') AND due_date <= $2
		RETURNING `+taskColumns, id, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return t, err
}

// MarkDueTasksOverdue is the periodic sweep counterpart of MarkTaskOverdue.
func (r *Repository) MarkDueTasksOverdue(ctx context.Context, now time.Time, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `
		UPDATE deal_tasks SET status = 'overdue', updated_at = now()
		WHERE id IN (
			SELECT id FROM deal_tasks
			WHERE status IN ('pending', 'in_progress') AND due_date <= $1
			ORDER BY due_date
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+taskColumns, now, limit)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}
