package service

import (
	"context"
	"errors"

	"dealflow_backend/internal/deals/domain"
	"dealflow_backend/internal/deals/repository"
	"dealflow_backend/internal/deals/transport"
	"dealflow_backend/internal/events"
	"dealflow_backend/platform/apperr"

	"github.com/google/uuid"
)

func (s *Service) ListDealTasks(ctx context.Context, dealID uuid.UUID) ([]transport.TaskResponse, error) {
	if _, err := s.repo.GetByID(ctx, dealID); err != nil {
		return nil, mapDealError(err, "tasks.ListByDeal")
	}
	tasks, err := s.repo.ListTasksByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	return toTaskResponses(tasks), nil
}

// ListTasks is the agent task queue, ordered by due date.
func (s *Service) ListTasks(ctx context.Context, req transport.ListTasksRequest) (transport.TaskListResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)
	params := repository.TaskListParams{
		AssigneeID: req.AssigneeID,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
	if req.Status != "" {
		params.Status = &req.Status
	}
	if req.Priority != "" {
		params.Priority = &req.Priority
	}

	tasks, total, err := s.repo.ListTasks(ctx, params)
	if err != nil {
		return transport.TaskListResponse{}, err
	}
	return transport.TaskListResponse{Data: toTaskResponses(tasks), Pagination: paginate(page, limit, total)}, nil
}

func (s *Service) UpdateTaskStatus(ctx context.Context, id uuid.UUID, req transport.UpdateTaskStatusRequest) (transport.TaskResponse, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return transport.TaskResponse{}, mapTaskError(err, "tasks.UpdateStatus")
	}

	next := domain.TaskStatus(req.Status)
	if next == task.Status {
		return ToTaskResponse(task), nil
	}
	if reason := domain.ValidateTaskTransition(task.Status, next); reason != "" {
		return transport.TaskResponse{}, apperr.Validation(reason).WithDetails(map[string]string{
			"from": string(task.Status),
			"to":   string(next),
		})
	}

	updated, err := s.repo.UpdateTaskStatus(ctx, id, string(next))
	if err != nil {
		return transport.TaskResponse{}, mapTaskError(err, "tasks.UpdateStatus")
	}
	return ToTaskResponse(updated), nil
}

// MarkTaskOverdue is run by the scheduler at a task's due date. A task that
// was resolved or rescheduled meanwhile is left alone.
func (s *Service) MarkTaskOverdue(ctx context.Context, id uuid.UUID) error {
	task, err := s.repo.MarkTaskOverdue(ctx, id, s.now())
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.taskOverdue(ctx, task)
	return nil
}

// SweepOverdue flags every pending task past its due date, for checks that
// were never scheduled or got lost.
func (s *Service) SweepOverdue(ctx context.Context, limit int) (int, error) {
	tasks, err := s.repo.MarkDueTasksOverdue(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}
	for _, t := range tasks {
		s.taskOverdue(ctx, t)
	}
	return len(tasks), nil
}

func (s *Service) taskOverdue(ctx context.Context, task repository.Task) {
	s.metrics.RecordTaskOverdue()
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.TaskOverdue{
		BaseEvent: events.NewBaseEvent(s.now()),
		TaskID:    task.ID,
		DealID:    task.DealID,
		AgentID:   task.AssigneeID,
		Title:     task.Title,
		DueDate:   task.DueDate,
	})
}

func mapTaskError(err error, op string) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return apperr.NotFound(msgTaskNotFound).WithOp(op)
	}
	return err
}
