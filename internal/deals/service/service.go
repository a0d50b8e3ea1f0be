// Package service is the deal aggregate: it turns telemetry into a committed
// score, stage and follow-up tasks, and serves the agent-facing reads.
package service

import (
	"context"
	"errors"
	"time"

	"dealflow_backend/internal/deals/automation"
	"dealflow_backend/internal/deals/domain"
	"dealflow_backend/internal/deals/engagement"
	"dealflow_backend/internal/deals/policy"
	"dealflow_backend/internal/deals/repository"
	"dealflow_backend/internal/events"
	"dealflow_backend/platform/apperr"
	"dealflow_backend/platform/lock"
	"dealflow_backend/platform/logger"
	"dealflow_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	maxCommitAttempts = 3
	msgDealNotFound   = "deal not found"
	msgTaskNotFound   = "task not found"
)

// Repository is everything the deal service reads and writes.
type Repository interface {
	repository.DealReader
	repository.DealWriter
	repository.ScoreCommitter
	repository.SessionReader
	repository.TaskReader
	repository.TaskWriter
}

// OverdueScheduler enqueues the overdue check of a generated task.
type OverdueScheduler interface {
	ScheduleTaskOverdueCheck(ctx context.Context, taskID uuid.UUID, dueAt time.Time) error
}

type Service struct {
	repo      Repository
	planner   *Planner
	locker    lock.Locker
	bus       events.Bus
	scheduler OverdueScheduler
	metrics   *metrics.Manager
	log       *logger.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithScheduler(s OverdueScheduler) Option {
	return func(svc *Service) { svc.scheduler = s }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(svc *Service) { svc.metrics = m }
}

func WithLocker(l lock.Locker) Option {
	return func(svc *Service) { svc.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

func New(repo Repository, pol policy.Policy, bus events.Bus, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		planner: NewPlanner(pol),
		locker:  lock.NewKeyedMutex(),
		bus:     bus,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecomputeResult is returned to the caller that reported the session.
type RecomputeResult struct {
	Deal           repository.Deal
	Metrics        engagement.Metrics
	Temperature    domain.Temperature
	Insights       []string
	TasksGenerated []repository.Task
	PreviousStage  domain.Stage
	StageChanged   bool
}

// Recompute scores a session against its deal, commits score, stage and
// status together with the session record, then runs task automation.
// Automation failures are logged and counted but never returned.
func (s *Service) Recompute(ctx context.Context, dealID uuid.UUID, session engagement.SessionData) (RecomputeResult, error) {
	start := time.Now()
	result, err := s.recompute(ctx, dealID, session)
	s.metrics.RecordRecompute(recomputeOutcome(err), float64(time.Since(start).Milliseconds()))
	return result, err
}

func (s *Service) recompute(ctx context.Context, dealID uuid.UUID, session engagement.SessionData) (RecomputeResult, error) {
	unlock, err := s.locker.Acquire(ctx, dealLockKey(dealID))
	if err != nil {
		return RecomputeResult{}, apperr.Wrap(apperr.KindUnavailable, "deal is busy, retry later", err).WithOp("deals.Recompute")
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	var (
		previous  repository.Deal
		committed repository.Deal
		plan      Plan
	)
	for attempt := 1; ; attempt++ {
		previous, plan, err = s.planRecompute(ctx, dealID, session)
		if err != nil {
			return RecomputeResult{}, err
		}

		committed, err = s.repo.CommitScore(ctx, repository.ScoreCommit{
			DealID:          dealID,
			ExpectedVersion: previous.Version,
			Stage:           plan.Stage,
			Status:          plan.Status,
			Score:           plan.Metrics.TotalScore,
			Temperature:     plan.Temperature,
			LastActivityAt:  plan.ActivityAt,
			Session:         sessionRecord(session, plan),
		})
		if errors.Is(err, repository.ErrVersionConflict) && attempt < maxCommitAttempts {
			continue
		}
		if err != nil {
			return RecomputeResult{}, mapDealError(err, "deals.Recompute")
		}
		break
	}

	result := RecomputeResult{
		Deal:          committed,
		Metrics:       plan.Metrics,
		Temperature:   plan.Temperature,
		Insights:      plan.Insights,
		PreviousStage: previous.Stage,
		StageChanged:  plan.StageChanged(previous.Stage),
	}

	s.metrics.ObserveScore(plan.Metrics.TotalScore, string(plan.Temperature))
	for _, t := range plan.Transitions {
		s.metrics.RecordStageTransition(string(t.From), string(t.To), false)
	}
	s.publishScored(ctx, committed, plan, session.SessionID, previous.Stage)

	result.TasksGenerated = s.applyAutomation(ctx, committed, plan)

	s.log.WithContext(ctx).DealScored(dealID.String(), plan.Metrics.TotalScore, string(plan.Temperature), string(committed.Stage), len(result.TasksGenerated))
	return result, nil
}

// planRecompute loads the deal and its automated task history concurrently
// and plans against them.
func (s *Service) planRecompute(ctx context.Context, dealID uuid.UUID, session engagement.SessionData) (repository.Deal, Plan, error) {
	now := s.now()

	var (
		deal    repository.Deal
		history []repository.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deal, err = s.repo.GetByID(gctx, dealID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.repo.ListAutomatedHistory(gctx, dealID, now.Add(-s.planner.Cooldown()))
		return err
	})
	if err := g.Wait(); err != nil {
		return repository.Deal{}, Plan{}, mapDealError(err, "deals.Recompute")
	}

	plan := s.planner.Plan(PlanInput{
		Deal:    deal,
		Session: session,
		History: taskRecords(history),
		Now:     now,
	})
	return deal, plan, nil
}

func (s *Service) publishScored(ctx context.Context, deal repository.Deal, plan Plan, sessionID string, previousStage domain.Stage) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.DealScored{
		BaseEvent:   events.NewBaseEvent(s.now()),
		DealID:      deal.ID,
		AgentID:     deal.AgentID,
		Score:       plan.Metrics.TotalScore,
		Temperature: string(plan.Temperature),
		SessionID:   sessionID,
	})
	if deal.Stage != previousStage {
		s.bus.Publish(ctx, events.DealStageChanged{
			BaseEvent: events.NewBaseEvent(s.now()),
			DealID:    deal.ID,
			AgentID:   deal.AgentID,
			OldStage:  string(previousStage),
			NewStage:  string(deal.Stage),
		})
	}
}

// applyAutomation persists the planned tasks. Each failure is isolated.
func (s *Service) applyAutomation(ctx context.Context, deal repository.Deal, plan Plan) []repository.Task {
	if rule := plan.Decision.Rule; rule != nil {
		switch plan.Decision.Outcome {
		case automation.OutcomeOpenTask, automation.OutcomeCooldown:
			s.metrics.RecordTaskSuppressed(string(rule.Kind), string(plan.Decision.Outcome))
		}
	}

	created := make([]repository.Task, 0, len(plan.Tasks))
	for _, t := range plan.Tasks {
		task, err := s.repo.InsertTask(ctx, taskRecord(t, deal.AgentID))
		if err != nil {
			s.automationFailed(ctx, deal.ID, "insert_task", err)
			continue
		}
		created = append(created, task)
		s.metrics.RecordTaskGenerated(string(t.Trigger.Kind), string(t.Priority))

		if s.bus != nil {
			s.bus.Publish(ctx, events.TaskGenerated{
				BaseEvent:   events.NewBaseEvent(s.now()),
				TaskID:      task.ID,
				DealID:      deal.ID,
				AgentID:     deal.AgentID,
				DealTitle:   deal.Title,
				Title:       task.Title,
				Priority:    string(task.Priority),
				TriggerKind: string(t.Trigger.Kind),
				DueDate:     task.DueDate,
			})
		}

		if s.scheduler != nil {
			if err := s.scheduler.ScheduleTaskOverdueCheck(ctx, task.ID, task.DueDate); err != nil {
				s.automationFailed(ctx, deal.ID, "schedule_overdue_check", err)
			}
		}
	}
	return created
}

func (s *Service) automationFailed(ctx context.Context, dealID uuid.UUID, step string, err error) {
	s.log.WithContext(ctx).AutomationFailure(dealID.String(), step, err)
	s.metrics.RecordAutomationFailure(step)
}

func dealLockKey(id uuid.UUID) string {
	return "deal:" + id.String()
}

func recomputeOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case apperr.Is(err, apperr.KindNotFound):
		return metrics.OutcomeNotFound
	case apperr.Is(err, apperr.KindConflict), apperr.Is(err, apperr.KindUnavailable):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}

func mapDealError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(msgDealNotFound).WithOp(op)
	case errors.Is(err, repository.ErrVersionConflict):
		return apperr.Wrap(apperr.KindConflict, "deal was modified concurrently, retry", err).WithOp(op)
	case errors.Is(err, repository.ErrDuplicateLink):
		return apperr.Conflict("a deal already exists for this link").WithOp(op)
	default:
		return err
	}
}

func taskRecord(t automation.Task, assignee *uuid.UUID) repository.Task {
	kind := string(t.Trigger.Kind)
	threshold := t.Trigger.ScoreThreshold
	score := t.Trigger.Score
	return repository.Task{
		DealID:                t.DealID,
		ClientID:              t.ClientID,
		AssigneeID:            assignee,
		Type:                  t.Type,
		Priority:              t.Priority,
		Title:                 t.Title,
		Description:           t.Description,
		DueDate:               t.DueDate,
		Status:                domain.TaskStatusPending,
		IsAutomated:           true,
		TriggerKind:           &kind,
		TriggerScoreThreshold: &threshold,
		TriggerScore:          &score,
	}
}

func sessionRecord(session engagement.SessionData, plan Plan) repository.EngagementSession {
	n := session.Normalize()
	signals := make([]string, 0, len(plan.Metrics.Signals))
	for _, sig := range plan.Metrics.Signals {
		signals = append(signals, string(sig))
	}
	return repository.EngagementSession{
		SessionID:            n.SessionID,
		StartedAt:            optionalTime(n.StartTime),
		EndedAt:              optionalTime(n.EndTime),
		DurationSeconds:      n.Duration,
		TotalProperties:      n.TotalProperties,
		PropertiesViewed:     n.PropertiesViewed,
		PropertiesLiked:      n.PropertiesLiked,
		PropertiesConsidered: n.PropertiesConsidered,
		ReturnVisit:          n.ReturnVisit,
		SessionCompletion:    plan.Metrics.SessionCompletion,
		PropertyInteraction:  plan.Metrics.PropertyInteraction,
		BehavioralIndicators: plan.Metrics.BehavioralIndicators,
		RecencyFactor:        plan.Metrics.RecencyFactor,
		TotalScore:           plan.Metrics.TotalScore,
		Temperature:          plan.Temperature,
		Signals:              signals,
		ScoreVersion:         plan.Metrics.Version,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
