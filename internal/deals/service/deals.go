package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"dealflow_backend/internal/deals/domain"
	"dealflow_backend/internal/deals/lifecycle"
	"dealflow_backend/internal/deals/repository"
	"dealflow_backend/internal/deals/transport"
	"dealflow_backend/internal/events"
	"dealflow_backend/platform/apperr"
	"dealflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPage         = 1
	defaultLimit        = 20
	defaultHistoryLimit = 50
)

func (s *Service) CreateDeal(ctx context.Context, req transport.CreateDealRequest) (transport.DealResponse, error) {
	title := sanitize.Text(req.Title)
	if title == "" {
		return transport.DealResponse{}, apperr.Validation("title must contain text")
	}
	deal, err := s.repo.Create(ctx, repository.CreateDealParams{
		LinkID:     strings.TrimSpace(req.LinkID),
		Title:      title,
		ClientID:   req.ClientID,
		AgentID:    req.AgentID,
		ValueCents: req.ValueCents,
	})
	if err != nil {
		return transport.DealResponse{}, mapDealError(err, "deals.Create")
	}
	return ToDealResponse(deal), nil
}

func (s *Service) GetDeal(ctx context.Context, id uuid.UUID) (transport.DealResponse, error) {
	deal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DealResponse{}, mapDealError(err, "deals.Get")
	}
	return ToDealResponse(deal), nil
}

// GetDeals returns one page of deals matching the filters.
func (s *Service) GetDeals(ctx context.Context, req transport.ListDealsRequest) (transport.DealListResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)

	params := repository.ListParams{
		Search:         req.Search,
		AgentID:        req.AgentID,
		ValueCentsFrom: req.MinValue,
		ValueCentsTo:   req.MaxValue,
		Offset:         (page - 1) * limit,
		Limit:          limit,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}
	if req.Status != "" {
		params.Status = &req.Status
	}
	if req.Stage != "" {
		params.Stage = &req.Stage
	}
	if req.Temperature != "" {
		params.Temperature = &req.Temperature
	}
	if req.MinValue != nil && req.MaxValue != nil && *req.MinValue > *req.MaxValue {
		return transport.DealListResponse{}, apperr.Validation("minValue must not exceed maxValue")
	}

	from, to, err := parseDateRange(req.CreatedFrom, req.CreatedTo)
	if err != nil {
		return transport.DealListResponse{}, err
	}
	params.CreatedAtFrom = from
	params.CreatedAtTo = to

	deals, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.DealListResponse{}, err
	}

	data := make([]transport.DealResponse, 0, len(deals))
	for _, d := range deals {
		data = append(data, ToDealResponse(d))
	}
	return transport.DealListResponse{Data: data, Pagination: paginate(page, limit, total)}, nil
}

// Share records that the deal's link went out to the client.
func (s *Service) Share(ctx context.Context, id uuid.UUID) (transport.DealResponse, error) {
	return s.mutateStage(ctx, id, "deals.Share", func(deal repository.Deal) (repository.LifecycleUpdate, bool, error) {
		next := s.planner.Machine().Next(deal.Stage, lifecycle.Facts{Distributed: true})
		if next == deal.Stage {
			return repository.LifecycleUpdate{}, false, nil
		}
		return repository.LifecycleUpdate{Stage: &next}, false, nil
	}, "link distributed")
}

// UpdateStage applies an agent-driven stage change; it may move backwards.
func (s *Service) UpdateStage(ctx context.Context, id uuid.UUID, req transport.UpdateStageRequest) (transport.DealResponse, error) {
	return s.mutateStage(ctx, id, "deals.UpdateStage", func(deal repository.Deal) (repository.LifecycleUpdate, bool, error) {
		if domain.IsClosed(deal.Stage, deal.Status) {
			return repository.LifecycleUpdate{}, true, apperr.Conflict("deal is closed")
		}
		next, err := s.planner.Machine().ApplyManual(deal.Stage, domain.Stage(req.Stage))
		switch {
		case errors.Is(err, lifecycle.ErrNoChange):
			return repository.LifecycleUpdate{}, true, nil
		case err != nil:
			return repository.LifecycleUpdate{}, true, apperr.Validation(err.Error())
		}
		return repository.LifecycleUpdate{Stage: &next}, true, nil
	}, sanitize.Text(req.Reason))
}

// Close resolves the deal as won or lost.
func (s *Service) Close(ctx context.Context, id uuid.UUID, req transport.CloseDealRequest) (transport.DealResponse, error) {
	return s.mutateStage(ctx, id, "deals.Close", func(deal repository.Deal) (repository.LifecycleUpdate, bool, error) {
		if domain.IsClosedStatus(deal.Status) {
			return repository.LifecycleUpdate{}, true, apperr.Conflict(lifecycle.ErrAlreadyClosed.Error())
		}
		next, err := s.planner.Machine().Close(deal.Stage)
		if err != nil {
			return repository.LifecycleUpdate{}, true, apperr.Conflict(err.Error())
		}
		status := domain.StatusClosedLost
		if req.Outcome == "won" {
			status = domain.StatusClosedWon
		}
		return repository.LifecycleUpdate{Stage: &next, Status: &status}, true, nil
	}, sanitize.Text(req.Reason))
}

type stageDecider func(deal repository.Deal) (update repository.LifecycleUpdate, manual bool, err error)

// mutateStage serialises a lifecycle change with recomputations of the same
// deal. A decider returning an empty update leaves the deal as it is.
func (s *Service) mutateStage(ctx context.Context, id uuid.UUID, op string, decide stageDecider, reason string) (transport.DealResponse, error) {
	unlock, err := s.locker.Acquire(ctx, dealLockKey(id))
	if err != nil {
		return transport.DealResponse{}, apperr.Wrap(apperr.KindUnavailable, "deal is busy, retry later", err).WithOp(op)
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	deal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DealResponse{}, mapDealError(err, op)
	}

	update, manual, err := decide(deal)
	if err != nil {
		return transport.DealResponse{}, err
	}
	if update.Stage == nil && update.Status == nil {
		return ToDealResponse(deal), nil
	}

	updated, err := s.repo.UpdateLifecycle(ctx, id, deal.Version, update)
	if err != nil {
		return transport.DealResponse{}, mapDealError(err, op)
	}

	if updated.Stage != deal.Stage {
		s.metrics.RecordStageTransition(string(deal.Stage), string(updated.Stage), manual)
		if s.bus != nil {
			s.bus.Publish(ctx, events.DealStageChanged{
				BaseEvent: events.NewBaseEvent(s.now()),
				DealID:    updated.ID,
				AgentID:   updated.AgentID,
				OldStage:  string(deal.Stage),
				NewStage:  string(updated.Stage),
				Manual:    manual,
				Reason:    reason,
			})
		}
	}
	return ToDealResponse(updated), nil
}

// ListEngagement returns the recorded sessions of a deal, newest first.
func (s *Service) ListEngagement(ctx context.Context, id uuid.UUID, limit int) ([]transport.EngagementSessionResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, mapDealError(err, "deals.ListEngagement")
	}
	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}
	sessions, err := s.repo.ListSessions(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.EngagementSessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, ToEngagementSessionResponse(sess))
	}
	return out, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func paginate(page, limit, total int) transport.Pagination {
	totalPages := (total + limit - 1) / limit
	return transport.Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// parseDateRange turns inclusive calendar dates into a half-open UTC range.
func parseDateRange(fromRaw, toRaw string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromRaw != "" {
		t, err := time.Parse("2006-01-02", fromRaw)
		if err != nil {
			return nil, nil, apperr.Validation("invalid createdFrom")
		}
		from = &t
	}
	if toRaw != "" {
		t, err := time.Parse("2006-01-02", toRaw)
		if err != nil {
			return nil, nil, apperr.Validation("invalid createdTo")
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, apperr.Validation("createdFrom must not be after createdTo")
	}
	return from, to, nil
}
