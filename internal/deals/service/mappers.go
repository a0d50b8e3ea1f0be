package service

import (
	"dealflow_backend/internal/deals/repository"
	"dealflow_backend/internal/deals/transport"
)

// ToDealResponse converts a repository deal to its API shape.
func ToDealResponse(d repository.Deal) transport.DealResponse {
	return transport.DealResponse{
		ID:              d.ID,
		LinkID:          d.LinkID,
		Title:           d.Title,
		ClientID:        d.ClientID,
		AgentID:         d.AgentID,
		ValueCents:      d.ValueCents,
		Stage:           string(d.Stage),
		Status:          string(d.Status),
		EngagementScore: d.EngagementScore,
		Temperature:     string(d.Temperature),
		LastActivityAt:  d.LastActivityAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func ToTaskResponse(t repository.Task) transport.TaskResponse {
	resp := transport.TaskResponse{
		ID:          t.ID,
		DealID:      t.DealID,
		ClientID:    t.ClientID,
		AssigneeID:  t.AssigneeID,
		Type:        string(t.Type),
		Priority:    string(t.Priority),
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      string(t.Status),
		IsAutomated: t.IsAutomated,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.TriggerKind != nil {
		trigger := &transport.TriggerResponse{Kind: *t.TriggerKind}
		if t.TriggerScoreThreshold != nil {
			trigger.ScoreThreshold = *t.TriggerScoreThreshold
		}
		if t.TriggerScore != nil {
			trigger.Score = *t.TriggerScore
		}
		resp.Trigger = trigger
	}
	return resp
}

func toTaskResponses(tasks []repository.Task) []transport.TaskResponse {
	out := make([]transport.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToTaskResponse(t))
	}
	return out
}

func ToEngagementSessionResponse(s repository.EngagementSession) transport.EngagementSessionResponse {
	signals := s.Signals
	if signals == nil {
		signals = []string{}
	}
	return transport.EngagementSessionResponse{
		ID:                   s.ID,
		SessionID:            s.SessionID,
		StartedAt:            s.StartedAt,
		EndedAt:              s.EndedAt,
		DurationSeconds:      s.DurationSeconds,
		PropertiesViewed:     s.PropertiesViewed,
		PropertiesLiked:      s.PropertiesLiked,
		SessionCompletion:    s.SessionCompletion,
		PropertyInteraction:  s.PropertyInteraction,
		BehavioralIndicators: s.BehavioralIndicators,
		RecencyFactor:        s.RecencyFactor,
		TotalScore:           s.TotalScore,
		Temperature:          string(s.Temperature),
		Signals:              signals,
		ScoreVersion:         s.ScoreVersion,
		RecordedAt:           s.RecordedAt,
	}
}

// ToRecomputeResponse converts a recomputation result to its API shape.
func ToRecomputeResponse(r RecomputeResult) transport.RecomputeResponse {
	insights := r.Insights
	if insights == nil {
		insights = []string{}
	}
	return transport.RecomputeResponse{
		Deal:           ToDealResponse(r.Deal),
		Metrics:        r.Metrics,
		Temperature:    string(r.Temperature),
		Insights:       insights,
		TasksGenerated: toTaskResponses(r.TasksGenerated),
		PreviousStage:  string(r.PreviousStage),
		StageChanged:   r.StageChanged,
	}
}
