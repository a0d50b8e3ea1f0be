// Package transport holds the request and response DTOs of the deals API.
package transport

import (
	"time"

	"dealflow_backend/internal/deals/engagement"
	"dealflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const maxPropertyTypeLen = 50

// Request DTOs
type CreateDealRequest struct {
	LinkID     string     `json:"linkId" validate:"required,min=3,max=200,linkid"`
	Title      string     `json:"title" validate:"required,notblank,max=200"`
	ClientID   *uuid.UUID `json:"clientId"`
	AgentID    *uuid.UUID `json:"agentId"`
	ValueCents int64      `json:"valueCents" validate:"min=0"`
}

type SessionRequest struct {
	SessionID            string    `json:"sessionId" validate:"required,max=200"`
	StartTime            time.Time `json:"startTime"`
	EndTime              time.Time `json:"endTime"`
	Duration             int       `json:"duration"`
	TotalProperties      int       `json:"totalProperties"`
	PropertiesViewed     int       `json:"propertiesViewed"`
	PropertiesLiked      int       `json:"propertiesLiked"`
	PropertiesConsidered int       `json:"propertiesConsidered"`
	DetailViews          int       `json:"detailViews"`
	ImagesBrowsed        int       `json:"imagesBrowsed"`
	MapViews             int       `json:"mapViews"`
	LikedPropertyTypes   []string  `json:"likedPropertyTypes" validate:"max=200,dive,max=50"`
	ReturnVisit          bool      `json:"returnVisit"`
}

// ToSessionData hands the telemetry to the scorer, which repairs malformed
// counters itself. Only the free-text fields are cleaned here.
func (r SessionRequest) ToSessionData() engagement.SessionData {
	return engagement.SessionData{
		SessionID:            sanitize.Text(r.SessionID),
		StartTime:            r.StartTime,
		EndTime:              r.EndTime,
		Duration:             r.Duration,
		TotalProperties:      r.TotalProperties,
		PropertiesViewed:     r.PropertiesViewed,
		PropertiesLiked:      r.PropertiesLiked,
		PropertiesConsidered: r.PropertiesConsidered,
		DetailViews:          r.DetailViews,
		ImagesBrowsed:        r.ImagesBrowsed,
		MapViews:             r.MapViews,
		LikedPropertyTypes:   sanitize.Labels(r.LikedPropertyTypes, maxPropertyTypeLen),
		ReturnVisit:          r.ReturnVisit,
	}
}

type UpdateStageRequest struct {
	Stage  string `json:"stage" validate:"required,oneof=created shared accessed engaged qualified advanced"`
	Reason string `json:"reason" validate:"max=500"`
}

type CloseDealRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=won lost"`
	Reason  string `json:"reason" validate:"max=500"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed dismissed blocked"`
}

type ListDealsRequest struct {
	Status      string     `form:"status" validate:"omitempty,oneof=active qualified nurturing closed-won closed-lost"`
	Stage       string     `form:"stage" validate:"omitempty,oneof=created shared accessed engaged qualified advanced closed"`
	Temperature string     `form:"temperature" validate:"omitempty,oneof=hot warm cold"`
	Search      string     `form:"search" validate:"max=100"`
	AgentID     *uuid.UUID `form:"agentId"`
	CreatedFrom string     `form:"createdFrom" validate:"omitempty,datetime=2006-01-02"`
	CreatedTo   string     `form:"createdTo" validate:"omitempty,datetime=2006-01-02"`
	MinValue    *int64     `form:"minValue" validate:"omitempty,min=0"`
	MaxValue    *int64     `form:"maxValue" validate:"omitempty,min=0"`
	Page        int        `form:"page" validate:"omitempty,min=1"`
	Limit       int        `form:"limit" validate:"omitempty,min=1,max=100"`
	SortBy      string     `form:"sortBy" validate:"omitempty,oneof=createdAt updatedAt title value score stage lastActivityAt"`
	SortOrder   string     `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type ListTasksRequest struct {
	Status     string     `form:"status" validate:"omitempty,oneof=pending in_progress completed dismissed overdue blocked"`
	Priority   string     `form:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID *uuid.UUID `form:"assigneeId"`
	Page       int        `form:"page" validate:"omitempty,min=1"`
	Limit      int        `form:"limit" validate:"omitempty,min=1,max=100"`
}

// Response DTOs
type DealResponse struct {
	ID              uuid.UUID  `json:"id"`
	LinkID          string     `json:"linkId"`
	Title           string     `json:"title"`
	ClientID        *uuid.UUID `json:"clientId,omitempty"`
	AgentID         *uuid.UUID `json:"agentId,omitempty"`
	ValueCents      int64      `json:"valueCents"`
	Stage           string     `json:"stage"`
	Status          string     `json:"status"`
	EngagementScore int        `json:"engagementScore"`
	Temperature     string     `json:"temperature"`
	LastActivityAt  *time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type DealListResponse struct {
	Data       []DealResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

type TriggerResponse struct {
	Kind           string `json:"kind"`
	ScoreThreshold int    `json:"scoreThreshold"`
	Score          int    `json:"score"`
}

type TaskResponse struct {
	ID          uuid.UUID        `json:"id"`
	DealID      uuid.UUID        `json:"dealId"`
	ClientID    *uuid.UUID       `json:"clientId,omitempty"`
	AssigneeID  *uuid.UUID       `json:"assigneeId,omitempty"`
	Type        string           `json:"type"`
	Priority    string           `json:"priority"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	DueDate     time.Time        `json:"dueDate"`
	Status      string           `json:"status"`
	IsAutomated bool             `json:"isAutomated"`
	Trigger     *TriggerResponse `json:"trigger,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type TaskListResponse struct {
	Data       []TaskResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

type EngagementSessionResponse struct {
	ID                   uuid.UUID  `json:"id"`
	SessionID            string     `json:"sessionId"`
	StartedAt            *time.Time `json:"startedAt,omitempty"`
	EndedAt              *time.Time `json:"endedAt,omitempty"`
	DurationSeconds      int        `json:"durationSeconds"`
	PropertiesViewed     int        `json:"propertiesViewed"`
	PropertiesLiked      int        `json:"propertiesLiked"`
	SessionCompletion    int        `json:"sessionCompletion"`
	PropertyInteraction  int        `json:"propertyInteraction"`
	BehavioralIndicators int        `json:"behavioralIndicators"`
	RecencyFactor        int        `json:"recencyFactor"`
	TotalScore           int        `json:"totalScore"`
	Temperature          string     `json:"temperature"`
	Signals              []string   `json:"signals"`
	ScoreVersion         string     `json:"scoreVersion"`
	RecordedAt           time.Time  `json:"recordedAt"`
}

type RecomputeResponse struct {
	Deal           DealResponse                `json:"deal"`
	Metrics        engagement.Metrics          `json:"metrics"`
	Temperature    string                      `json:"temperature"`
	Insights       []string                    `json:"insights"`
	TasksGenerated []TaskResponse              `json:"tasksGenerated"`
	PreviousStage  string                      `json:"previousStage"`
	StageChanged   bool                        `json:"stageChanged"`
	History        []EngagementSessionResponse `json:"history,omitempty"`
}
