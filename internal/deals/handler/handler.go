package handler

import (
	"context"
	"net/http"
	"strconv"

	"dealflow_backend/internal/deals/engagement"
	"dealflow_backend/internal/deals/service"
	"dealflow_backend/internal/deals/transport"
	"dealflow_backend/platform/httpkit"
	"dealflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DealService is the part of the deal service the HTTP layer drives.
type DealService interface {
	CreateDeal(ctx context.Context, req transport.CreateDealRequest) (transport.DealResponse, error)
	GetDeal(ctx context.Context, id uuid.UUID) (transport.DealResponse, error)
	GetDeals(ctx context.Context, req transport.ListDealsRequest) (transport.DealListResponse, error)
	Share(ctx context.Context, id uuid.UUID) (transport.DealResponse, error)
	UpdateStage(ctx context.Context, id uuid.UUID, req transport.UpdateStageRequest) (transport.DealResponse, error)
	Close(ctx context.Context, id uuid.UUID, req transport.CloseDealRequest) (transport.DealResponse, error)
	Recompute(ctx context.Context, dealID uuid.UUID, session engagement.SessionData) (service.RecomputeResult, error)
	ListEngagement(ctx context.Context, id uuid.UUID, limit int) ([]transport.EngagementSessionResponse, error)
	ListDealTasks(ctx context.Context, dealID uuid.UUID) ([]transport.TaskResponse, error)
	ListTasks(ctx context.Context, req transport.ListTasksRequest) (transport.TaskListResponse, error)
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, req transport.UpdateTaskStatusRequest) (transport.TaskResponse, error)
}

type Handler struct {
	svc DealService
	val *validator.Validator
}

const msgInvalidRequest = "invalid request"

func New(svc DealService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the agent-facing deal routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/share", h.Share)
	rg.PATCH("/:id/stage", h.UpdateStage)
	rg.POST("/:id/close", h.Close)
	rg.POST("/:id/sessions", h.RecordSession)
	rg.GET("/:id/engagement", h.ListEngagement)
	rg.GET("/:id/tasks", h.ListDealTasks)
}

// RegisterTaskRoutes mounts the agent task queue.
func (h *Handler) RegisterTaskRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListTasks)
	rg.PATCH("/:id/status", h.UpdateTaskStatus)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateDealRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.AgentID == nil {
		if identity := httpkit.GetIdentity(c); identity.IsAuthenticated() {
			agentID := identity.UserID()
			req.AgentID = &agentID
		}
	}

	deal, err := h.svc.CreateDeal(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, deal)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deal, err := h.svc.GetDeal(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deal)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListDealsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return
	}

	result, err := h.svc.GetDeals(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Share(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deal, err := h.svc.Share(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deal)
}

func (h *Handler) UpdateStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	deal, err := h.svc.UpdateStage(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deal)
}

func (h *Handler) Close(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CloseDealRequest
	if !h.bindJSON(c, &req) {
		return
	}

	deal, err := h.svc.Close(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deal)
}

// RecordSession scores a session reported by an authenticated client.
func (h *Handler) RecordSession(c *gin.Context) {
	h.recordSession(c)
}

func (h *Handler) recordSession(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Recompute(c.Request.Context(), id, req.ToSessionData())
	if httpkit.HandleError(c, err) {
		return
	}
	resp := service.ToRecomputeResponse(result)

	if include, _ := strconv.ParseBool(c.Query("includeHistory")); include {
		history, err := h.svc.ListEngagement(c.Request.Context(), id, 0)
		if httpkit.HandleError(c, err) {
			return
		}
		resp.History = history
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ListEngagement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	history, err := h.svc.ListEngagement(c.Request.Context(), id, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"data": history})
}

func (h *Handler) ListDealTasks(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tasks, err := h.svc.ListDealTasks(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"data": tasks})
}

func (h *Handler) ListTasks(c *gin.Context) {
	var req transport.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return
	}

	result, err := h.svc.ListTasks(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateTaskStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	task, err := h.svc.UpdateTaskStatus(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, task)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}
