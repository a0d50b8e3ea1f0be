// Package notification turns deal events into agent notifications: a live
// SSE push to the deal's agent and an e-mail to the alert inbox for urgent
// or overdue follow-ups.
package notification

import (
	"context"
	"fmt"
	"strings"

	"dealflow_backend/internal/email"
	"dealflow_backend/internal/events"
	apphttp "dealflow_backend/internal/http"
	"dealflow_backend/internal/notification/sse"
	"dealflow_backend/platform/httpkit"
	"dealflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Config is what the notification module reads from the platform config.
type Config interface {
	GetAppBaseURL() string
	GetAlertInbox() string
}

// Module is the notification module. It implements events.Handler and
// apphttp.Module.
type Module struct {
	sse    *sse.Service
	sender email.Sender
	cfg    Config
	log    *logger.Logger
}

func New(sender email.Sender, cfg Config, log *logger.Logger) *Module {
	return &Module{
		sse:    sse.New(log),
		sender: sender,
		cfg:    cfg,
		log:    log,
	}
}

func (m *Module) Name() string { return "notification" }

// SSE exposes the stream service.
func (m *Module) SSE() *sse.Service { return m.sse }

// Drain disconnects every open stream.
func (m *Module) Drain() { m.sse.Close() }

// RegisterRoutes mounts the agent event stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/events", m.sse.Handler(func(c *gin.Context) (uuid.UUID, bool) {
		identity := httpkit.GetIdentity(c)
		return identity.UserID(), identity.IsAuthenticated()
	}))
}

var _ apphttp.Drainer = (*Module)(nil)

// RegisterHandlers subscribes the module to deal events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.DealScored{}.EventName(), m)
	bus.Subscribe(events.DealStageChanged{}.EventName(), m)
	bus.Subscribe(events.TaskGenerated{}.EventName(), m)
	bus.Subscribe(events.TaskOverdue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.DealScored:
		m.push(e.AgentID, sse.Event{
			Type:   sse.EventDealScored,
			DealID: e.DealID,
			Data:   map[string]interface{}{"score": e.Score, "temperature": e.Temperature},
		})
		return nil
	case events.DealStageChanged:
		m.push(e.AgentID, sse.Event{
			Type:    sse.EventDealStageChanged,
			DealID:  e.DealID,
			Message: fmt.Sprintf("%s -> %s", e.OldStage, e.NewStage),
			Data:    map[string]interface{}{"oldStage": e.OldStage, "newStage": e.NewStage, "manual": e.Manual},
		})
		return nil
	case events.TaskGenerated:
		return m.handleTaskGenerated(ctx, e)
	case events.TaskOverdue:
		return m.handleTaskOverdue(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleTaskGenerated(ctx context.Context, e events.TaskGenerated) error {
	m.push(e.AgentID, sse.Event{
		Type:    sse.EventTaskGenerated,
		DealID:  e.DealID,
		TaskID:  e.TaskID,
		Message: e.Title,
		Data:    map[string]interface{}{"priority": e.Priority, "dueDate": e.DueDate, "triggerKind": e.TriggerKind},
	})

	if !alertWorthy(e.Priority) {
		return nil
	}
	return m.mail(ctx, email.TaskAlert{
		DealTitle: e.DealTitle,
		TaskTitle: e.Title,
		Priority:  e.Priority,
		DueDate:   e.DueDate,
		TaskURL:   m.taskURL(e.TaskID),
	})
}

func (m *Module) handleTaskOverdue(ctx context.Context, e events.TaskOverdue) error {
	m.push(e.AgentID, sse.Event{
		Type:    sse.EventTaskOverdue,
		DealID:  e.DealID,
		TaskID:  e.TaskID,
		Message: e.Title,
	})
	return m.mail(ctx, email.TaskAlert{
		DealTitle: e.DealID.String(),
		TaskTitle: e.Title,
		DueDate:   e.DueDate,
		Overdue:   true,
		TaskURL:   m.taskURL(e.TaskID),
	})
}

func (m *Module) push(agentID *uuid.UUID, event sse.Event) {
	if agentID == nil {
		return
	}
	m.sse.Publish(*agentID, event)
}

func (m *Module) mail(ctx context.Context, alert email.TaskAlert) error {
	inbox := strings.TrimSpace(m.cfg.GetAlertInbox())
	if inbox == "" || m.sender == nil {
		return nil
	}
	if err := m.sender.SendTaskAlert(ctx, inbox, alert); err != nil {
		m.log.Error("failed to send task alert", "error", err, "task", alert.TaskTitle)
		return err
	}
	return nil
}

func (m *Module) taskURL(taskID uuid.UUID) string {
	base := strings.TrimRight(m.cfg.GetAppBaseURL(), "/")
	if base == "" {
		return ""
	}
	return base + "/tasks/" + taskID.String()
}

func alertWorthy(priority string) bool {
	return priority == "high" || priority == "urgent"
}
