// Package sse streams deal and task notifications to connected agents.
package sse

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"dealflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EventType string

const (
	EventDealScored       EventType = "deal_scored"
	EventDealStageChanged EventType = "deal_stage_changed"
	EventTaskGenerated    EventType = "task_generated"
	EventTaskOverdue      EventType = "task_overdue"
)

type Event struct {
	Type    EventType   `json:"type"`
	DealID  uuid.UUID   `json:"dealId,omitempty"`
	TaskID  uuid.UUID   `json:"taskId,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	clientBuffer = 32
	// maxConnsPerUser caps the tabs one agent may keep open.
	maxConnsPerUser   = 8
	heartbeatInterval = 25 * time.Second
)

var (
	errTooManyConns = errors.New("too many open event streams")
	errClosed       = errors.New("event stream service is shutting down")
)

type client struct {
	userID uuid.UUID
	events chan Event
}

// Service fans events out to every open stream of an agent.
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client
	closed  bool
	log     *logger.Logger
}

func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[uuid.UUID][]*client),
		log:     log,
	}
}

func (s *Service) addClient(c *client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	if len(s.clients[c.userID]) >= maxConnsPerUser {
		return errTooManyConns
	}
	s.clients[c.userID] = append(s.clients[c.userID], c)
	return nil
}

// removeClient unregisters c and closes its channel. It is a no-op for
// clients already dropped by Close.
func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.userID]
	for i, cl := range clients {
		if cl != c {
			continue
		}
		s.clients[c.userID] = append(clients[:i], clients[i+1:]...)
		close(c.events)
		break
	}
	if len(s.clients[c.userID]) == 0 {
		delete(s.clients, c.userID)
	}
}

// Publish delivers to every stream of userID and returns how many accepted
// the event. A stream with a full buffer misses the event.
func (s *Service) Publish(userID uuid.UUID, event Event) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	delivered := 0
	for _, c := range s.clients[userID] {
		select {
		case c.events <- event:
			delivered++
		default:
			s.log.Warn("sse buffer full, dropping event", "userId", userID, "type", event.Type)
		}
	}
	return delivered
}

func (s *Service) ClientCount(userID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[userID])
}

// Handler serves one event stream. getUserID resolves the agent from the
// authenticated request.
func (s *Service) Handler(getUserID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		cl := &client{userID: userID, events: make(chan Event, clientBuffer)}
		switch err := s.addClient(cl); {
		case errors.Is(err, errTooManyConns):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		case err != nil:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		defer s.removeClient(cl)

		h := c.Writer.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")

		c.SSEvent("connected", gin.H{"userId": userID})
		c.Writer.Flush()

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case <-heartbeat.C:
				_, err := io.WriteString(w, ": ping\n\n")
				return err == nil
			case event, ok := <-cl.events:
				if !ok {
					return false
				}
				c.SSEvent(string(event.Type), event)
				return true
			}
		})
	}
}

// Close ends every stream and refuses new ones.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[uuid.UUID][]*client)
}
