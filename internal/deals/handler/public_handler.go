package handler

import (
	"github.com/gin-gonic/gin"
)

// PublicHandler serves the unauthenticated telemetry endpoint used by the
// shared-link viewer.
type PublicHandler struct {
	h *Handler
}

func NewPublicHandler(h *Handler) *PublicHandler {
	return &PublicHandler{h: h}
}

// RegisterRoutes mounts POST /:id/sessions. The caller is expected to put a
// rate limiter in front of the group.
func (p *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/sessions", p.RecordSession)
}

func (p *PublicHandler) RecordSession(c *gin.Context) {
	p.h.recordSession(c)
}
