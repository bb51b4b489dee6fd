package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/realtime"
)

type EventsController struct {
	hub *realtime.Hub
	log *zap.Logger
}

func NewEventsController(hub *realtime.Hub, log *zap.Logger) *EventsController {
	return &EventsController{hub: hub, log: log}
}

// Subscribe handles GET /ws and upgrades the connection.
func (h *EventsController) Subscribe(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}
	if err := h.hub.Serve(c.Writer, c.Request, caller); err != nil {
		// The upgrader has already written the failure response.
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
	}
}
