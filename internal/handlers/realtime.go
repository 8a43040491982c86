package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/middleware"
	"github.com/wegovern/governance-api/internal/realtime"
)

// RealtimeHandler upgrades members to the websocket event stream of
// their organization
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// StreamEvents serves GET /organizations/:id/events. The connection stays
// open until the client goes away.
func (h *RealtimeHandler) StreamEvents(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	// The upgrader has already answered the request when this fails
	if err := h.hub.ServeWS(c.Writer, c.Request, org.ID); err != nil {
		slog.Warn("websocket upgrade failed", "organization_id", org.ID, "error", err)
	}
}
