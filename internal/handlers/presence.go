package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/parlor/internal/middleware"
	"github.com/nfrund/parlor/internal/presence"
)

// PresenceSource is the read side of the presence service.
type PresenceSource interface {
	Snapshot() presence.Snapshot
}

// PresenceHandler serves the current room roster over HTTP.
type PresenceHandler struct {
	source PresenceSource
}

// NewPresenceHandler creates a new presence handler.
func NewPresenceHandler(source PresenceSource) *PresenceHandler {
	return &PresenceHandler{source: source}
}

// GetPresence returns the roster as JSON. ?limit=N caps the number of users
// listed; count always reports the full roster size.
func (h *PresenceHandler) GetPresence(c echo.Context) error {
	logger := middleware.FromContext(c.Request().Context())

	if h.source == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Code:    "PRESENCE_UNAVAILABLE",
			Message: "presence service not available",
		})
	}

	var q PresenceQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Message: "invalid query"})
	}
	if err := c.Validate(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "VALIDATION_ERROR", Message: err.Error()})
	}

	snap := h.source.Snapshot()
	if q.Limit > 0 && len(snap.Users) > q.Limit {
		snap.Users = snap.Users[:q.Limit]
	}

	logger.Debug("presence requested", "count", snap.Count, "connections", snap.Connections)
	return c.JSON(http.StatusOK, snap)
}
