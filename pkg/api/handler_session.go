package api

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
)

// getSessionHandler handles GET /sessions/:id. It inspects a live
// conversation's context; expired or unknown sessions are 404.
func (s *Server) getSessionHandler(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	sess, ok := s.sessions.Get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	snap := sess.Snapshot()
	return c.JSON(http.StatusOK, &SessionResponse{
		SessionID:      snap.SessionID,
		CurrentTopic:   snap.CurrentTopic,
		CurrentHotel:   snap.CurrentHotel,
		TopicTurnCount: snap.TopicTurnCount,
		CachedChunks:   len(snap.LastChunks),
		LastActive:     snap.LastActive.Format(time.RFC3339),
	})
}
