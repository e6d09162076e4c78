package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/fairshare/internal/logger"
)

const eventKeepAlive = 15 * time.Second

// Events handles GET /api/sessions/:id/events. It streams the current frame
// followed by a frame after every session change until the client goes away
// or the session closes.
func (h *SessionHandler) Events(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	frames, unsubscribe := session.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("frame", session.Frame())
	c.Writer.Flush()

	logger.Log.Debug().
		Str("session_id", session.ID().String()).
		Str("remote_addr", c.ClientIP()).
		Msg("Event stream opened")

	keepAlive := time.NewTicker(eventKeepAlive)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Log.Debug().
				Str("session_id", session.ID().String()).
				Msg("Event stream client disconnected")
			return
		case frame, open := <-frames:
			if !open {
				c.SSEvent("closed", MessageResponse{Message: "Session closed"})
				c.Writer.Flush()
				return
			}
			c.SSEvent("frame", frame)
			c.Writer.Flush()
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}
