package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type realtimeEventPayload struct {
	Date      string   `json:"date"`
	FoodIDs   []string `json:"food_ids,omitempty"`
	Timestamp int64    `json:"timestamp_ms"`
	Source    string   `json:"source"`
}

type heartbeatPayload struct {
	Timestamp int64  `json:"timestamp_ms"`
	Source    string `json:"source"`
}

// handleEvents streams day session changes of the authenticated user as server-sent events.
func (h *httpHandler) handleEvents(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	stream, cleanup := h.realtime.Subscribe(ctx, userID)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	h.logger.Debug("realtime stream opened", zap.String("user_id", userID))
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case message, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(message.EventType, realtimeEventPayload{
				Date:      message.DateKey,
				FoodIDs:   message.FoodIDs,
				Timestamp: message.Timestamp.UnixMilli(),
				Source:    realtimeSourceBackend,
			})
			return true
		case tick := <-ticker.C:
			c.SSEvent(realtimeEventHeartbeat, heartbeatPayload{
				Timestamp: tick.UTC().UnixMilli(),
				Source:    realtimeSourceBackend,
			})
			return true
		}
	})
	h.logger.Debug("realtime stream closed", zap.String("user_id", userID))
}
