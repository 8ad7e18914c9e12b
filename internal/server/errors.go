package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/docstore"
	"github.com/mikeveit1/MacroTrack-sub000/internal/tracker"
	"go.uber.org/zap"
)

const (
	errorInvalidRequest    = "invalid_request"
	errorInvalidDate       = "invalid_date"
	errorInvalidMealSlot   = "invalid_meal_slot"
	errorInvalidFood       = "invalid_food"
	errorDayNotLoaded      = "day_not_loaded"
	errorFoodNotFound      = "food_not_found"
	errorSessionMoved      = "session_moved"
	errorRemoteUnavailable = "remote_unavailable"
	errorInternal          = "internal_error"
)

// respondError maps domain and storage errors onto a status and a JSON error payload.
// Remote failures become 502 and are reported once; the client decides whether to retry.
func (h *httpHandler) respondError(c *gin.Context, operation string, err error) {
	status, reason := classifyError(err)
	payload := gin.H{"error": reason}
	if code := errorCode(err); code != "" {
		payload["code"] = code
	}

	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.String("user_id", c.GetString(userIDContextKey)),
		zap.Error(err),
	}
	switch {
	case status >= http.StatusInternalServerError:
		h.logger.Error("request failed", fields...)
	case status == http.StatusConflict:
		h.logger.Info("request rejected", fields...)
	default:
		h.logger.Debug("request rejected", fields...)
	}

	c.JSON(status, payload)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, diary.ErrInvalidDateKey):
		return http.StatusBadRequest, errorInvalidDate
	case errors.Is(err, diary.ErrInvalidMealSlot):
		return http.StatusBadRequest, errorInvalidMealSlot
	case errors.Is(err, tracker.ErrInvalidFood):
		return http.StatusBadRequest, errorInvalidFood
	case errors.Is(err, tracker.ErrDayNotLoaded):
		return http.StatusConflict, errorDayNotLoaded
	case errors.Is(err, tracker.ErrStaleLoad):
		return http.StatusConflict, errorSessionMoved
	case errors.Is(err, tracker.ErrFoodNotFound):
		return http.StatusNotFound, errorFoodNotFound
	case errors.Is(err, docstore.ErrInvalidPath):
		return http.StatusBadRequest, errorInvalidRequest
	}
	if tracker.ErrorCode(err) != "" || docstore.ErrorCode(err) != "" {
		return http.StatusBadGateway, errorRemoteUnavailable
	}
	return http.StatusInternalServerError, errorInternal
}

func errorCode(err error) string {
	if code := tracker.ErrorCode(err); code != "" {
		return code
	}
	return docstore.ErrorCode(err)
}
