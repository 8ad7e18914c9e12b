package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/export"
	"github.com/mikeveit1/MacroTrack-sub000/internal/stats"
	"go.uber.org/zap"
)

const (
	opGetGoals = "server.get_goals"
	opPutGoals = "server.put_goals"
	opStats    = "server.stats"
	opExport   = "server.export"

	exportFormatCSV  = "csv"
	exportFormatJSON = "json"
)

type goalsPayload struct {
	Calories float64 `json:"calories" binding:"gte=0"`
	Protein  float64 `json:"protein" binding:"gte=0"`
	Carbs    float64 `json:"carbs" binding:"gte=0"`
	Fat      float64 `json:"fat" binding:"gte=0"`
	Water    float64 `json:"water" binding:"gte=0"`
}

type statsResponse struct {
	stats.Summary
	SkippedRecords int `json:"skipped_records"`
}

func (h *httpHandler) handleGetGoals(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	goals, err := h.gateway.LoadGoals(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, opGetGoals, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *httpHandler) handlePutGoals(c *gin.Context) {
	var request goalsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
		return
	}
	userID := c.GetString(userIDContextKey)
	goals := diary.Goals(request)
	if err := h.gateway.SaveGoals(c.Request.Context(), userID, goals); err != nil {
		h.respondError(c, opPutGoals, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *httpHandler) handleStats(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	history, skipped, err := h.gateway.LoadHistory(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, opStats, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{
		Summary:        stats.Summarize(history, h.clock()),
		SkippedRecords: len(skipped),
	})
}

func (h *httpHandler) handleExport(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", exportFormatCSV)))
	if format != exportFormatCSV && format != exportFormatJSON {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_format"})
		return
	}

	userID := c.GetString(userIDContextKey)
	history, _, err := h.gateway.LoadHistory(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, opExport, err)
		return
	}
	rows := export.Rows(history)

	filename := fmt.Sprintf("macrotrack-history.%s", format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if format == exportFormatJSON {
		c.Header("Content-Type", "application/json; charset=utf-8")
	} else {
		c.Header("Content-Type", "text/csv; charset=utf-8")
	}
	c.Status(http.StatusOK)

	if format == exportFormatJSON {
		err = export.ToJSON(c.Writer, rows, h.clock())
	} else {
		err = export.ToCSV(c.Writer, rows)
	}
	if err != nil {
		h.logger.Error("history export failed",
			zap.String("operation", opExport),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
