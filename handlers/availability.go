package handlers

import (
	"net/http"
	"time"

	"ibook/services/availability"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityHandler serves the public slot listing consumed by the booking
// page and the provider reschedule dialog.
type AvailabilityHandler struct {
	Engine *availability.Engine
	Logger *zap.Logger
}

func NewAvailabilityHandler(engine *availability.Engine, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Engine: engine, Logger: logger}
}

// GetSlots handles GET /api/providers/:username/slots?date=2006-01-02.
// The date parameter names a provider-local calendar day.
func (h *AvailabilityHandler) GetSlots(c *gin.Context) {
	username := c.Param("username")
	dateStr := c.Query("date")

	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "details": "expected yyyy-MM-dd"})
		return
	}

	slots, err := h.Engine.ListAvailableSlots(c.Request.Context(), username, dateStr, time.Now().UTC())
	if err != nil {
		h.Logger.Error("failed to list available slots",
			zap.String("provider", username),
			zap.String("date", dateStr),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  dateStr,
		"slots": slots,
	})
}
