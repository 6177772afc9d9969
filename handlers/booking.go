package handlers

import (
	"net/http"

	"ibook/models"
	"ibook/services/scheduling"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking commit protocol: create, reschedule,
// cancel, confirm and dashboard status management.
type BookingHandler struct {
	Engine scheduling.SchedulingEngine
	Logger *zap.Logger
}

func NewBookingHandler(engine scheduling.SchedulingEngine, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Engine: engine, Logger: logger}
}

// Create handles POST /api/providers/:username/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	username := c.Param("username")

	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	booking, err := h.Engine.Commit(c.Request.Context(), username, req)
	if err != nil {
		h.Logger.Warn("booking commit failed",
			zap.String("provider", username),
			zap.Time("slot", req.DateTime),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// Reschedule handles POST /api/providers/:username/bookings/:id/reschedule.
func (h *BookingHandler) Reschedule(c *gin.Context) {
	username := c.Param("username")
	bookingID := c.Param("id")

	var req models.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Engine.Reschedule(c.Request.Context(), username, bookingID, req.DateTime); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rescheduled"})
}

// Cancel handles POST /api/providers/:username/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	username := c.Param("username")
	bookingID := c.Param("id")

	if err := h.Engine.Cancel(c.Request.Context(), username, bookingID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "canceled"})
}

// Confirm handles POST /api/providers/:username/bookings/:id/confirm.
// Called by the payment collaborator once a gateway flow succeeds.
func (h *BookingHandler) Confirm(c *gin.Context) {
	username := c.Param("username")
	bookingID := c.Param("id")

	if err := h.Engine.Confirm(c.Request.Context(), username, bookingID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

// UpdateStatus handles PATCH /api/providers/:username/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	username := c.Param("username")
	bookingID := c.Param("id")

	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Engine.SetStatus(c.Request.Context(), username, bookingID, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// List handles GET /api/providers/:username/bookings (dashboard view,
// read-time status derivation applied).
func (h *BookingHandler) List(c *gin.Context) {
	username := c.Param("username")

	bookings, err := h.Engine.ListBookings(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
