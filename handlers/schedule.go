package handlers

import (
	"net/http"
	"time"

	providerRepo "ibook/database/repository/provider"
	"ibook/models"
	"ibook/services/availability"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScheduleHandler manages a provider's schedule configuration: working
// hours, capacity rules and the blocked date/slot sets.
type ScheduleHandler struct {
	Providers providerRepo.ProviderRepository
	Logger    *zap.Logger
}

func NewScheduleHandler(providers providerRepo.ProviderRepository, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{Providers: providers, Logger: logger}
}

// Get handles GET /api/providers/:username/schedule.
func (h *ScheduleHandler) Get(c *gin.Context) {
	username := c.Param("username")

	provider, err := h.Providers.GetByUsername(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": provider.Schedule})
}

// Update handles PUT /api/providers/:username/schedule. The schedule is
// validated before saving so misconfiguration surfaces here, never on the
// customer booking page.
func (h *ScheduleHandler) Update(c *gin.Context) {
	username := c.Param("username")

	var req models.ScheduleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	// Blocked sets are managed by their own endpoints; carry them over.
	existing, err := h.Providers.GetByUsername(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	schedule := models.ProviderSchedule{
		WorkingHours:            req.WorkingHours,
		SlotDurationMinutes:     req.SlotDurationMinutes,
		BreakMinutes:            req.BreakMinutes,
		BookingDelayHours:       req.BookingDelayHours,
		Timezone:                req.Timezone,
		BlockedDates:            existing.Schedule.BlockedDates,
		BlockedSlots:            existing.Schedule.BlockedSlots,
		MultipleBookingsPerSlot: req.MultipleBookingsPerSlot,
		BookingsPerSlotCapacity: req.BookingsPerSlotCapacity,
	}

	if err := availability.ValidateSchedule(schedule); err != nil {
		respondError(c, err)
		return
	}

	if err := h.Providers.UpdateSchedule(c.Request.Context(), username, schedule); err != nil {
		respondError(c, err)
		return
	}
	h.Logger.Info("schedule updated", zap.String("provider", username))
	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// BlockDate handles POST /api/providers/:username/blocked-dates.
// Blocking a date that already has no slots, or one already blocked, is a
// harmless no-op.
func (h *ScheduleHandler) BlockDate(c *gin.Context) {
	username := c.Param("username")

	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "details": "expected yyyy-MM-dd"})
		return
	}

	if err := h.Providers.BlockDate(c.Request.Context(), username, req.Date); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "blocked", "date": req.Date})
}

// UnblockDate handles DELETE /api/providers/:username/blocked-dates/:date.
func (h *ScheduleHandler) UnblockDate(c *gin.Context) {
	username := c.Param("username")
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "details": "expected yyyy-MM-dd"})
		return
	}
	if err := h.Providers.UnblockDate(c.Request.Context(), username, date); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unblocked"})
}

// BlockSlot handles POST /api/providers/:username/blocked-slots.
func (h *ScheduleHandler) BlockSlot(c *gin.Context) {
	username := c.Param("username")

	var req struct {
		Time time.Time `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	instant := req.Time.UTC().Format(time.RFC3339)
	if err := h.Providers.BlockSlot(c.Request.Context(), username, instant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "blocked", "time": instant})
}

// UnblockSlot handles DELETE /api/providers/:username/blocked-slots.
func (h *ScheduleHandler) UnblockSlot(c *gin.Context) {
	username := c.Param("username")

	var req struct {
		Time time.Time `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	instant := req.Time.UTC().Format(time.RFC3339)
	if err := h.Providers.UnblockSlot(c.Request.Context(), username, instant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unblocked", "time": instant})
}
