package handlers

import (
	"errors"
	"net/http"

	"ibook/database/repository"
	"ibook/services/availability"
	"ibook/services/scheduling"
	"ibook/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps core errors onto HTTP responses. SlotUnavailable is a
// retryable 409 (the client should refresh availability and pick again);
// NotFound is a stale-link 404; configuration errors are settings-validation
// failures; anything else is an internal failure.
func respondError(c *gin.Context, err error) {
	var cfgErr *availability.ConfigurationError

	switch {
	case errors.Is(err, repository.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, gin.H{
			"error": "slot_unavailable",
			"message": "This slot is no longer available. Please pick another time.",
		})
	case errors.Is(err, repository.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, scheduling.ErrNotReschedulable):
		utils.JSONError(c, http.StatusConflict, "booking cannot be rescheduled", err.Error())
	case errors.Is(err, scheduling.ErrStatusNotAllowed):
		utils.JSONError(c, http.StatusUnprocessableEntity, "status change not allowed", err.Error())
	case errors.As(err, &cfgErr):
		utils.JSONError(c, http.StatusUnprocessableEntity, "invalid schedule configuration", cfgErr.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
