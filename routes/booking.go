package routes

import (
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers availability and booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/providers/:username")
	{
		api.GET("/slots", hb.Availability.GetSlots)

		api.GET("/bookings", hb.Booking.List)
		api.POST("/bookings", hb.Booking.Create)
		api.POST("/bookings/:id/reschedule", hb.Booking.Reschedule)
		api.POST("/bookings/:id/cancel", hb.Booking.Cancel)
		api.POST("/bookings/:id/confirm", hb.Booking.Confirm)
		api.PATCH("/bookings/:id/status", hb.Booking.UpdateStatus)
	}
}

// RegisterScheduleRoutes registers provider schedule-management endpoints.
func RegisterScheduleRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/providers/:username")
	{
		api.GET("/schedule", hb.Schedule.Get)
		api.PUT("/schedule", hb.Schedule.Update)

		api.POST("/blocked-dates", hb.Schedule.BlockDate)
		api.DELETE("/blocked-dates/:date", hb.Schedule.UnblockDate)
		api.POST("/blocked-slots", hb.Schedule.BlockSlot)
		api.DELETE("/blocked-slots", hb.Schedule.UnblockSlot)
	}
}
