package availability

import (
	"fmt"
	"time"

	"ibook/models"
)

var weekdayKeys = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

// ValidateSchedule checks a schedule before it is saved, so configuration
// errors surface on the provider's settings page instead of silently
// emptying their booking page.
func ValidateSchedule(s models.ProviderSchedule) error {
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return configErr("timezone", err.Error())
	}
	if s.SlotDurationMinutes < 1 {
		return configErr("slotDurationMinutes", "must be at least one minute")
	}
	if s.BreakMinutes < 0 {
		return configErr("breakMinutes", "must not be negative")
	}
	if s.BookingDelayHours < 0 {
		return configErr("bookingDelayHours", "must not be negative")
	}
	if s.MultipleBookingsPerSlot && s.BookingsPerSlotCapacity < 1 {
		return configErr("bookingsPerSlotCapacity", "must be at least one when multiple bookings per slot are enabled")
	}

	for day, window := range s.WorkingHours {
		if !weekdayKeys[day] {
			return configErr("workingHours", fmt.Sprintf("unknown weekday %q", day))
		}
		if window == nil {
			continue
		}
		start, err := time.Parse("15:04", window.Start)
		if err != nil {
			return configErr("workingHours."+day, fmt.Sprintf("bad start time %q", window.Start))
		}
		end, err := time.Parse("15:04", window.End)
		if err != nil {
			return configErr("workingHours."+day, fmt.Sprintf("bad end time %q", window.End))
		}
		if !start.Before(end) {
			return configErr("workingHours."+day, "start must be before end")
		}
	}

	for _, d := range s.BlockedDates {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return configErr("blockedDates", fmt.Sprintf("bad date %q", d))
		}
	}
	for _, b := range s.BlockedSlots {
		if _, err := time.Parse(time.RFC3339, b); err != nil {
			return configErr("blockedSlots", fmt.Sprintf("bad instant %q", b))
		}
	}
	return nil
}
