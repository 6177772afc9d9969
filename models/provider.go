package models

import (
	"strings"
	"time"
)

// TimeWindow is a provider-local working window, e.g. {"09:00", "17:00"}.
// Both values are wall-clock times in the provider's timezone.
type TimeWindow struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// ProviderSchedule holds everything needed to derive bookable slots for a day.
type ProviderSchedule struct {
	WorkingHours            map[string]*TimeWindow `bson:"workingHours" json:"workingHours"`                       // weekday name -> window, nil/absent = day off
	SlotDurationMinutes     int                    `bson:"slotDurationMinutes" json:"slotDurationMinutes"`         // length of one appointment
	BreakMinutes            int                    `bson:"breakMinutes" json:"breakMinutes"`                       // gap added after each slot
	BookingDelayHours       float64                `bson:"bookingDelayHours" json:"bookingDelayHours"`             // minimum lead time, same-day only
	Timezone                string                 `bson:"timezone" json:"timezone"`                               // IANA zone, e.g. "Asia/Kolkata"
	BlockedDates            []string               `bson:"blockedDates,omitempty" json:"blockedDates,omitempty"`   // "2006-01-02", provider-local
	BlockedSlots            []string               `bson:"blockedSlots,omitempty" json:"blockedSlots,omitempty"`   // RFC3339 UTC instants
	MultipleBookingsPerSlot bool                   `bson:"multipleBookingsPerSlot" json:"multipleBookingsPerSlot"` //
	BookingsPerSlotCapacity int                    `bson:"bookingsPerSlotCapacity" json:"bookingsPerSlotCapacity"` // only meaningful when multi-booking is on
}

// SlotCapacity returns the number of bookings one slot instant may hold.
func (s ProviderSchedule) SlotCapacity() int {
	if s.MultipleBookingsPerSlot && s.BookingsPerSlotCapacity > 0 {
		return s.BookingsPerSlotCapacity
	}
	return 1
}

// IsDateBlocked reports whether the provider-local date string is blocked.
func (s ProviderSchedule) IsDateBlocked(date string) bool {
	for _, d := range s.BlockedDates {
		if d == date {
			return true
		}
	}
	return false
}

// IsSlotBlocked reports whether the exact UTC instant is blocked.
func (s ProviderSchedule) IsSlotBlocked(t time.Time) bool {
	key := t.UTC().Format(time.RFC3339)
	for _, b := range s.BlockedSlots {
		if b == key {
			return true
		}
	}
	return false
}

// WeekdayKey maps a time.Weekday to the workingHours map key.
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// Provider is the subset of a provider document the booking engine needs.
type Provider struct {
	ID        string           `bson:"id" json:"id"`
	Username  string           `bson:"username" json:"username"` // public page handle, unique
	Name      string           `bson:"name" json:"name,omitempty"`
	Email     string           `bson:"email" json:"-"`
	Schedule  ProviderSchedule `bson:"schedule" json:"schedule"`
	CreatedAt time.Time        `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt time.Time        `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// ScheduleUpdateRequest is the payload for replacing a provider's schedule.
type ScheduleUpdateRequest struct {
	WorkingHours            map[string]*TimeWindow `json:"workingHours" binding:"required"`
	SlotDurationMinutes     int                    `json:"slotDurationMinutes" binding:"required,min=1"`
	BreakMinutes            int                    `json:"breakMinutes" binding:"min=0"`
	BookingDelayHours       float64                `json:"bookingDelayHours" binding:"min=0"`
	Timezone                string                 `json:"timezone" binding:"required"`
	MultipleBookingsPerSlot bool                   `json:"multipleBookingsPerSlot"`
	BookingsPerSlotCapacity int                    `json:"bookingsPerSlotCapacity"`
}
