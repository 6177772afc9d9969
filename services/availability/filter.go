package availability

import (
	"time"

	"ibook/models"
)

// FilterSlots reduces the candidate grid to the bookable subsequence, each
// slot annotated with its remaining capacity. A candidate is dropped when its
// instant is explicitly blocked, when it falls at or before the booking-delay
// cutoff (same provider-local day only), or when existing bookings already
// fill its capacity. Input order is preserved and the function is pure:
// identical inputs always yield identical output.
func FilterSlots(candidates []time.Time, schedule models.ProviderSchedule, now time.Time, bookings []models.Booking) ([]models.Slot, error) {
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return nil, configErr("timezone", err.Error())
	}

	occupied := make(map[int64]int, len(bookings))
	for _, b := range bookings {
		if b.CountsTowardCapacity() {
			occupied[b.DateTimeUTC.UTC().Unix()]++
		}
	}

	capacity := schedule.SlotCapacity()
	cutoff := now.Add(time.Duration(schedule.BookingDelayHours * float64(time.Hour)))
	today := now.In(loc).Format(dateLayout)

	slots := make([]models.Slot, 0, len(candidates))
	for _, t := range candidates {
		if schedule.IsSlotBlocked(t) {
			continue
		}
		// The delay cutoff only ever applies to the current day.
		if t.In(loc).Format(dateLayout) == today && !t.After(cutoff) {
			continue
		}
		count := occupied[t.UTC().Unix()]
		if count >= capacity {
			continue
		}
		slots = append(slots, models.Slot{
			Time:              t.UTC(),
			Booked:            count > 0,
			RemainingCapacity: capacity - count,
		})
	}
	return slots, nil
}
