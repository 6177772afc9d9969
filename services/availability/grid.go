package availability

import (
	"time"

	"ibook/models"
)

const dateLayout = "2006-01-02"

// SlotGrid derives the ordered candidate slot-start instants (UTC) for the
// provider-local calendar day containing date. The weekday, the blocked-date
// lookup and the working-hours window are all resolved in the provider's
// timezone; a UTC instant shortly before local midnight therefore lands on
// the correct local day. A day off, a blocked date or an inverted window
// yields an empty grid, not an error.
func SlotGrid(date time.Time, schedule models.ProviderSchedule) ([]time.Time, error) {
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return nil, configErr("timezone", err.Error())
	}

	step := schedule.SlotDurationMinutes + schedule.BreakMinutes
	if step < 1 {
		return nil, configErr("slotDurationMinutes", "slot duration plus break must be at least one minute")
	}

	day := date.In(loc)
	if schedule.IsDateBlocked(day.Format(dateLayout)) {
		return nil, nil
	}

	window := schedule.WorkingHours[models.WeekdayKey(day.Weekday())]
	if window == nil {
		return nil, nil
	}

	start, err := atClock(day, window.Start, loc)
	if err != nil {
		return nil, configErr("workingHours.start", err.Error())
	}
	end, err := atClock(day, window.End, loc)
	if err != nil {
		return nil, configErr("workingHours.end", err.Error())
	}
	// start >= end is treated as misconfiguration: no slots, no error.
	if !start.Before(end) {
		return nil, nil
	}

	var grid []time.Time
	for cur := start; cur.Before(end); cur = cur.Add(time.Duration(step) * time.Minute) {
		grid = append(grid, cur)
	}
	return grid, nil
}

// DayAnchor resolves a provider-local "2006-01-02" date string to an instant
// safely inside that local day (local noon). Callers pass the anchor to
// SlotGrid and DayWindow so the calendar day is interpreted in the provider's
// zone no matter where the request came from.
func DayAnchor(date string, schedule models.ProviderSchedule) (time.Time, error) {
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return time.Time{}, configErr("timezone", err.Error())
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(12 * time.Hour), nil
}

// DayWindow returns the UTC half-open interval covering the provider-local
// calendar day containing date. Booking queries for a day use this window so
// that day boundaries follow the provider's clock, not the server's.
func DayWindow(date time.Time, schedule models.ProviderSchedule) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, configErr("timezone", err.Error())
	}
	day := date.In(loc)
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return midnight.UTC(), midnight.AddDate(0, 0, 1).UTC(), nil
}

// atClock resolves an "HH:MM" wall-clock string on day (already in loc) to an
// absolute UTC instant.
func atClock(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	return local.UTC(), nil
}
