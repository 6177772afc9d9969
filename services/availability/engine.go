package availability

import (
	"context"
	"errors"
	"time"

	bookingRepo "ibook/database/repository/booking"
	providerRepo "ibook/database/repository/provider"
	"ibook/models"
	"ibook/utils"

	"go.uber.org/zap"
)

// Engine is the single availability authority: the public booking page, the
// provider reschedule dialog and the commit path all derive slots through it,
// so what is displayed and what is enforced can never drift apart.
type Engine struct {
	Providers providerRepo.ProviderRepository
	Bookings  bookingRepo.BookingRepository
}

// ListAvailableSlots computes the bookable slots for the named provider-local
// calendar day ("2006-01-02"). A misconfigured schedule degrades to an empty
// list: the provider sees the validation failure on their settings page,
// customers just see no availability.
func (e *Engine) ListAvailableSlots(ctx context.Context, username, date string, now time.Time) ([]models.Slot, error) {
	provider, err := e.Providers.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	anchor, err := DayAnchor(date, provider.Schedule)
	if err != nil {
		return e.degrade(provider.Username, err)
	}
	return e.slotsForDay(ctx, provider, anchor, now)
}

// SlotAvailable re-derives availability for the single instant t, exactly as
// the listing does. It returns false when t is not on the grid, is blocked,
// falls inside the booking delay, or is at capacity.
func (e *Engine) SlotAvailable(ctx context.Context, provider *models.Provider, t, now time.Time) (bool, error) {
	slots, err := e.slotsForDay(ctx, provider, t, now)
	if err != nil {
		return false, err
	}
	target := t.UTC()
	for _, s := range slots {
		if s.Time.Equal(target) {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) slotsForDay(ctx context.Context, provider *models.Provider, date, now time.Time) ([]models.Slot, error) {
	schedule := provider.Schedule

	grid, err := SlotGrid(date, schedule)
	if err != nil {
		return e.degrade(provider.Username, err)
	}
	if len(grid) == 0 {
		return []models.Slot{}, nil
	}

	from, to, err := DayWindow(date, schedule)
	if err != nil {
		return e.degrade(provider.Username, err)
	}
	bookings, err := e.Bookings.CountableBetween(ctx, provider.Username, from, to)
	if err != nil {
		return nil, err
	}

	slots, err := FilterSlots(grid, schedule, now, bookings)
	if err != nil {
		return e.degrade(provider.Username, err)
	}
	return slots, nil
}

// degrade turns a schedule configuration error into "no slots available"
// while keeping anything else fatal.
func (e *Engine) degrade(username string, err error) ([]models.Slot, error) {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		utils.GetLogger().Warn("schedule misconfigured, returning no availability",
			zap.String("provider", username),
			zap.String("field", cfgErr.Field),
			zap.String("reason", cfgErr.Reason),
		)
		return []models.Slot{}, nil
	}
	return nil, err
}
