package scheduling

import (
	"context"
	"errors"
	"time"

	bookingRepo "ibook/database/repository/booking"
	providerRepo "ibook/database/repository/provider"
	"ibook/models"
	"ibook/services/availability"
)

// ErrNotReschedulable is returned when the target booking is canceled or
// already finished and therefore no longer occupies a slot.
var ErrNotReschedulable = errors.New("booking can no longer be rescheduled")

// ErrStatusNotAllowed is returned when a status change would move a booking
// into a countable status without going through the capacity reserve.
var ErrStatusNotAllowed = errors.New("status cannot be set directly")

// SchedulingEngine is the write side of the booking core: every create,
// move, cancel and status change goes through it.
type SchedulingEngine interface {
	Commit(ctx context.Context, username string, req models.BookingRequest) (*models.Booking, error)
	Reschedule(ctx context.Context, username, bookingID string, newTime time.Time) error
	Cancel(ctx context.Context, username, bookingID string) error
	Confirm(ctx context.Context, username, bookingID string) error
	SetStatus(ctx context.Context, username, bookingID, status string) error
	ListBookings(ctx context.Context, username string) ([]models.Booking, error)
	ExpirePending(ctx context.Context, username, bookingID string) error
}

// ExpiryEnqueuer schedules the delayed cancellation of a Pending booking
// whose payment flow never completes.
type ExpiryEnqueuer interface {
	EnqueuePendingExpiry(payload models.ExpirePendingPayload, delay time.Duration) error
}

// DefaultSchedulingEngine implements SchedulingEngine.
type DefaultSchedulingEngine struct {
	Providers    providerRepo.ProviderRepository
	Bookings     bookingRepo.BookingRepository
	Availability *availability.Engine
	Queue        ExpiryEnqueuer // optional; Pending bookings never expire without it
	PendingTTL   time.Duration
	Clock        func() time.Time // overridable for tests; defaults to time.Now
}

func (se *DefaultSchedulingEngine) now() time.Time {
	if se.Clock != nil {
		return se.Clock().UTC()
	}
	return time.Now().UTC()
}
