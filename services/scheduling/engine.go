package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ibook/database/repository"
	"ibook/models"
	"ibook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Commit attempts to durably occupy the requested instant. Availability is
// re-derived at write time — the client's idea of a free slot from an earlier
// page load is never trusted — and the repository's transactional reserve
// closes the remaining race between re-check and insert.
func (se *DefaultSchedulingEngine) Commit(ctx context.Context, username string, req models.BookingRequest) (*models.Booking, error) {
	provider, err := se.Providers.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	now := se.now()
	instant := req.DateTime.UTC()

	ok, err := se.Availability.SlotAvailable(ctx, provider, instant, now)
	if err != nil {
		return nil, fmt.Errorf("availability check failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("slot %s: %w", instant.Format(time.RFC3339), repository.ErrSlotUnavailable)
	}

	status := models.StatusUpcoming
	if req.AwaitPayment {
		status = models.StatusPending
	}
	booking := &models.Booking{
		ID:            uuid.New().String(),
		ProviderID:    provider.Username,
		DateTimeUTC:   instant,
		Status:        status,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		ServiceName:   req.ServiceName,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     now,
	}

	if err := se.Bookings.Commit(ctx, booking, provider.Schedule.SlotCapacity()); err != nil {
		return nil, err
	}

	if status == models.StatusPending {
		se.schedulePendingExpiry(provider.Username, booking.ID)
	}
	return booking, nil
}

// Reschedule moves a booking to newTime under the same validation a new
// booking gets; the old instant is released by the same transaction that
// occupies the new one.
func (se *DefaultSchedulingEngine) Reschedule(ctx context.Context, username, bookingID string, newTime time.Time) error {
	provider, err := se.Providers.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	booking, err := se.Bookings.GetByID(ctx, username, bookingID)
	if err != nil {
		return err
	}
	if !booking.CountsTowardCapacity() {
		return fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, ErrNotReschedulable)
	}

	instant := newTime.UTC()
	if instant.Equal(booking.DateTimeUTC.UTC()) {
		return nil
	}

	ok, err := se.Availability.SlotAvailable(ctx, provider, instant, se.now())
	if err != nil {
		return fmt.Errorf("availability check failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("slot %s: %w", instant.Format(time.RFC3339), repository.ErrSlotUnavailable)
	}

	if err := se.Bookings.Reschedule(ctx, username, bookingID, instant, provider.Schedule.SlotCapacity()); err != nil {
		if errors.Is(err, repository.ErrBookingInactive) {
			return fmt.Errorf("booking %s: %w", bookingID, ErrNotReschedulable)
		}
		return err
	}
	return nil
}

// Cancel releases the booking's capacity immediately. Canceling twice is a
// no-op.
func (se *DefaultSchedulingEngine) Cancel(ctx context.Context, username, bookingID string) error {
	return se.Bookings.Cancel(ctx, username, bookingID)
}

// Confirm promotes a Pending booking to Upcoming once its payment flow
// completes. Capacity was reserved at commit time, so nothing else moves.
func (se *DefaultSchedulingEngine) Confirm(ctx context.Context, username, bookingID string) error {
	return se.Bookings.ConfirmPending(ctx, username, bookingID)
}

// SetStatus applies a provider dashboard status change. Cancellation is
// routed through Cancel so capacity release stays in one place; only the
// closing transitions are allowed, because writing Pending or Upcoming
// directly would resurrect a booking without reserving its slot.
func (se *DefaultSchedulingEngine) SetStatus(ctx context.Context, username, bookingID, status string) error {
	switch status {
	case models.StatusCanceled:
		return se.Cancel(ctx, username, bookingID)
	case models.StatusCompleted:
		return se.Bookings.SetStatus(ctx, username, bookingID, status)
	default:
		return fmt.Errorf("status %q: %w", status, ErrStatusNotAllowed)
	}
}

// ListBookings returns the provider's bookings with read-time status
// derivation applied: past Upcoming bookings read as Not Completed.
func (se *DefaultSchedulingEngine) ListBookings(ctx context.Context, username string) ([]models.Booking, error) {
	bookings, err := se.Bookings.ListByProvider(ctx, username)
	if err != nil {
		return nil, err
	}
	now := se.now()
	for i := range bookings {
		bookings[i].Status = bookings[i].DerivedStatus(now)
	}
	return bookings, nil
}

// ExpirePending cancels a booking that is still Pending when its reservation
// TTL elapses, releasing the slot for other customers. The status check and
// the cancel are one atomic store operation, so a confirmation racing the
// expiry can never have its booking torn down.
func (se *DefaultSchedulingEngine) ExpirePending(ctx context.Context, username, bookingID string) error {
	expired, err := se.Bookings.CancelIfPending(ctx, username, bookingID)
	if err != nil {
		return err
	}
	if expired {
		utils.GetLogger().Info("expired pending booking",
			zap.String("provider", username),
			zap.String("booking", bookingID),
		)
	}
	return nil
}

func (se *DefaultSchedulingEngine) schedulePendingExpiry(username, bookingID string) {
	if se.Queue == nil {
		return
	}
	payload := models.ExpirePendingPayload{ProviderID: username, BookingID: bookingID}
	if err := se.Queue.EnqueuePendingExpiry(payload, se.PendingTTL); err != nil {
		// The booking stands either way; a leaked Pending reservation is
		// caught the next time the provider reviews the dashboard.
		utils.GetLogger().Warn("failed to schedule pending expiry",
			zap.String("provider", username),
			zap.String("booking", bookingID),
			zap.Error(err),
		)
	}
}
