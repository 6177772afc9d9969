package bookingRepo

import (
	"context"
	"time"

	"ibook/database"
	"ibook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository defines data access for bookings and the per-slot
// occupancy counters that guard commits against concurrent overcommit.
type BookingRepository interface {
	// GetByID retrieves one booking scoped to a provider.
	GetByID(ctx context.Context, username, bookingID string) (*models.Booking, error)
	// ListByProvider returns all bookings for a provider, newest slot first.
	ListByProvider(ctx context.Context, username string) ([]models.Booking, error)
	// CountableBetween returns bookings occupying slots in [from, to) that
	// count toward capacity (Pending and Upcoming).
	CountableBetween(ctx context.Context, username string, from, to time.Time) ([]models.Booking, error)
	// Commit atomically reserves capacity at the booking's instant and
	// inserts the record; returns repository.ErrSlotUnavailable when the
	// slot is already at capacity.
	Commit(ctx context.Context, booking *models.Booking, capacity int) error
	// Reschedule atomically reserves the new instant, releases the old one
	// and moves the booking; no duplicate record is created.
	Reschedule(ctx context.Context, username, bookingID string, newTime time.Time, capacity int) error
	// Cancel marks the booking Canceled and releases its capacity.
	// Canceling an already-canceled booking is a no-op.
	Cancel(ctx context.Context, username, bookingID string) error
	// CancelIfPending cancels the booking only if it is still Pending,
	// atomically with the status check, and reports whether it did.
	// A booking confirmed or canceled in the meantime is left untouched.
	CancelIfPending(ctx context.Context, username, bookingID string) (bool, error)
	// ConfirmPending promotes a Pending booking to Upcoming.
	ConfirmPending(ctx context.Context, username, bookingID string) error
	// SetStatus updates a booking's status without touching capacity.
	// Cancellation must go through Cancel instead.
	SetStatus(ctx context.Context, username, bookingID, status string) error
	// EnsureIndexes creates booking and counter collection indexes.
	EnsureIndexes() error
}

type mongoBookingRepo struct {
	bookingColl *mongo.Collection
	counterColl *mongo.Collection
}

// NewMongoBookingRepo constructs a MongoDB-backed BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	db := database.DB()
	return &mongoBookingRepo{
		bookingColl: db.Collection("bookings"),
		counterColl: db.Collection("slot_counters"),
	}
}
