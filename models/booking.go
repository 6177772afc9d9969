package models

import "time"

// Booking statuses. "Not Completed" is derived at read time for Upcoming
// bookings whose instant has passed; it is never written to the store.
const (
	StatusPending      = "Pending"
	StatusUpcoming     = "Upcoming"
	StatusCompleted    = "Completed"
	StatusCanceled     = "Canceled"
	StatusNotCompleted = "Not Completed"
)

// Booking represents one committed appointment.
type Booking struct {
	ID            string    `bson:"id" json:"id"`                     // UUID, unique within a provider's collection
	ProviderID    string    `bson:"provider_id" json:"providerId"`    //
	DateTimeUTC   time.Time `bson:"date_time" json:"dateTime"`        // slot instant the booking occupies
	Status        string    `bson:"status" json:"status"`             //
	CustomerName  string    `bson:"customer_name" json:"customerName"`
	CustomerEmail string    `bson:"customer_email" json:"customerEmail,omitempty"`
	CustomerPhone string    `bson:"customer_phone" json:"customerPhone,omitempty"`
	ServiceName   string    `bson:"service_name" json:"serviceName,omitempty"`
	PaymentMethod string    `bson:"payment_method" json:"paymentMethod,omitempty"` // e.g. "razorpay", "pay_later"
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}

// CountsTowardCapacity reports whether this booking occupies its slot.
// Pending bookings reserve capacity while a payment flow is underway; the
// expiry worker cancels them if they stay Pending past the configured TTL.
func (b Booking) CountsTowardCapacity() bool {
	return b.Status == StatusPending || b.Status == StatusUpcoming
}

// DerivedStatus returns the status as it should be shown at read time:
// an Upcoming booking whose instant is already in the past reads as
// "Not Completed" without being rewritten in the store.
func (b Booking) DerivedStatus(now time.Time) string {
	if b.Status == StatusUpcoming && b.DateTimeUTC.Before(now) {
		return StatusNotCompleted
	}
	return b.Status
}

// BookingRequest is the public booking-form payload.
type BookingRequest struct {
	DateTime      time.Time `json:"dateTime" binding:"required"`
	CustomerName  string    `json:"customerName" binding:"required"`
	CustomerEmail string    `json:"customerEmail" binding:"omitempty,email"`
	CustomerPhone string    `json:"customerPhone"`
	ServiceName   string    `json:"serviceName"`
	PaymentMethod string    `json:"paymentMethod"`
	AwaitPayment  bool      `json:"awaitPayment"` // true for gateway flows: booking starts Pending
}

// RescheduleRequest moves an existing booking to a new instant.
type RescheduleRequest struct {
	DateTime time.Time `json:"dateTime" binding:"required"`
}

// StatusUpdateRequest is the provider dashboard status change payload.
// Only the closing transitions are accepted: Pending and Upcoming are
// reached through the commit and confirm paths, which reserve capacity.
// Reactivating a booking by writing a countable status directly would
// occupy a slot the counter never accounted for.
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required,oneof=Completed Canceled"`
}
