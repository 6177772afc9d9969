package models

import "time"

// Slot is a derived view of one bookable instant. Slots are recomputed on
// every availability query and never persisted.
type Slot struct {
	Time              time.Time `json:"time"` // UTC slot start
	Booked            bool      `json:"booked"`
	RemainingCapacity int       `json:"remainingCapacity"`
}

// SlotCounter is the per-instant occupancy guard document. A unique index on
// (provider_id, slot_time) plus a capacity-bounded conditional increment
// makes the commit path safe against concurrent writers.
type SlotCounter struct {
	ProviderID string    `bson:"provider_id" json:"providerId"`
	SlotTime   time.Time `bson:"slot_time" json:"slotTime"`
	Count      int       `bson:"count" json:"count"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// ExpirePendingPayload is the asynq task payload for expiring a Pending
// booking whose payment flow never completed.
type ExpirePendingPayload struct {
	ProviderID string `json:"providerId"`
	BookingID  string `json:"bookingId"`
}
