package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the bookings and
// slot_counters collections. The unique (provider_id, slot_time) index on
// counters is what makes the commit path race-safe.
func (repo *mongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bookingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider_id", Value: 1}, {Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("provider_booking_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "provider_id", Value: 1}, {Key: "date_time", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("provider_datetime_status_idx"),
		},
	}
	if _, err := repo.bookingColl.Indexes().CreateMany(ctx, bookingIndexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	counterIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider_id", Value: 1}, {Key: "slot_time", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_provider_slot"),
		},
	}
	if _, err := repo.counterColl.Indexes().CreateMany(ctx, counterIndexes); err != nil {
		return fmt.Errorf("failed to create slot counter indexes: %w", err)
	}
	return nil
}
