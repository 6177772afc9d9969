package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ibook/database/repository"
	"ibook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

func (repo *mongoBookingRepo) GetByID(ctx context.Context, username, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var booking models.Booking
	filter := bson.M{"provider_id": username, "id": bookingID}
	if err := repo.bookingColl.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (repo *mongoBookingRepo) ListByProvider(ctx context.Context, username string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date_time", Value: -1}})
	cursor, err := repo.bookingColl.Find(ctx, bson.M{"provider_id": username}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings for %s: %w", username, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings for %s: %w", username, err)
	}
	return bookings, nil
}

// CountableBetween returns the Pending and Upcoming bookings whose slot
// instant falls in [from, to). Canceled and finished bookings never count.
func (repo *mongoBookingRepo) CountableBetween(ctx context.Context, username string, from, to time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"provider_id": username,
		"status":      bson.M{"$in": []string{models.StatusPending, models.StatusUpcoming}},
		"date_time":   bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings for %s: %w", username, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings for %s: %w", username, err)
	}
	return bookings, nil
}

// ConfirmPending flips a Pending booking to Upcoming. Capacity was already
// reserved at commit time, so the counter is untouched.
func (repo *mongoBookingRepo) ConfirmPending(ctx context.Context, username, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"provider_id": username, "id": bookingID, "status": models.StatusPending}
	update := bson.M{"$set": bson.M{"status": models.StatusUpcoming}}
	res, err := repo.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to confirm booking %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		// Either missing or no longer Pending; let the caller distinguish.
		if _, err := repo.GetByID(ctx, username, bookingID); err != nil {
			return err
		}
		return nil
	}
	return nil
}

func (repo *mongoBookingRepo) SetStatus(ctx context.Context, username, bookingID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"provider_id": username, "id": bookingID}
	update := bson.M{"$set": bson.M{"status": status}}
	res, err := repo.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update status for booking %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
	}
	return nil
}
