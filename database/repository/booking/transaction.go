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

// reserveSlot takes one unit of capacity at (username, slotTime) inside the
// given session context. The counter document carries a unique index on
// (provider_id, slot_time); the capacity-bounded $inc plus the duplicate-key
// fallback means two concurrent writers can never push a slot past capacity:
// the losing writer observes MatchedCount == 0 and a duplicate-key insert,
// and gets repository.ErrSlotUnavailable.
func (repo *mongoBookingRepo) reserveSlot(sc mongo.SessionContext, username string, slotTime time.Time, capacity int) error {
	now := time.Now().UTC()
	filter := bson.M{
		"provider_id": username,
		"slot_time":   slotTime,
		"count":       bson.M{"$lt": capacity},
	}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updated_at": now},
	}
	res, err := repo.counterColl.UpdateOne(sc, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No counter below capacity matched: either the slot has never been
	// booked, or it is full. Inserting resolves which — the unique index
	// rejects the insert when a (full) counter already exists.
	_, err = repo.counterColl.InsertOne(sc, models.SlotCounter{
		ProviderID: username,
		SlotTime:   slotTime,
		Count:      1,
		UpdatedAt:  now,
	})
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrSlotUnavailable
	}
	if err != nil {
		return fmt.Errorf("failed to create slot counter: %w", err)
	}
	return nil
}

// releaseSlot returns one unit of capacity at (username, slotTime). The
// count>0 guard keeps repeated releases from going negative.
func (repo *mongoBookingRepo) releaseSlot(sc mongo.SessionContext, username string, slotTime time.Time) error {
	filter := bson.M{
		"provider_id": username,
		"slot_time":   slotTime,
		"count":       bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"count": -1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	if _, err := repo.counterColl.UpdateOne(sc, filter, update); err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}
	return nil
}

// withTransaction runs fn inside a Mongo session transaction.
func (repo *mongoBookingRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

// Commit reserves capacity at the booking's instant and inserts the record
// in one transaction. Exactly one of N concurrent commits for the last unit
// of capacity succeeds; the rest get repository.ErrSlotUnavailable.
func (repo *mongoBookingRepo) Commit(ctx context.Context, booking *models.Booking, capacity int) error {
	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := repo.reserveSlot(sc, booking.ProviderID, booking.DateTimeUTC, capacity); err != nil {
			return err
		}
		if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlotUnavailable) {
			return err
		}
		return fmt.Errorf("booking transaction failed: %w", err)
	}
	return nil
}

// Reschedule moves a booking to newTime: the new instant is reserved first,
// then the old instant is released and the record updated, all in one
// transaction so a failed move leaves both slots untouched.
func (repo *mongoBookingRepo) Reschedule(ctx context.Context, username, bookingID string, newTime time.Time, capacity int) error {
	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		var booking models.Booking
		filter := bson.M{"provider_id": username, "id": bookingID}
		if err := repo.bookingColl.FindOne(sc, filter).Decode(&booking); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
			}
			return fmt.Errorf("error fetching booking %s: %w", bookingID, err)
		}

		// Re-check inside the transaction: a cancel landing after the
		// caller's status read must not let the move reserve a slot for a
		// booking that no longer holds one.
		if !booking.CountsTowardCapacity() {
			return fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, repository.ErrBookingInactive)
		}

		if err := repo.reserveSlot(sc, username, newTime, capacity); err != nil {
			return err
		}
		if err := repo.releaseSlot(sc, username, booking.DateTimeUTC); err != nil {
			return err
		}

		update := bson.M{"$set": bson.M{"date_time": newTime}}
		if _, err := repo.bookingColl.UpdateOne(sc, filter, update); err != nil {
			return fmt.Errorf("failed to move booking %s: %w", bookingID, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlotUnavailable) ||
			errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrBookingInactive) {
			return err
		}
		return fmt.Errorf("reschedule transaction failed: %w", err)
	}
	return nil
}

// Cancel sets the booking to Canceled and releases its slot. The status
// filter makes repeat cancellations a no-op rather than a double release.
func (repo *mongoBookingRepo) Cancel(ctx context.Context, username, bookingID string) error {
	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		filter := bson.M{
			"provider_id": username,
			"id":          bookingID,
			"status":      bson.M{"$ne": models.StatusCanceled},
		}
		update := bson.M{"$set": bson.M{"status": models.StatusCanceled}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

		var previous models.Booking
		if err := repo.bookingColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&previous); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// Missing entirely, or already canceled. Only the former
				// is an error.
				count, cErr := repo.bookingColl.CountDocuments(sc, bson.M{"provider_id": username, "id": bookingID})
				if cErr != nil {
					return fmt.Errorf("error checking booking %s: %w", bookingID, cErr)
				}
				if count == 0 {
					return fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
				}
				return nil
			}
			return fmt.Errorf("error canceling booking %s: %w", bookingID, err)
		}

		if previous.CountsTowardCapacity() {
			return repo.releaseSlot(sc, username, previous.DateTimeUTC)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("cancel transaction failed: %w", err)
	}
	return nil
}

// CancelIfPending cancels a booking that is still Pending. The status check
// and the cancel are one FindOneAndUpdate, so a confirmation racing the
// expiry worker either wins cleanly (no cancel) or loses cleanly (the
// confirm's Pending filter misses); a confirmed booking is never torn down.
func (repo *mongoBookingRepo) CancelIfPending(ctx context.Context, username, bookingID string) (bool, error) {
	canceled := false
	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		filter := bson.M{
			"provider_id": username,
			"id":          bookingID,
			"status":      models.StatusPending,
		}
		update := bson.M{"$set": bson.M{"status": models.StatusCanceled}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

		var previous models.Booking
		if err := repo.bookingColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&previous); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				count, cErr := repo.bookingColl.CountDocuments(sc, bson.M{"provider_id": username, "id": bookingID})
				if cErr != nil {
					return fmt.Errorf("error checking booking %s: %w", bookingID, cErr)
				}
				if count == 0 {
					return fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
				}
				// No longer Pending; nothing to do.
				return nil
			}
			return fmt.Errorf("error expiring booking %s: %w", bookingID, err)
		}

		canceled = true
		return repo.releaseSlot(sc, username, previous.DateTimeUTC)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("expire transaction failed: %w", err)
	}
	return canceled, nil
}
