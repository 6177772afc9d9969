package providerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ibook/database/repository"
	"ibook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const opTimeout = 5 * time.Second

// GetByUsername retrieves a provider document by its public handle.
func (repo *mongoProviderRepo) GetByUsername(ctx context.Context, username string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var provider models.Provider
	filter := bson.M{"username": username}
	if err := repo.coll.FindOne(ctx, filter).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("provider %s: %w", username, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching provider %s: %w", username, err)
	}
	return &provider, nil
}

func (repo *mongoProviderRepo) Create(ctx context.Context, provider *models.Provider) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	provider.CreatedAt = now
	provider.UpdatedAt = now
	if _, err := repo.coll.InsertOne(ctx, provider); err != nil {
		return fmt.Errorf("failed to insert provider %s: %w", provider.Username, err)
	}
	return nil
}

// UpdateSchedule replaces the embedded schedule on the provider document.
func (repo *mongoProviderRepo) UpdateSchedule(ctx context.Context, username string, schedule models.ProviderSchedule) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"schedule":  schedule,
		"updatedAt": time.Now().UTC(),
	}}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return fmt.Errorf("failed to update schedule for %s: %w", username, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("provider %s: %w", username, repository.ErrNotFound)
	}
	return nil
}

// BlockDate adds a date to the blocked set. $addToSet keeps this idempotent:
// blocking an already-blocked date leaves the set unchanged.
func (repo *mongoProviderRepo) BlockDate(ctx context.Context, username, date string) error {
	return repo.updateBlockedSet(ctx, username, "$addToSet", "schedule.blockedDates", date)
}

func (repo *mongoProviderRepo) UnblockDate(ctx context.Context, username, date string) error {
	return repo.updateBlockedSet(ctx, username, "$pull", "schedule.blockedDates", date)
}

func (repo *mongoProviderRepo) BlockSlot(ctx context.Context, username, instant string) error {
	return repo.updateBlockedSet(ctx, username, "$addToSet", "schedule.blockedSlots", instant)
}

func (repo *mongoProviderRepo) UnblockSlot(ctx context.Context, username, instant string) error {
	return repo.updateBlockedSet(ctx, username, "$pull", "schedule.blockedSlots", instant)
}

func (repo *mongoProviderRepo) updateBlockedSet(ctx context.Context, username, op, field, value string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{
		op:     bson.M{field: value},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s for %s: %w", field, username, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("provider %s: %w", username, repository.ErrNotFound)
	}
	return nil
}
