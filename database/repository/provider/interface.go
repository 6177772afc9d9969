package providerRepo

import (
	"context"

	"ibook/database"
	"ibook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ProviderRepository defines data access for provider schedule configuration.
type ProviderRepository interface {
	// GetByUsername retrieves a provider by its public page handle.
	GetByUsername(ctx context.Context, username string) (*models.Provider, error)
	// Create persists a new provider document.
	Create(ctx context.Context, provider *models.Provider) error
	// UpdateSchedule replaces the provider's schedule configuration.
	UpdateSchedule(ctx context.Context, username string, schedule models.ProviderSchedule) error
	// BlockDate adds a provider-local date to the blocked set (set semantics).
	BlockDate(ctx context.Context, username, date string) error
	// UnblockDate removes a date from the blocked set.
	UnblockDate(ctx context.Context, username, date string) error
	// BlockSlot adds a UTC instant to the blocked-slot set (set semantics).
	BlockSlot(ctx context.Context, username, instant string) error
	// UnblockSlot removes an instant from the blocked-slot set.
	UnblockSlot(ctx context.Context, username, instant string) error
	// EnsureIndexes creates the provider collection indexes.
	EnsureIndexes() error
}

type mongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo constructs a MongoDB-backed ProviderRepository.
func NewMongoProviderRepo() ProviderRepository {
	return &mongoProviderRepo{
		coll: database.DB().Collection("providers"),
	}
}
