package repositories

import (
	"context"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
)

// CollectionRepository is the storage boundary for collections.
type CollectionRepository interface {
	// Create persists a new collection. Fails with a ConflictError when
	// the id is already taken.
	Create(ctx context.Context, col *models.Collection) error

	// GetByID returns the collection with the given id.
	GetByID(ctx context.Context, id string) (*models.Collection, error)

	// List returns all collections, ordered by creation time.
	List(ctx context.Context) ([]*models.Collection, error)

	// Update replaces the stored collection atomically.
	Update(ctx context.Context, col *models.Collection) error

	// Delete removes the collection. Member documents are untouched.
	Delete(ctx context.Context, id string) error
}
