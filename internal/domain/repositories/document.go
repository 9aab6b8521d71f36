package repositories

import (
	"context"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
)

// DocumentRepository is the storage boundary for documents. Implementations
// must treat both id and uri as unique keys and return
// domain.ConflictError / domain.ErrNotFound accordingly.
type DocumentRepository interface {
	// Create persists a new document. Fails with a ConflictError when the
	// id or uri is already taken.
	Create(ctx context.Context, doc *models.Document) error

	// GetByID returns the document with the given id.
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// GetByURI returns the document with the given mdp URI.
	GetByURI(ctx context.Context, uri string) (*models.Document, error)

	// List returns documents matching the filter, ordered by creation time.
	List(ctx context.Context, filter models.ListFilter) ([]*models.Document, error)

	// Update replaces the stored document. The write is atomic: readers
	// see either the old or the new record, never a mix.
	Update(ctx context.Context, doc *models.Document) error

	// ReplaceRelationships atomically replaces the outgoing edge list of
	// one document without touching its metadata or content.
	ReplaceRelationships(ctx context.Context, docID string, rels []models.Relationship) error

	// Delete removes the document.
	Delete(ctx context.Context, id string) error
}
