// Package memory provides in-memory repository implementations used for
// tests and for running the server without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/repositories"
)

// DocumentRepository is a mutex-guarded map store. Reads return deep
// copies, so a caller never observes a concurrent write half-applied.
type DocumentRepository struct {
	mu    sync.RWMutex
	byID  map[string]*models.Document
	byURI map[string]string // uri -> id
	seq   map[string]int    // id -> insertion order, for stable listing
	next  int
}

// NewDocumentRepository creates an empty in-memory document repository.
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		byID:  make(map[string]*models.Document),
		byURI: make(map[string]string),
		seq:   make(map[string]int),
	}
}

var _ repositories.DocumentRepository = (*DocumentRepository)(nil)

// Create stores a new document, enforcing id and uri uniqueness.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[doc.ID]; ok {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document id %s already exists", doc.ID),
			ResourceType: "document",
			ResourceID:   existing.ID,
		}
	}
	if existingID, ok := r.byURI[doc.URI]; ok {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document uri %s already exists", doc.URI),
			ResourceType: "document",
			ResourceID:   existingID,
		}
	}

	r.byID[doc.ID] = doc.Clone()
	r.byURI[doc.URI] = doc.ID
	r.seq[doc.ID] = r.next
	r.next++
	return nil
}

// GetByID returns a copy of the document with the given id.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc.Clone(), nil
}

// GetByURI returns a copy of the document with the given uri.
func (r *DocumentRepository) GetByURI(ctx context.Context, uri string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byURI[uri]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", uri, domain.ErrNotFound)
	}
	return r.byID[id].Clone(), nil
}

// List returns copies of documents matching the filter in insertion order.
func (r *DocumentRepository) List(ctx context.Context, filter models.ListFilter) ([]*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Document, 0, len(r.byID))
	for _, doc := range r.byID {
		if filter.Matches(doc) {
			out = append(out, doc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.seq[out[i].ID] < r.seq[out[j].ID]
	})
	return out, nil
}

// Update replaces the stored document atomically.
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[doc.ID]
	if !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	if doc.URI != existing.URI {
		if otherID, taken := r.byURI[doc.URI]; taken && otherID != doc.ID {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document uri %s already exists", doc.URI),
				ResourceType: "document",
				ResourceID:   otherID,
			}
		}
		delete(r.byURI, existing.URI)
		r.byURI[doc.URI] = doc.ID
	}
	r.byID[doc.ID] = doc.Clone()
	return nil
}

// ReplaceRelationships swaps the outgoing edge list of one document.
func (r *DocumentRepository) ReplaceRelationships(ctx context.Context, docID string, rels []models.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.byID[docID]
	if !ok {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}
	copied := make([]models.Relationship, len(rels))
	for i, rel := range rels {
		copied[i] = rel.Clone()
	}
	doc.Relationships = copied
	return nil
}

// Delete removes the document.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.byURI, doc.URI)
	delete(r.byID, id)
	delete(r.seq, id)
	return nil
}

// TransactionManager satisfies the repositories.TransactionManager
// interface for the in-memory stores. There is no rollback machinery;
// single-process callers rely on the store-level per-id locks for
// atomicity, so fn simply runs in place.
type TransactionManager struct{}

// NewTransactionManager returns the pass-through transaction manager.
func NewTransactionManager() *TransactionManager { return &TransactionManager{} }

// ExecTx runs fn with the given context.
func (TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
