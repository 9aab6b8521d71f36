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

// CollectionRepository is the in-memory collection store.
type CollectionRepository struct {
	mu    sync.RWMutex
	byID  map[string]*models.Collection
	seq   map[string]int
	next  int
}

// NewCollectionRepository creates an empty in-memory collection repository.
func NewCollectionRepository() *CollectionRepository {
	return &CollectionRepository{
		byID: make(map[string]*models.Collection),
		seq:  make(map[string]int),
	}
}

var _ repositories.CollectionRepository = (*CollectionRepository)(nil)

// Create stores a new collection.
func (r *CollectionRepository) Create(ctx context.Context, col *models.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[col.ID]; ok {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("collection id %s already exists", col.ID),
			ResourceType: "collection",
			ResourceID:   col.ID,
		}
	}
	r.byID[col.ID] = col.Clone()
	r.seq[col.ID] = r.next
	r.next++
	return nil
}

// GetByID returns a copy of the collection with the given id.
func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	col, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return col.Clone(), nil
}

// List returns copies of all collections in insertion order.
func (r *CollectionRepository) List(ctx context.Context) ([]*models.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Collection, 0, len(r.byID))
	for _, col := range r.byID {
		out = append(out, col.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return r.seq[out[i].ID] < r.seq[out[j].ID]
	})
	return out, nil
}

// Update replaces the stored collection atomically.
func (r *CollectionRepository) Update(ctx context.Context, col *models.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[col.ID]; !ok {
		return fmt.Errorf("collection %s: %w", col.ID, domain.ErrNotFound)
	}
	r.byID[col.ID] = col.Clone()
	return nil
}

// Delete removes the collection. Member documents are untouched.
func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	delete(r.byID, id)
	delete(r.seq, id)
	return nil
}
