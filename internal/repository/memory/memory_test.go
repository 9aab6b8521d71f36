package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
)

func newDoc(id, uri, title string) *models.Document {
	return &models.Document{
		ID:  id,
		URI: uri,
		Metadata: models.Metadata{
			Title:     title,
			CreatedAt: time.Now().UTC(),
		},
	}
}

func TestDocumentCreateDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	if err := repo.Create(ctx, newDoc("id-1", "mdp://o/p/a", "A")); err != nil {
		t.Fatal(err)
	}

	err := repo.Create(ctx, newDoc("id-1", "mdp://o/p/b", "B"))
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate id: got %v, want conflict", err)
	}

	err = repo.Create(ctx, newDoc("id-2", "mdp://o/p/a", "B"))
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("duplicate uri: got %v, want ConflictError", err)
	}
	if conflict.ResourceID != "id-1" {
		t.Errorf("conflict names %q, want id-1", conflict.ResourceID)
	}

	// the failed creates left the store unchanged
	docs, err := repo.List(ctx, models.ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("store has %d documents, want 1", len(docs))
	}
}

func TestDocumentReadsAreSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()
	if err := repo.Create(ctx, newDoc("id-1", "mdp://o/p/a", "A")); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(ctx, "id-1")
	if err != nil {
		t.Fatal(err)
	}
	got.Metadata.Title = "mutated by caller"

	again, _ := repo.GetByID(ctx, "id-1")
	if again.Metadata.Title != "A" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestDocumentUpdateAndListOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	for _, d := range []*models.Document{
		newDoc("id-1", "mdp://o/p/a", "A"),
		newDoc("id-2", "mdp://o/p/b", "B"),
		newDoc("id-3", "mdp://o/p/c", "C"),
	} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	doc, _ := repo.GetByID(ctx, "id-2")
	doc.Metadata.Status = models.StatusPublished
	if err := repo.Update(ctx, doc); err != nil {
		t.Fatal(err)
	}

	docs, _ := repo.List(ctx, models.ListFilter{})
	if len(docs) != 3 || docs[0].ID != "id-1" || docs[2].ID != "id-3" {
		t.Errorf("listing out of insertion order: %v", ids(docs))
	}

	published, _ := repo.List(ctx, models.ListFilter{Status: models.StatusPublished})
	if len(published) != 1 || published[0].ID != "id-2" {
		t.Errorf("filtered listing: %v", ids(published))
	}
}

func TestDocumentDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()
	if err := repo.Create(ctx, newDoc("id-1", "mdp://o/p/a", "A")); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(ctx, "id-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, "id-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted document still resolvable: %v", err)
	}
	if _, err := repo.GetByURI(ctx, "mdp://o/p/a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted uri still resolvable: %v", err)
	}

	// the uri is free for reuse after deletion
	if err := repo.Create(ctx, newDoc("id-2", "mdp://o/p/a", "A2")); err != nil {
		t.Errorf("uri not released on delete: %v", err)
	}
}

func TestDocumentConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()
	if err := repo.Create(ctx, newDoc("id-1", "mdp://o/p/a", "A")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				doc, err := repo.GetByID(ctx, "id-1")
				if err != nil {
					t.Error(err)
					return
				}
				doc.Metadata.Title = "B"
				if err := repo.Update(ctx, doc); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCollectionCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewCollectionRepository()

	col := &models.Collection{ID: "col-1", Name: "Guides", Members: []string{"d1", "d2"}, CreatedAt: time.Now()}
	if err := repo.Create(ctx, col); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, col); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate collection id: got %v", err)
	}

	got, err := repo.GetByID(ctx, "col-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Members) != 2 || got.Members[0] != "d1" {
		t.Errorf("member order lost: %v", got.Members)
	}

	got.Members = append(got.Members, "d3")
	if err := repo.Update(ctx, got); err != nil {
		t.Fatal(err)
	}
	updated, _ := repo.GetByID(ctx, "col-1")
	if len(updated.Members) != 3 {
		t.Errorf("update lost members: %v", updated.Members)
	}

	if err := repo.Delete(ctx, "col-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, "col-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted collection still present: %v", err)
	}
}

func ids(docs []*models.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
