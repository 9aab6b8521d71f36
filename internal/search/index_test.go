package search

import (
	"testing"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
)

func doc(id, title string, tags []string, content string) *models.Document {
	return &models.Document{
		ID:      id,
		URI:     "mdp://acme/docs/" + id,
		Content: content,
		Metadata: models.Metadata{
			Title: title,
			Tags:  tags,
		},
	}
}

func TestQueryScoring(t *testing.T) {
	ix := NewMemoryIndex()
	ix.Index(doc("a", "Kafka Setup", nil, "brokers and partitions"))
	ix.Index(doc("b", "Intro", []string{"kafka"}, "messaging overview"))
	ix.Index(doc("c", "Postgres", nil, "mentions kafka once in the body"))
	ix.Index(doc("d", "Unrelated", nil, "nothing here"))

	hits := ix.Query("kafka", models.ListFilter{}, 0)
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	order := []string{"a", "b", "c"}
	for i, want := range order {
		if hits[i].Summary.ID != want {
			t.Errorf("hits[%d] = %s, want %s", i, hits[i].Summary.ID, want)
		}
	}
	if hits[0].Score <= hits[1].Score || hits[1].Score <= hits[2].Score {
		t.Errorf("scores not strictly decreasing: %v %v %v",
			hits[0].Score, hits[1].Score, hits[2].Score)
	}
}

func TestQueryCaseInsensitive(t *testing.T) {
	ix := NewMemoryIndex()
	ix.Index(doc("a", "Deployment Guide", nil, "steps"))

	for _, q := range []string{"deployment", "DEPLOYMENT", "Deploy"} {
		if hits := ix.Query(q, models.ListFilter{}, 0); len(hits) != 1 {
			t.Errorf("Query(%q) returned %d hits, want 1", q, len(hits))
		}
	}
}

func TestQueryFilter(t *testing.T) {
	ix := NewMemoryIndex()
	a := doc("a", "Guide", []string{"ops"}, "scaling")
	a.Metadata.Status = models.StatusPublished
	ix.Index(a)
	b := doc("b", "Guide Draft", []string{"ops"}, "scaling")
	b.Metadata.Status = models.StatusDraft
	ix.Index(b)

	hits := ix.Query("guide", models.ListFilter{Status: models.StatusPublished}, 0)
	if len(hits) != 1 || hits[0].Summary.ID != "a" {
		t.Fatalf("hits = %+v, want only a", hits)
	}

	hits = ix.Query("guide", models.ListFilter{Tag: "OPS"}, 0)
	if len(hits) != 2 {
		t.Fatalf("tag filter matched %d, want 2", len(hits))
	}
}

func TestQueryEmptyMatchesAll(t *testing.T) {
	ix := NewMemoryIndex()
	ix.Index(doc("a", "One", nil, ""))
	ix.Index(doc("b", "Two", nil, ""))

	hits := ix.Query("", models.ListFilter{}, 0)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	// equal scores fall back to insertion order
	if hits[0].Summary.ID != "a" || hits[1].Summary.ID != "b" {
		t.Errorf("order = %s, %s", hits[0].Summary.ID, hits[1].Summary.ID)
	}
}

func TestQueryLimit(t *testing.T) {
	ix := NewMemoryIndex()
	ix.Index(doc("a", "alpha", nil, ""))
	ix.Index(doc("b", "alpha beta", nil, ""))
	ix.Index(doc("c", "alpha gamma", nil, ""))

	if hits := ix.Query("alpha", models.ListFilter{}, 2); len(hits) != 2 {
		t.Fatalf("limit ignored, got %d hits", len(hits))
	}
}

func TestRemove(t *testing.T) {
	ix := NewMemoryIndex()
	ix.Index(doc("a", "Target", nil, ""))
	ix.Remove("a")
	ix.Remove("never-indexed")

	if hits := ix.Query("target", models.ListFilter{}, 0); len(hits) != 0 {
		t.Fatalf("removed document still matched: %+v", hits)
	}
}

func TestReindexReplaces(t *testing.T) {
	ix := NewMemoryIndex()
	ix.Index(doc("a", "Old Title", nil, ""))
	ix.Index(doc("a", "New Title", nil, ""))

	if hits := ix.Query("old", models.ListFilter{}, 0); len(hits) != 0 {
		t.Fatal("stale entry still matching after reindex")
	}
	hits := ix.Query("new", models.ListFilter{}, 0)
	if len(hits) != 1 || hits[0].Summary.Title != "New Title" {
		t.Fatalf("hits = %+v", hits)
	}
}
