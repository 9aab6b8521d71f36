package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/extract"
	"github.com/greyhaven-ai/datapack/internal/identity"
	"github.com/greyhaven-ai/datapack/internal/repository/memory"
	"github.com/greyhaven-ai/datapack/internal/search"
	"github.com/greyhaven-ai/datapack/internal/service"
)

const testNamespace = "acme/docs"

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docRepo := memory.NewDocumentRepository()
	collRepo := memory.NewCollectionRepository()
	ids := identity.NewGenerator()
	locks := service.NewIDLocks()

	resolver := service.NewResolver(docRepo, []string{testNamespace})
	graph := service.NewGraph(docRepo, resolver, ids, locks, logger)
	collections := service.NewCollection(collRepo, docRepo, resolver, ids, locks, logger)
	docs := service.NewDocumentService(
		docRepo, memory.NewTransactionManager(), resolver, graph, collections,
		search.NewMemoryIndex(), extract.NewHeuristic(), ids, locks, testNamespace, logger,
	)

	return Routes(
		NewDocumentHandler(docs, graph, logger),
		NewMDPHandler(docs, logger),
		NewCollectionHandler(collections, logger),
		NewContextHandler(docs, logger),
		prometheus.NewRegistry(),
	)
}

func do(t *testing.T, mux *http.ServeMux, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequestWithContext(context.Background(), method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func createDoc(t *testing.T, mux *http.ServeMux, title, path string) models.Document {
	t.Helper()
	rec := do(t, mux, http.MethodPost, "/api/documents", map[string]any{
		"path":     path,
		"metadata": map[string]any{"title": title},
		"content":  "content of " + title,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[models.Document](t, rec)
}

func TestDocumentCRUD(t *testing.T) {
	mux := newTestMux(t)
	doc := createDoc(t, mux, "Alpha", "guides/alpha")

	rec := do(t, mux, http.MethodGet, "/api/documents/"+doc.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	got := decode[models.Document](t, rec)
	if got.URI != "mdp://acme/docs/guides/alpha" {
		t.Errorf("uri = %q", got.URI)
	}

	rec = do(t, mux, http.MethodPatch, "/api/documents/"+doc.ID, map[string]any{
		"metadata": map[string]any{"author": "casey"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status %d body %s", rec.Code, rec.Body.String())
	}
	if decode[models.Document](t, rec).Metadata.Author != "casey" {
		t.Error("author not patched")
	}

	rec = do(t, mux, http.MethodDelete, "/api/documents/"+doc.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = do(t, mux, http.MethodGet, "/api/documents/"+doc.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", rec.Code)
	}
}

func TestCreateConflictProblem(t *testing.T) {
	mux := newTestMux(t)
	doc := createDoc(t, mux, "Alpha", "guides/alpha")

	rec := do(t, mux, http.MethodPost, "/api/documents", map[string]any{
		"uri":      doc.URI,
		"metadata": map[string]any{"title": "Clone"},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q", ct)
	}
	problem := decode[map[string]any](t, rec)
	if problem["resource_id"] != doc.ID {
		t.Errorf("problem = %v, want resource_id %s", problem, doc.ID)
	}
}

func TestValidationProblemNamesFields(t *testing.T) {
	mux := newTestMux(t)
	doc := createDoc(t, mux, "Alpha", "guides/alpha")

	rec := do(t, mux, http.MethodPatch, "/api/documents/"+doc.ID, map[string]any{
		"metadata": map[string]any{"tags": "not-a-list"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	problem := decode[map[string]any](t, rec)
	fields, _ := problem["fields"].([]any)
	if len(fields) != 1 || fields[0] != "tags" {
		t.Errorf("fields = %v", fields)
	}
}

func TestMDPResourcePaths(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPut, "/mdp/acme/docs/guides/setup", "# Setup\n\nsteps")
	if rec.Code != http.StatusCreated {
		t.Fatalf("put create: status %d body %s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]string](t, rec)
	if created["uri"] != "mdp://acme/docs/guides/setup" {
		t.Errorf("uri = %q", created["uri"])
	}

	rec = do(t, mux, http.MethodGet, "/mdp/acme/docs/guides/setup", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "# Setup\n\nsteps" {
		t.Fatalf("get: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Document-ID") == "" {
		t.Error("missing document id header")
	}

	// Second PUT updates instead of conflicting.
	rec = do(t, mux, http.MethodPut, "/mdp/acme/docs/guides/setup", "revised")
	if rec.Code != http.StatusOK {
		t.Fatalf("put update: status %d", rec.Code)
	}
	rec = do(t, mux, http.MethodGet, "/mdp/acme/docs/guides/setup", nil)
	if rec.Body.String() != "revised" {
		t.Errorf("content = %q", rec.Body.String())
	}

	rec = do(t, mux, http.MethodDelete, "/mdp/acme/docs/guides/setup", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
}

func TestMDPMetadataSubresource(t *testing.T) {
	mux := newTestMux(t)
	createDoc(t, mux, "Alpha", "guides/alpha")

	rec := do(t, mux, http.MethodGet, "/mdp/acme/docs/guides/alpha/metadata", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get metadata: status %d", rec.Code)
	}
	meta := decode[map[string]any](t, rec)
	if meta["title"] != "Alpha" {
		t.Errorf("metadata = %v", meta)
	}

	rec = do(t, mux, http.MethodPut, "/mdp/acme/docs/guides/alpha/metadata", map[string]any{"author": "casey"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put metadata: status %d body %s", rec.Code, rec.Body.String())
	}
	meta = decode[map[string]any](t, rec)
	if meta["author"] != "casey" || meta["title"] != "Alpha" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestMalformedURIPath(t *testing.T) {
	mux := newTestMux(t)
	rec := do(t, mux, http.MethodGet, "/mdp/acme/docs/bad%20segment", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestListAndSearch(t *testing.T) {
	mux := newTestMux(t)
	createDoc(t, mux, "Kafka Guide", "kafka")
	createDoc(t, mux, "Other", "other")

	rec := do(t, mux, http.MethodGet, "/collections/list", nil)
	listing := decode[map[string][]models.Summary](t, rec)
	if len(listing["documents"]) != 2 {
		t.Fatalf("documents = %+v", listing)
	}

	rec = do(t, mux, http.MethodGet, "/api/documents/search?q=kafka", nil)
	hits := decode[map[string][]models.SearchHit](t, rec)
	if len(hits["hits"]) != 1 || hits["hits"][0].Summary.Title != "Kafka Guide" {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestRelationshipsAndContext(t *testing.T) {
	mux := newTestMux(t)
	d1 := createDoc(t, mux, "A", "a")
	d2 := createDoc(t, mux, "B", "b")

	rec := do(t, mux, http.MethodPost, "/api/documents/"+d1.ID+"/relationships", map[string]any{
		"target_ref":    d2.ID,
		"type":          "references",
		"bidirectional": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add relationship: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, mux, http.MethodGet, "/api/documents/"+d2.ID+"/relationships", nil)
	edges := decode[map[string][]models.Relationship](t, rec)
	if len(edges["relationships"]) != 1 {
		t.Fatalf("relationships = %+v", edges)
	}

	rec = do(t, mux, http.MethodPost, "/api/context", map[string]any{"ref": d1.URI, "max_depth": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("context: status %d body %s", rec.Code, rec.Body.String())
	}
	bundle := decode[models.ContextBundle](t, rec)
	if bundle.Start.ID != d1.ID || len(bundle.Nodes) != 1 {
		t.Fatalf("bundle = %+v", bundle)
	}
}

func TestCollectionEndpoints(t *testing.T) {
	mux := newTestMux(t)
	d1 := createDoc(t, mux, "A", "a")

	rec := do(t, mux, http.MethodPost, "/api/collections", map[string]any{"name": "group"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create collection: status %d", rec.Code)
	}
	coll := decode[models.Collection](t, rec)

	rec = do(t, mux, http.MethodPost, "/api/collections/"+coll.ID+"/members", map[string]any{"document_id": d1.ID})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("add member: status %d body %s", rec.Code, rec.Body.String())
	}
	// Duplicate membership conflicts.
	rec = do(t, mux, http.MethodPost, "/api/collections/"+coll.ID+"/members", map[string]any{"document_id": d1.ID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate member: status %d", rec.Code)
	}

	rec = do(t, mux, http.MethodPost, "/api/collections", map[string]any{"name": "child", "parent_id": coll.ID})
	child := decode[models.Collection](t, rec)

	// Reversing the nesting is refused.
	rec = do(t, mux, http.MethodPut, "/api/collections/"+coll.ID+"/parent", map[string]any{"parent_id": child.ID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("cycle: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, mux, http.MethodGet, "/api/collections/"+coll.ID+"/hierarchy", nil)
	tree := decode[models.CollectionTree](t, rec)
	if len(tree.Children) != 1 || tree.Children[0].Collection.ID != child.ID {
		t.Fatalf("tree = %+v", tree)
	}

	rec = do(t, mux, http.MethodDelete, "/api/collections/"+coll.ID+"/members/"+d1.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove member: status %d", rec.Code)
	}
}
