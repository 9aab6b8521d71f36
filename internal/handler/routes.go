package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes registers every handler on a new mux.
func Routes(
	docs *DocumentHandler,
	mdp *MDPHandler,
	collections *CollectionHandler,
	contexts *ContextHandler,
	registry *prometheus.Registry,
) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", docs.HealthCheck)
	if registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// URI-shaped resource paths
	mux.HandleFunc("GET /mdp/{org}/{project}/{path...}", mdp.Get)
	mux.HandleFunc("PUT /mdp/{org}/{project}/{path...}", mdp.Put)
	mux.HandleFunc("DELETE /mdp/{org}/{project}/{path...}", mdp.Delete)

	// Document enumeration under the protocol's collections listing path
	mux.HandleFunc("GET /collections/list", docs.ListDocuments)

	// Id-addressed document CRUD
	mux.HandleFunc("POST /api/documents", docs.CreateDocument)
	mux.HandleFunc("GET /api/documents", docs.ListDocuments)
	mux.HandleFunc("GET /api/documents/search", docs.SearchDocuments) // before {ref}
	mux.HandleFunc("GET /api/documents/{ref}", docs.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docs.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docs.DeleteDocument)

	// Relationship graph
	mux.HandleFunc("GET /api/documents/{id}/relationships", docs.GetRelationships)
	mux.HandleFunc("POST /api/documents/{id}/relationships", docs.AddRelationship)

	// Context fetch
	mux.HandleFunc("POST /api/context", contexts.FetchContext)

	// Collections
	mux.HandleFunc("POST /api/collections", collections.CreateCollection)
	mux.HandleFunc("GET /api/collections", collections.ListCollections)
	mux.HandleFunc("GET /api/collections/{id}", collections.GetCollection)
	mux.HandleFunc("DELETE /api/collections/{id}", collections.DeleteCollection)
	mux.HandleFunc("POST /api/collections/{id}/members", collections.AddMember)
	mux.HandleFunc("DELETE /api/collections/{id}/members/{docID}", collections.RemoveMember)
	mux.HandleFunc("PUT /api/collections/{id}/parent", collections.SetParent)
	mux.HandleFunc("GET /api/collections/{id}/hierarchy", collections.GetHierarchy)
	mux.HandleFunc("POST /api/collections/{id}/link", collections.LinkByReferences)

	return mux
}
