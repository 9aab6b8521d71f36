// Package handler adapts the document context graph services to HTTP.
// Each handler is thin: decode the request, call the matching service
// operation, encode the result or the mapped domain error.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/internal/httputil"
	"github.com/greyhaven-ai/datapack/internal/metrics"
)

// DocumentHandler handles id-addressed document HTTP requests
type DocumentHandler struct {
	docService   services.DocumentService
	graphService services.GraphService
	logger       *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService services.DocumentService, graphService services.GraphService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService:   docService,
		graphService: graphService,
		logger:       logger,
	}
}

// CreateDocument creates a new document
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req services.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docService.Create(r.Context(), &req)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	metrics.DocumentsCreated.Inc()
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves a document by any reference form
// GET /api/documents/{ref}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	doc, err := h.docService.Get(r.Context(), ref)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// UpdateDocument applies a partial update
// PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req services.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docService.Update(r.Context(), id, &req)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument deletes a document and its graph edges and memberships
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.docService.Delete(r.Context(), id); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments enumerates document summaries
// GET /api/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.docService.List(r.Context(), filterFromQuery(r))
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]any{"documents": summaries})
}

// SearchDocuments runs a scored search
// GET /api/documents/search?q=...&tag=...&status=...&author=...
func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	hits, err := h.docService.Search(r.Context(), r.URL.Query().Get("q"), filterFromQuery(r))
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

// GetRelationships returns a document's edges, including computed
// inverses of others' bidirectional edges
// GET /api/documents/{id}/relationships?type=...
func (h *DocumentHandler) GetRelationships(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	edges, err := h.graphService.Relationships(r.Context(), id, r.URL.Query().Get("type"))
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	if edges == nil {
		edges = []models.Relationship{}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]any{"relationships": edges})
}

// AddRelationship stores a new edge on the document
// POST /api/documents/{id}/relationships
func (h *DocumentHandler) AddRelationship(w http.ResponseWriter, r *http.Request) {
	var req services.AddRelationshipRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.SourceID = r.PathValue("id")

	edgeID, err := h.graphService.AddRelationship(r.Context(), &req)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, map[string]string{"edge_id": edgeID})
}

// HealthCheck reports liveness
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func filterFromQuery(r *http.Request) models.ListFilter {
	q := r.URL.Query()
	return models.ListFilter{
		Tag:    q.Get("tag"),
		Status: models.Status(q.Get("status")),
		Author: q.Get("author"),
	}
}
