package handler

import (
	"log/slog"
	"net/http"

	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/internal/httputil"
)

// CollectionHandler handles collection HTTP requests
type CollectionHandler struct {
	collService services.CollectionService
	logger      *slog.Logger
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(collService services.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{collService: collService, logger: logger}
}

type createCollectionRequest struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
	ParentID *string        `json:"parent_id,omitempty"`
}

// CreateCollection creates a collection
// POST /api/collections
func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	coll, err := h.collService.Create(r.Context(), req.Name, req.Metadata, req.ParentID)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, coll)
}

// GetCollection retrieves a collection
// GET /api/collections/{id}
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	coll, err := h.collService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, coll)
}

// ListCollections enumerates collections
// GET /api/collections
func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	colls, err := h.collService.List(r.Context())
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]any{"collections": colls})
}

// DeleteCollection removes a collection, leaving member documents alone
// DELETE /api/collections/{id}
func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := h.collService.Delete(r.Context(), r.PathValue("id")); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberRequest struct {
	DocumentID string `json:"document_id"`
	Position   *int   `json:"position,omitempty"`
}

// AddMember inserts a document into the member list
// POST /api/collections/{id}/members
func (h *CollectionHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.collService.AddMember(r.Context(), r.PathValue("id"), req.DocumentID, req.Position); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember drops a document from the member list, idempotently
// DELETE /api/collections/{id}/members/{docID}
func (h *CollectionHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.collService.RemoveMember(r.Context(), r.PathValue("id"), r.PathValue("docID")); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setParentRequest struct {
	ParentID string `json:"parent_id"`
}

// SetParent nests the collection under another
// PUT /api/collections/{id}/parent
func (h *CollectionHandler) SetParent(w http.ResponseWriter, r *http.Request) {
	var req setParentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.collService.SetParent(r.Context(), r.PathValue("id"), req.ParentID); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHierarchy returns the nested tree rooted at the collection
// GET /api/collections/{id}/hierarchy
func (h *CollectionHandler) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	tree, err := h.collService.Hierarchy(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, tree)
}

// LinkByReferences resolves co-member references into graph edges
// POST /api/collections/{id}/link
func (h *CollectionHandler) LinkByReferences(w http.ResponseWriter, r *http.Request) {
	linked, err := h.collService.LinkByReferences(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]int{"linked": linked})
}
