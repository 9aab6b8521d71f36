package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/internal/httputil"
	"github.com/greyhaven-ai/datapack/internal/identity"
	"github.com/greyhaven-ai/datapack/internal/metrics"
)

const metadataSuffix = "/metadata"

// MDPHandler serves documents under URI-shaped resource paths:
// /mdp/{org}/{project}/{path...} addresses content, with a trailing
// /metadata segment addressing the metadata sub-resource.
type MDPHandler struct {
	docService services.DocumentService
	logger     *slog.Logger
}

// NewMDPHandler creates a new resource-path handler
func NewMDPHandler(docService services.DocumentService, logger *slog.Logger) *MDPHandler {
	return &MDPHandler{docService: docService, logger: logger}
}

// resource splits the request path into the document uri and whether
// the metadata sub-resource was addressed.
func (h *MDPHandler) resource(r *http.Request) (uri string, metaOnly bool, err error) {
	org := r.PathValue("org")
	project := r.PathValue("project")
	docPath := r.PathValue("path")

	if strings.HasSuffix(docPath, metadataSuffix) {
		metaOnly = true
		docPath = strings.TrimSuffix(docPath, metadataSuffix)
	}
	uri, err = identity.BuildURI(org+"/"+project, docPath)
	return uri, metaOnly, err
}

// Get reads document content or metadata
// GET /mdp/{org}/{project}/{path...}
func (h *MDPHandler) Get(w http.ResponseWriter, r *http.Request) {
	uri, metaOnly, err := h.resource(r)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	doc, err := h.docService.Get(r.Context(), uri)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	if metaOnly {
		httputil.RespondJSON(w, http.StatusOK, doc.Metadata.ToMap())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("X-Document-ID", doc.ID)
	w.Header().Set("X-Document-URI", doc.URI)
	io.WriteString(w, doc.Content)
}

// Put creates or updates a document. Content requests carry the raw
// body; metadata requests carry a JSON metadata patch. A create
// responds 201 with the assigned id and uri.
// PUT /mdp/{org}/{project}/{path...}
func (h *MDPHandler) Put(w http.ResponseWriter, r *http.Request) {
	uri, metaOnly, err := h.resource(r)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	if metaOnly {
		h.putMetadata(w, r, uri)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	content := string(body)

	existing, err := h.docService.Get(r.Context(), uri)
	switch {
	case err == nil:
		doc, err := h.docService.Update(r.Context(), existing.ID, &services.UpdateDocumentRequest{Content: &content})
		if err != nil {
			httputil.RespondDomainError(w, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"id": doc.ID, "uri": doc.URI})
	case errors.Is(err, domain.ErrNotFound):
		doc, err := h.create(r, uri, content)
		if err != nil {
			httputil.RespondDomainError(w, err)
			return
		}
		metrics.DocumentsCreated.Inc()
		httputil.RespondJSON(w, http.StatusCreated, map[string]string{"id": doc.ID, "uri": doc.URI})
	default:
		httputil.RespondDomainError(w, err)
	}
}

// Delete removes the addressed document
// DELETE /mdp/{org}/{project}/{path...}
func (h *MDPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uri, metaOnly, err := h.resource(r)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	if metaOnly {
		httputil.RespondError(w, http.StatusBadRequest, "metadata sub-resource cannot be deleted")
		return
	}

	doc, err := h.docService.Get(r.Context(), uri)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	if err := h.docService.Delete(r.Context(), doc.ID); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MDPHandler) putMetadata(w http.ResponseWriter, r *http.Request, uri string) {
	var patch map[string]any
	if err := httputil.ParseJSON(w, r, &patch); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docService.Get(r.Context(), uri)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	updated, err := h.docService.Update(r.Context(), doc.ID, &services.UpdateDocumentRequest{Metadata: patch})
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, updated.Metadata.ToMap())
}

func (h *MDPHandler) create(r *http.Request, uri, content string) (doc *models.Document, err error) {
	req := &services.CreateDocumentRequest{
		URI:      uri,
		Metadata: map[string]any{},
		Content:  content,
	}
	doc, err = h.docService.Create(r.Context(), req)
	if err == nil {
		return doc, nil
	}

	// Untitled content: fall back to the last path segment, the way
	// loaded files are named.
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		_, docPath, perr := identity.ParseURI(uri)
		if perr == nil {
			req.Metadata["title"] = path.Base(docPath)
			return h.docService.Create(r.Context(), req)
		}
	}
	return nil, err
}
