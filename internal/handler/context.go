package handler

import (
	"log/slog"
	"net/http"

	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/internal/httputil"
	"github.com/greyhaven-ai/datapack/internal/metrics"
)

const defaultContextDepth = 2
const maxContextDepth = 10

// ContextHandler serves bounded-neighborhood context fetches.
type ContextHandler struct {
	docService services.DocumentService
	logger     *slog.Logger
}

// NewContextHandler creates a new context handler
func NewContextHandler(docService services.DocumentService, logger *slog.Logger) *ContextHandler {
	return &ContextHandler{docService: docService, logger: logger}
}

type fetchContextRequest struct {
	Ref      string `json:"ref"`
	MaxDepth *int   `json:"max_depth,omitempty"`
}

// FetchContext resolves a reference and returns its neighborhood
// POST /api/context
func (h *ContextHandler) FetchContext(w http.ResponseWriter, r *http.Request) {
	var req fetchContextRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Ref == "" {
		httputil.RespondError(w, http.StatusBadRequest, "ref is required")
		return
	}

	depth := defaultContextDepth
	if req.MaxDepth != nil {
		depth = *req.MaxDepth
	}
	if depth < 0 || depth > maxContextDepth {
		httputil.RespondError(w, http.StatusBadRequest, "max_depth out of range")
		return
	}

	bundle, err := h.docService.FetchContext(r.Context(), req.Ref, depth)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	metrics.TraversalNodes.Observe(float64(len(bundle.Nodes)))
	httputil.RespondJSON(w, http.StatusOK, bundle)
}
