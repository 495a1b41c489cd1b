package api

import (
	"context"
	"net/http"

	"github.com/edgecity/opsmail/internal/ingest"
	"github.com/edgecity/opsmail/internal/log"
)

// Reembedder regenerates stored embeddings.
type Reembedder interface {
	Reembed(ctx context.Context) (*ingest.ReembedResult, error)
}

// ReembedHandler triggers a bulk re-embedding run.
type ReembedHandler struct {
	reembedder Reembedder
	logger     log.Logger
}

// NewReembedHandler creates a reembed handler.
func NewReembedHandler(reembedder Reembedder, logger log.Logger) *ReembedHandler {
	return &ReembedHandler{reembedder: reembedder, logger: logger}
}

// RegisterRoutes registers the reembed route on the given mux.
func (h *ReembedHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/reembed", h.reembed)
}

func (h *ReembedHandler) reembed(w http.ResponseWriter, r *http.Request) {
	result, err := h.reembedder.Reembed(r.Context())
	if err != nil {
		h.logger.Error("re-embedding failed", "error", err)
		writeError(w, http.StatusInternalServerError, "reembed_failed", "could not re-embed chunks")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
