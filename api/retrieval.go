package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/pipeline"
)

// Retriever runs retrieval without the downstream pipeline stages.
type Retriever interface {
	Retrieve(ctx context.Context, question string) (*pipeline.Evidence, error)
}

// RetrievalHandler exposes a retrieval dry-run for inspecting what
// evidence a question would pull, without spending generation calls.
type RetrievalHandler struct {
	retriever Retriever
	logger    log.Logger
}

// NewRetrievalHandler creates a retrieval handler.
func NewRetrievalHandler(retriever Retriever, logger log.Logger) *RetrievalHandler {
	return &RetrievalHandler{retriever: retriever, logger: logger}
}

// RegisterRoutes registers the retrieval route on the given mux.
func (h *RetrievalHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/retrieval", h.retrieve)
}

type retrievalRequest struct {
	Question string `json:"question"`
}

func (h *RetrievalHandler) retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrievalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	evidence, err := h.retriever.Retrieve(r.Context(), req.Question)
	if err != nil {
		h.logger.Error("retrieval failed", "error", err)
		writeError(w, http.StatusInternalServerError, "retrieval_failed", "could not retrieve evidence")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"keywords": evidence.Keywords,
		"chunks":   evidence.Chunks,
		"facts":    evidence.Facts,
	})
}
