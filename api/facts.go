package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/pipeline"
	"github.com/edgecity/opsmail/internal/store"
)

// FactWriter is the fact persistence the handler needs.
type FactWriter interface {
	List(ctx context.Context) ([]store.StructuredFact, error)
	Insert(ctx context.Context, fact store.StructuredFact) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, value, confidence string) error
	Deprecate(ctx context.Context, id uuid.UUID) error
}

// FactHandler manages the curated fact table.
type FactHandler struct {
	facts  FactWriter
	logger log.Logger
}

// NewFactHandler creates a fact handler.
func NewFactHandler(facts FactWriter, logger log.Logger) *FactHandler {
	return &FactHandler{facts: facts, logger: logger}
}

// RegisterRoutes registers fact routes on the given mux.
func (h *FactHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/facts", h.list)
	mux.HandleFunc("POST /api/facts", h.create)
	mux.HandleFunc("PATCH /api/facts/{id}", h.update)
	mux.HandleFunc("DELETE /api/facts/{id}", h.deprecate)
}

func validConfidence(c string) bool {
	return c == pipeline.ConfidenceHigh || c == pipeline.ConfidenceMedium || c == pipeline.ConfidenceLow
}

func (h *FactHandler) list(w http.ResponseWriter, r *http.Request) {
	facts, err := h.facts.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list facts", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "could not list facts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facts": facts, "total": len(facts)})
}

type createFactRequest struct {
	Category       string  `json:"category"`
	Key            string  `json:"key"`
	Value          string  `json:"value"`
	SourceDocument *string `json:"source_document,omitempty"`
	PageNumber     *int    `json:"page_number,omitempty"`
	Confidence     string  `json:"confidence"`
}

func (h *FactHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.Category == "" || req.Key == "" || req.Value == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "category, key and value are required")
		return
	}
	if !validConfidence(req.Confidence) {
		writeError(w, http.StatusBadRequest, "invalid_request", "confidence must be high, medium or low")
		return
	}

	id, err := h.facts.Insert(r.Context(), store.StructuredFact{
		Category:       req.Category,
		Key:            req.Key,
		Value:          req.Value,
		SourceDocument: req.SourceDocument,
		PageNumber:     req.PageNumber,
		Confidence:     req.Confidence,
	})
	if err != nil {
		h.logger.Error("failed to create fact", "error", err)
		writeError(w, http.StatusInternalServerError, "create_failed", "could not create fact")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

type updateFactRequest struct {
	Value      string `json:"value"`
	Confidence string `json:"confidence"`
}

func (h *FactHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid fact id")
		return
	}

	var req updateFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.Value == "" || !validConfidence(req.Confidence) {
		writeError(w, http.StatusBadRequest, "invalid_request", "value and a valid confidence are required")
		return
	}

	if err := h.facts.Update(r.Context(), id, req.Value, req.Confidence); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "fact not found")
			return
		}
		h.logger.Error("failed to update fact", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "update_failed", "could not update fact")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (h *FactHandler) deprecate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid fact id")
		return
	}

	if err := h.facts.Deprecate(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "fact not found")
			return
		}
		h.logger.Error("failed to deprecate fact", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "update_failed", "could not deprecate fact")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": store.FactDeprecated})
}
