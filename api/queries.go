package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/store"
)

// QueryHandler exposes the review workflow over queries.
type QueryHandler struct {
	queries QueryRecorder
	logger  log.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(queries QueryRecorder, logger log.Logger) *QueryHandler {
	return &QueryHandler{queries: queries, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/queries", h.list)
	mux.HandleFunc("GET /api/queries/{id}", h.get)
	mux.HandleFunc("PATCH /api/queries/{id}", h.review)
}

func (h *QueryHandler) list(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", store.QueryPending, store.QueryApproved, store.QueryEscalated:
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown status filter")
		return
	}

	queries, err := h.queries.List(r.Context(), status)
	if err != nil {
		h.logger.Error("failed to list queries", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "could not list queries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": queries, "total": len(queries)})
}

func (h *QueryHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid query id")
		return
	}

	query, err := h.queries.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "query not found")
			return
		}
		h.logger.Error("failed to get query", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get_failed", "could not fetch query")
		return
	}
	writeJSON(w, http.StatusOK, query)
}

type reviewRequest struct {
	Status          string  `json:"status"`
	ApprovedVersion *string `json:"approved_version,omitempty"`
	ApprovedBy      *string `json:"approved_by,omitempty"`
}

// review applies a one-way approval or escalation to a pending query.
func (h *QueryHandler) review(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid query id")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.Status != store.QueryApproved && req.Status != store.QueryEscalated {
		writeError(w, http.StatusBadRequest, "invalid_request", "status must be approved or escalated")
		return
	}

	err = h.queries.Review(r.Context(), id, req.Status, req.ApprovedVersion, req.ApprovedBy)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "query not found")
	case errors.Is(err, store.ErrAlreadyReviewed):
		writeError(w, http.StatusConflict, "already_reviewed", "query has already been reviewed")
	case err != nil:
		h.logger.Error("failed to review query", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "review_failed", "could not update query")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": req.Status})
	}
}
