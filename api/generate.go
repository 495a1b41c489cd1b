package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/pipeline"
	"github.com/edgecity/opsmail/internal/store"
)

// MaxEmailLength bounds pasted email bodies.
const MaxEmailLength = 50000

// PipelineRunner runs the answer pipeline for one email.
type PipelineRunner interface {
	Run(ctx context.Context, rawEmail string) (*pipeline.Result, error)
}

// QueryRecorder is the query persistence the handlers need.
type QueryRecorder interface {
	Insert(ctx context.Context, q store.EmailQuery) (uuid.UUID, error)
	Review(ctx context.Context, id uuid.UUID, status string, approvedVersion, approvedBy *string) error
	Get(ctx context.Context, id uuid.UUID) (*store.EmailQuery, error)
	List(ctx context.Context, status string) ([]store.EmailQuery, error)
}

// GenerateHandler answers emails pasted into the review console.
type GenerateHandler struct {
	pipeline PipelineRunner
	queries  QueryRecorder
	logger   log.Logger
}

// NewGenerateHandler creates a generate handler.
func NewGenerateHandler(p PipelineRunner, queries QueryRecorder, logger log.Logger) *GenerateHandler {
	return &GenerateHandler{pipeline: p, queries: queries, logger: logger}
}

// RegisterRoutes registers the generate route on the given mux.
func (h *GenerateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate", h.generate)
}

type generateRequest struct {
	RawEmail    string `json:"raw_email"`
	Subject     string `json:"subject,omitempty"`
	FromAddress string `json:"from_address,omitempty"`
}

type generateResponse struct {
	ID             uuid.UUID          `json:"id"`
	SubjectLine    string             `json:"subject_line"`
	SuggestedReply string             `json:"suggested_reply"`
	Confidence     string             `json:"confidence"`
	ConflictFlag   bool               `json:"conflict_flag"`
	Conflicts      []string           `json:"conflicts"`
	SourcesUsed    []store.SourceUsed `json:"sources_used"`
}

func (h *GenerateHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.RawEmail == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "raw_email is required")
		return
	}
	if len(req.RawEmail) > MaxEmailLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "raw_email too long")
		return
	}

	result, err := h.pipeline.Run(r.Context(), req.RawEmail)
	if err != nil {
		h.logger.Error("pipeline run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "generation_failed", "could not generate a reply")
		return
	}

	record := store.EmailQuery{
		RawEmail:        req.RawEmail,
		SuggestedReply:  &result.Reply.SuggestedReply,
		ConfidenceScore: &result.Reply.Confidence,
		ConflictFlag:    result.ConflictFlag,
		SourcesUsed:     result.SourcesUsed,
		Source:          store.SourceManual,
	}
	if req.Subject != "" {
		record.Subject = &req.Subject
	}
	if req.FromAddress != "" {
		record.FromAddress = &req.FromAddress
	}

	id, err := h.queries.Insert(r.Context(), record)
	if err != nil {
		h.logger.Error("failed to persist query", "error", err)
		writeError(w, http.StatusInternalServerError, "persistence_failed", "could not store the query")
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		ID:             id,
		SubjectLine:    result.Reply.SubjectLine,
		SuggestedReply: result.Reply.SuggestedReply,
		Confidence:     result.Reply.Confidence,
		ConflictFlag:   result.ConflictFlag,
		Conflicts:      result.Reply.Conflicts,
		SourcesUsed:    result.SourcesUsed,
	})
}
