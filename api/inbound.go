package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/store"
)

// quotedReplyPattern matches the first line of a quoted reply chain.
var quotedReplyPattern = regexp.MustCompile(`\nOn .+wrote:`)

// InboundHandler receives forwarded emails from the mail relay.
type InboundHandler struct {
	pipeline PipelineRunner
	queries  QueryRecorder
	secret   string
	logger   log.Logger
}

// NewInboundHandler creates an inbound webhook handler.
func NewInboundHandler(p PipelineRunner, queries QueryRecorder, secret string, logger log.Logger) *InboundHandler {
	return &InboundHandler{pipeline: p, queries: queries, secret: secret, logger: logger}
}

// RegisterRoutes registers the inbound route on the given mux.
func (h *InboundHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/inbound", h.inbound)
}

type inboundRequest struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// StripQuotedReply truncates an email body at the first quoted-reply
// marker so only the new content reaches the pipeline.
func StripQuotedReply(body string) string {
	if loc := quotedReplyPattern.FindStringIndex(body); loc != nil {
		body = body[:loc[0]]
	}
	return strings.TrimSpace(body)
}

// inbound answers a forwarded email and stores it for review. A
// persistence failure returns a non-success status so the upstream
// relay treats delivery as unconfirmed and may retry; no retries
// happen here.
func (h *InboundHandler) inbound(w http.ResponseWriter, r *http.Request) {
	provided := r.Header.Get("X-Webhook-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid webhook secret")
		return
	}

	var req inboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	body := StripQuotedReply(req.Body)
	if body == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email body is empty")
		return
	}

	result, err := h.pipeline.Run(r.Context(), body)
	if err != nil {
		h.logger.Error("pipeline run failed for inbound email", "error", err)
		writeError(w, http.StatusInternalServerError, "generation_failed", "could not generate a reply")
		return
	}

	record := store.EmailQuery{
		RawEmail:        body,
		SuggestedReply:  &result.Reply.SuggestedReply,
		ConfidenceScore: &result.Reply.Confidence,
		ConflictFlag:    result.ConflictFlag,
		SourcesUsed:     result.SourcesUsed,
		Source:          store.SourceForwarded,
	}
	if req.Subject != "" {
		record.Subject = &req.Subject
	}
	if req.From != "" {
		record.FromAddress = &req.From
	}

	id, err := h.queries.Insert(r.Context(), record)
	if err != nil {
		h.logger.Error("failed to persist inbound query", "error", err)
		writeError(w, http.StatusInternalServerError, "persistence_failed", "could not store the query")
		return
	}

	h.logger.Info("inbound email queued for review", "id", id, "from", req.From)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": store.QueryPending})
}
