package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/edgecity/opsmail/internal/ingest"
	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/store"
)

// MaxUploadBytes bounds PDF uploads.
const MaxUploadBytes = 25 << 20 // 25 MiB

// Ingester ingests uploaded documents.
type Ingester interface {
	IngestPDF(ctx context.Context, name string, data []byte) (*ingest.Result, error)
}

// DocumentReader is the document persistence the handler needs.
type DocumentReader interface {
	List(ctx context.Context) ([]store.Document, error)
	Deprecate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentHandler manages reference documents.
type DocumentHandler struct {
	ingester  Ingester
	documents DocumentReader
	logger    log.Logger
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(ingester Ingester, documents DocumentReader, logger log.Logger) *DocumentHandler {
	return &DocumentHandler{ingester: ingester, documents: documents, logger: logger}
}

// RegisterRoutes registers document routes on the given mux.
func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/documents", h.upload)
	mux.HandleFunc("GET /api/documents", h.list)
	mux.HandleFunc("DELETE /api/documents/{id}", h.delete)
	mux.HandleFunc("POST /api/documents/{id}/deprecate", h.deprecate)
}

// upload accepts a multipart "file" field containing a PDF and ingests
// it.
func (h *DocumentHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "could not read uploaded file")
		return
	}

	result, err := h.ingester.IngestPDF(r.Context(), header.Filename, data)
	if err != nil {
		h.logger.Error("document ingestion failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "ingestion_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *DocumentHandler) list(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "could not list documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "total": len(docs)})
}

func (h *DocumentHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid document id")
		return
	}

	if err := h.documents.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "document not found")
			return
		}
		h.logger.Error("failed to delete document", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "could not delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) deprecate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid document id")
		return
	}

	if err := h.documents.Deprecate(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "document not found")
			return
		}
		h.logger.Error("failed to deprecate document", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "update_failed", "could not deprecate document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": store.DocumentDeprecated})
}
