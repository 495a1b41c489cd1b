// Package ingest turns uploaded PDFs into retrievable chunks and keeps
// stored embeddings current.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/edgecity/opsmail/internal/chunker"
	"github.com/edgecity/opsmail/internal/llm"
	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/pdf"
	"github.com/edgecity/opsmail/internal/store"
)

// ChunkWriter is the chunk persistence the ingester needs.
type ChunkWriter interface {
	Insert(ctx context.Context, chunk store.ContentChunk, embedding []float32) (uuid.UUID, error)
	ListActive(ctx context.Context) ([]store.ContentChunk, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// DocumentWriter registers ingested documents.
type DocumentWriter interface {
	Insert(ctx context.Context, name string) (uuid.UUID, error)
}

// Result tallies one ingestion run.
type Result struct {
	DocumentID uuid.UUID `json:"document_id"`
	Pages      int       `json:"pages"`
	Chunks     int       `json:"chunks"`
	Stored     int       `json:"stored"`
	Failed     int       `json:"failed"`
}

// ReembedResult tallies one bulk re-embedding run.
type ReembedResult struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Ingester extracts, chunks, embeds and stores reference documents.
type Ingester struct {
	embedder  llm.Embedder
	chunks    ChunkWriter
	documents DocumentWriter
	logger    log.Logger
}

// New creates an Ingester.
func New(embedder llm.Embedder, chunks ChunkWriter, documents DocumentWriter, logger log.Logger) *Ingester {
	return &Ingester{
		embedder:  embedder,
		chunks:    chunks,
		documents: documents,
		logger:    logger,
	}
}

// IngestPDF extracts a PDF, chunks its pages and stores each chunk
// with its embedding. Individual chunk failures are counted and logged
// but do not abort the run; a document with zero extractable text is
// an error.
func (i *Ingester) IngestPDF(ctx context.Context, name string, data []byte) (*Result, error) {
	pages, err := pdf.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", name, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", name)
	}

	chunks := chunker.ChunkPages(pages)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced from %s", name)
	}

	docID, err := i.documents.Insert(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("registering document: %w", err)
	}

	result := &Result{DocumentID: docID, Pages: len(pages), Chunks: len(chunks)}
	for _, chunk := range chunks {
		embedding, err := i.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			i.logger.Warn("chunk embedding failed", "document", name, "page", chunk.PageNumber, "error", err)
			result.Failed++
			continue
		}

		record := store.ContentChunk{
			SourceID:   docID,
			SourceType: "pdf",
			PageNumber: &chunk.PageNumber,
			Text:       chunk.Text,
		}
		if chunk.SectionHeading != "" {
			heading := chunk.SectionHeading
			record.SectionHeading = &heading
		}

		if _, err := i.chunks.Insert(ctx, record, embedding); err != nil {
			i.logger.Warn("chunk insert failed", "document", name, "page", chunk.PageNumber, "error", err)
			result.Failed++
			continue
		}
		result.Stored++
	}

	i.logger.Info("document ingested",
		"document", name,
		"id", docID,
		"pages", result.Pages,
		"chunks", result.Chunks,
		"stored", result.Stored,
		"failed", result.Failed,
	)
	return result, nil
}

// Reembed regenerates the embedding of every chunk belonging to an
// active document, strictly one at a time. Individual failures are
// tallied, never fatal; only listing the chunks can fail the run.
func (i *Ingester) Reembed(ctx context.Context) (*ReembedResult, error) {
	chunks, err := i.chunks.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}

	result := &ReembedResult{Total: len(chunks)}
	for _, chunk := range chunks {
		embedding, err := i.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			i.logger.Warn("re-embedding failed", "chunk", chunk.ID, "error", err)
			result.Failed++
			continue
		}
		if err := i.chunks.UpdateEmbedding(ctx, chunk.ID, embedding); err != nil {
			i.logger.Warn("embedding update failed", "chunk", chunk.ID, "error", err)
			result.Failed++
			continue
		}
		result.Updated++
	}

	i.logger.Info("re-embedding complete",
		"total", result.Total,
		"updated", result.Updated,
		"failed", result.Failed,
	)
	return result, nil
}
