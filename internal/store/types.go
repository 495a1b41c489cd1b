// Package store persists documents, chunks, facts and email queries in
// PostgreSQL. Embeddings are stored with pgvector and searched by
// cosine similarity.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Document statuses.
const (
	DocumentActive     = "active"
	DocumentDeprecated = "deprecated"
)

// Fact statuses mirror document statuses: records are deprecated, not
// deleted, so past answers stay traceable to their evidence.
const (
	FactActive     = "active"
	FactDeprecated = "deprecated"
)

// Query review statuses.
const (
	QueryPending   = "pending"
	QueryApproved  = "approved"
	QueryEscalated = "escalated"
)

// Query sources.
const (
	SourceManual    = "manual"
	SourceForwarded = "forwarded"
)

// ErrAlreadyReviewed is returned when a review decision is applied to a
// query that has already left the pending state.
var ErrAlreadyReviewed = errors.New("query already reviewed")

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Document is an ingested reference document.
type Document struct {
	ID         uuid.UUID
	Name       string
	Status     string
	UploadedAt time.Time
}

// ContentChunk is a retrievable span of document text.
type ContentChunk struct {
	ID             uuid.UUID
	SourceID       uuid.UUID
	SourceType     string
	PageNumber     *int
	SectionHeading *string
	Text           string
	CreatedAt      time.Time
}

// ScoredChunk is a chunk with its cosine similarity to a query vector.
type ScoredChunk struct {
	ContentChunk
	Similarity float64
}

// StructuredFact is a curated, human-verified fact.
type StructuredFact struct {
	ID             uuid.UUID
	Category       string
	Key            string
	Value          string
	SourceDocument *string
	PageNumber     *int
	Confidence     string
	LastVerified   time.Time
	Status         string
}

// SourceUsed records one piece of evidence behind a suggested reply.
type SourceUsed struct {
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"`
	PageNumber *int   `json:"page_number"`
	Snippet    string `json:"snippet"`
}

// EmailQuery is an incoming question and its generated draft reply.
type EmailQuery struct {
	ID              uuid.UUID
	RawEmail        string
	SuggestedReply  *string
	ConfidenceScore *string
	ConflictFlag    bool
	SourcesUsed     []SourceUsed
	ApprovedVersion *string
	ApprovedBy      *string
	Status          string
	Source          string
	Subject         *string
	FromAddress     *string
	CreatedAt       time.Time
}

// Querier is the subset of pgxpool.Pool the stores need. Defined here
// so tests can substitute their own implementation.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
