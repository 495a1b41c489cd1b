package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/edgecity/opsmail/internal/log"
)

// ChunkStore persists and searches content chunks.
type ChunkStore struct {
	db     Querier
	logger log.Logger
}

// NewChunkStore creates a ChunkStore.
func NewChunkStore(db Querier, logger log.Logger) *ChunkStore {
	return &ChunkStore{db: db, logger: logger}
}

// Insert stores a chunk with its embedding and returns its ID.
func (s *ChunkStore) Insert(ctx context.Context, chunk ContentChunk, embedding []float32) (uuid.UUID, error) {
	const query = `
		INSERT INTO content_chunks (source_id, source_type, page_number, section_heading, text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id uuid.UUID
	err := s.db.QueryRow(ctx, query,
		chunk.SourceID,
		chunk.SourceType,
		chunk.PageNumber,
		chunk.SectionHeading,
		chunk.Text,
		pgvector.NewVector(embedding),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting chunk: %w", err)
	}
	return id, nil
}

// SearchSimilar returns the topK chunks most similar to the query
// embedding, ordered by descending cosine similarity. Only chunks from
// active documents are considered.
func (s *ChunkStore) SearchSimilar(ctx context.Context, embedding []float32, topK int, minSimilarity float64) ([]ScoredChunk, error) {
	const query = `
		SELECT c.id, c.source_id, c.source_type, c.page_number, c.section_heading, c.text, c.created_at,
		       1 - (c.embedding <=> $1) AS similarity
		FROM content_chunks c
		JOIN pdf_documents d ON d.id = c.source_id
		WHERE d.status = 'active'
		  AND 1 - (c.embedding <=> $1) >= $2
		ORDER BY c.embedding <=> $1
		LIMIT $3`

	rows, err := s.db.Query(ctx, query, pgvector.NewVector(embedding), minSimilarity, topK)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var results []ScoredChunk
	for rows.Next() {
		var sc ScoredChunk
		if err := rows.Scan(
			&sc.ID, &sc.SourceID, &sc.SourceType, &sc.PageNumber,
			&sc.SectionHeading, &sc.Text, &sc.CreatedAt, &sc.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunk rows: %w", err)
	}

	s.logger.Debug("chunk search complete", "results", len(results), "top_k", topK)
	return results, nil
}

// ListActive returns all chunks belonging to active documents, used
// when re-embedding the corpus after an embedding model change.
func (s *ChunkStore) ListActive(ctx context.Context) ([]ContentChunk, error) {
	const query = `
		SELECT c.id, c.source_id, c.source_type, c.page_number, c.section_heading, c.text, c.created_at
		FROM content_chunks c
		JOIN pdf_documents d ON d.id = c.source_id
		WHERE d.status = 'active'
		ORDER BY c.created_at`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	chunks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ContentChunk, error) {
		var c ContentChunk
		err := row.Scan(&c.ID, &c.SourceID, &c.SourceType, &c.PageNumber, &c.SectionHeading, &c.Text, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("collecting chunk rows: %w", err)
	}
	return chunks, nil
}

// UpdateEmbedding replaces the stored embedding of a chunk.
func (s *ChunkStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE content_chunks SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
