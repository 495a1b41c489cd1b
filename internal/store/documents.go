package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edgecity/opsmail/internal/log"
)

// DocumentStore persists ingested documents.
type DocumentStore struct {
	db     Querier
	logger log.Logger
}

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(db Querier, logger log.Logger) *DocumentStore {
	return &DocumentStore{db: db, logger: logger}
}

// Insert registers a new document and returns its ID.
func (s *DocumentStore) Insert(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO pdf_documents (name) VALUES ($1) RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting document: %w", err)
	}
	return id, nil
}

// Get returns a document by ID.
func (s *DocumentStore) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	var d Document
	err := s.db.QueryRow(ctx,
		`SELECT id, name, status, uploaded_at FROM pdf_documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Name, &d.Status, &d.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return &d, nil
}

// List returns all documents, newest first.
func (s *DocumentStore) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, status, uploaded_at FROM pdf_documents ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Document, error) {
		var d Document
		err := row.Scan(&d.ID, &d.Name, &d.Status, &d.UploadedAt)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("collecting document rows: %w", err)
	}
	return docs, nil
}

// Deprecate marks a document inactive. Its chunks remain stored but
// are excluded from retrieval.
func (s *DocumentStore) Deprecate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE pdf_documents SET status = 'deprecated' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deprecating document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document. Its chunks are removed with it via the
// foreign key cascade.
func (s *DocumentStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM pdf_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.logger.Info("document deleted", "id", id)
	return nil
}
