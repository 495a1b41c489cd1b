package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edgecity/opsmail/internal/log"
)

// FactStore persists curated facts.
type FactStore struct {
	db     Querier
	logger log.Logger
}

// NewFactStore creates a FactStore.
func NewFactStore(db Querier, logger log.Logger) *FactStore {
	return &FactStore{db: db, logger: logger}
}

// keywordPatterns converts keywords into ILIKE patterns.
func keywordPatterns(keywords []string) []string {
	patterns := make([]string, len(keywords))
	for i, kw := range keywords {
		patterns[i] = "%" + kw + "%"
	}
	return patterns
}

// FindByKeywords returns active facts whose category or key contains
// any of the keywords, case-insensitively. An empty keyword list
// returns no facts.
func (s *FactStore) FindByKeywords(ctx context.Context, keywords []string) ([]StructuredFact, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, category, key, value, source_document, page_number, confidence, last_verified, status
		FROM structured_facts
		WHERE status = 'active'
		  AND (category ILIKE ANY($1) OR key ILIKE ANY($1))
		ORDER BY category, key`

	rows, err := s.db.Query(ctx, query, keywordPatterns(keywords))
	if err != nil {
		return nil, fmt.Errorf("finding facts: %w", err)
	}
	defer rows.Close()

	facts, err := pgx.CollectRows(rows, scanFact)
	if err != nil {
		return nil, fmt.Errorf("collecting fact rows: %w", err)
	}

	s.logger.Debug("fact lookup complete", "keywords", len(keywords), "facts", len(facts))
	return facts, nil
}

// Insert stores a new fact and returns its ID.
func (s *FactStore) Insert(ctx context.Context, fact StructuredFact) (uuid.UUID, error) {
	const query = `
		INSERT INTO structured_facts (category, key, value, source_document, page_number, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id uuid.UUID
	err := s.db.QueryRow(ctx, query,
		fact.Category, fact.Key, fact.Value,
		fact.SourceDocument, fact.PageNumber, fact.Confidence,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting fact: %w", err)
	}
	return id, nil
}

// Update replaces a fact's value and confidence and stamps it as
// freshly verified.
func (s *FactStore) Update(ctx context.Context, id uuid.UUID, value, confidence string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE structured_facts SET value = $1, confidence = $2, last_verified = now() WHERE id = $3`,
		value, confidence, id,
	)
	if err != nil {
		return fmt.Errorf("updating fact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deprecate marks a fact inactive without deleting it.
func (s *FactStore) Deprecate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE structured_facts SET status = 'deprecated' WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deprecating fact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all facts, active and deprecated, newest verification
// first.
func (s *FactStore) List(ctx context.Context) ([]StructuredFact, error) {
	const query = `
		SELECT id, category, key, value, source_document, page_number, confidence, last_verified, status
		FROM structured_facts
		ORDER BY last_verified DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing facts: %w", err)
	}
	defer rows.Close()

	facts, err := pgx.CollectRows(rows, scanFact)
	if err != nil {
		return nil, fmt.Errorf("collecting fact rows: %w", err)
	}
	return facts, nil
}

func scanFact(row pgx.CollectableRow) (StructuredFact, error) {
	var f StructuredFact
	err := row.Scan(&f.ID, &f.Category, &f.Key, &f.Value, &f.SourceDocument,
		&f.PageNumber, &f.Confidence, &f.LastVerified, &f.Status)
	return f, err
}
