package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edgecity/opsmail/internal/log"
)

// QueryStore persists email queries and their review state.
type QueryStore struct {
	db     Querier
	logger log.Logger
}

// NewQueryStore creates a QueryStore.
func NewQueryStore(db Querier, logger log.Logger) *QueryStore {
	return &QueryStore{db: db, logger: logger}
}

// Insert stores a new email query in the pending state and returns its
// ID.
func (s *QueryStore) Insert(ctx context.Context, q EmailQuery) (uuid.UUID, error) {
	sourcesJSON, err := json.Marshal(q.SourcesUsed)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling sources: %w", err)
	}

	const query = `
		INSERT INTO email_queries (raw_email, suggested_reply, confidence_score, conflict_flag, sources_used, source, subject, from_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id uuid.UUID
	err = s.db.QueryRow(ctx, query,
		q.RawEmail, q.SuggestedReply, q.ConfidenceScore, q.ConflictFlag,
		sourcesJSON, q.Source, q.Subject, q.FromAddress,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting query: %w", err)
	}
	return id, nil
}

// Review applies a terminal review decision to a pending query. The
// transition is one-way: a query that is already approved or escalated
// returns ErrAlreadyReviewed.
func (s *QueryStore) Review(ctx context.Context, id uuid.UUID, status string, approvedVersion, approvedBy *string) error {
	if status != QueryApproved && status != QueryEscalated {
		return fmt.Errorf("invalid review status %q", status)
	}

	const query = `
		UPDATE email_queries
		SET status = $1, approved_version = $2, approved_by = $3
		WHERE id = $4 AND status = 'pending'`

	tag, err := s.db.Exec(ctx, query, status, approvedVersion, approvedBy, id)
	if err != nil {
		return fmt.Errorf("reviewing query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from one already reviewed.
		var existing string
		err := s.db.QueryRow(ctx, `SELECT status FROM email_queries WHERE id = $1`, id).Scan(&existing)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("checking query status: %w", err)
		}
		return fmt.Errorf("%w: status is %s", ErrAlreadyReviewed, existing)
	}

	s.logger.Info("query reviewed", "id", id, "status", status)
	return nil
}

// Get returns a single query by ID.
func (s *QueryStore) Get(ctx context.Context, id uuid.UUID) (*EmailQuery, error) {
	const query = `
		SELECT id, raw_email, suggested_reply, confidence_score, conflict_flag, sources_used,
		       approved_version, approved_by, status, source, subject, from_address, created_at
		FROM email_queries
		WHERE id = $1`

	q, err := scanQuery(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting query: %w", err)
	}
	return q, nil
}

// List returns queries newest first, optionally filtered by status.
func (s *QueryStore) List(ctx context.Context, status string) ([]EmailQuery, error) {
	const base = `
		SELECT id, raw_email, suggested_reply, confidence_score, conflict_flag, sources_used,
		       approved_version, approved_by, status, source, subject, from_address, created_at
		FROM email_queries`

	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		rows, err = s.db.Query(ctx, base+` ORDER BY created_at DESC`)
	} else {
		rows, err = s.db.Query(ctx, base+` WHERE status = $1 ORDER BY created_at DESC`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("listing queries: %w", err)
	}
	defer rows.Close()

	var queries []EmailQuery
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning query row: %w", err)
		}
		queries = append(queries, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading query rows: %w", err)
	}
	return queries, nil
}

func scanQuery(row pgx.Row) (*EmailQuery, error) {
	var (
		q           EmailQuery
		sourcesJSON []byte
	)
	err := row.Scan(
		&q.ID, &q.RawEmail, &q.SuggestedReply, &q.ConfidenceScore, &q.ConflictFlag,
		&sourcesJSON, &q.ApprovedVersion, &q.ApprovedBy, &q.Status, &q.Source,
		&q.Subject, &q.FromAddress, &q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &q.SourcesUsed); err != nil {
			return nil, fmt.Errorf("unmarshaling sources: %w", err)
		}
	}
	return &q, nil
}
