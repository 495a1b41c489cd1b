package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/edgecity/opsmail/internal/log"
)

func TestKeywordPatterns(t *testing.T) {
	got := keywordPatterns([]string{"wifi", "password"})
	want := []string{"%wifi%", "%password%"}
	if len(got) != len(want) {
		t.Fatalf("got %d patterns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pattern %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFindByKeywordsEmpty(t *testing.T) {
	// With no keywords the store must not touch the database; a nil
	// Querier panics if it does.
	s := NewFactStore(nil, log.NewNop())
	facts, err := s.FindByKeywords(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if facts != nil {
		t.Errorf("expected no facts, got %v", facts)
	}
}

func TestReviewInvalidStatus(t *testing.T) {
	s := NewQueryStore(nil, log.NewNop())
	err := s.Review(context.Background(), uuid.New(), "pending", nil, nil)
	if err == nil {
		t.Fatal("expected error for invalid review status")
	}
}
