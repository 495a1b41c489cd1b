package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/store"
	"github.com/edgecity/opsmail/internal/testutil"
)

type stubChunkSearcher struct {
	mu     sync.Mutex
	chunks []store.ScoredChunk
	err    error
	calls  int
	topK   int
}

func (s *stubChunkSearcher) SearchSimilar(_ context.Context, _ []float32, topK int, _ float64) ([]store.ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.topK = topK
	return s.chunks, s.err
}

type stubFactFinder struct {
	mu    sync.Mutex
	facts []store.StructuredFact
	err   error
	calls int
}

func (s *stubFactFinder) FindByKeywords(_ context.Context, _ []string) ([]store.StructuredFact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.facts, s.err
}

func TestRetrieveBothSources(t *testing.T) {
	chunks := &stubChunkSearcher{chunks: []store.ScoredChunk{
		{ContentChunk: store.ContentChunk{Text: "Breakfast runs from 7 to 10."}, Similarity: 0.82},
	}}
	facts := &stubFactFinder{facts: []store.StructuredFact{
		{Category: "meals", Key: "breakfast_hours", Value: "7:00-10:00"},
	}}
	r := NewRetriever(testutil.NewStaticEmbedder([]float32{0.1, 0.2}), chunks, facts, 0, log.NewNop())

	evidence, err := r.Retrieve(context.Background(), "What time is breakfast served?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evidence.Chunks) != 1 || len(evidence.Facts) != 1 {
		t.Errorf("got %d chunks and %d facts, want 1 and 1", len(evidence.Chunks), len(evidence.Facts))
	}
	if chunks.topK != DefaultTopK {
		t.Errorf("topK = %d, want %d", chunks.topK, DefaultTopK)
	}
}

func TestRetrieveEmbedFailureIsFatal(t *testing.T) {
	embedder := testutil.NewStaticEmbedder(nil)
	embedder.Fail(errors.New("quota exceeded"))
	chunks := &stubChunkSearcher{}
	r := NewRetriever(embedder, chunks, &stubFactFinder{}, 5, log.NewNop())

	if _, err := r.Retrieve(context.Background(), "room keys"); err == nil {
		t.Fatal("expected error when embedding fails")
	}
	if chunks.calls != 0 {
		t.Errorf("chunk store called %d times after embed failure, want 0", chunks.calls)
	}
}

func TestRetrieveStoreFailuresDegrade(t *testing.T) {
	chunks := &stubChunkSearcher{err: errors.New("connection refused")}
	facts := &stubFactFinder{err: errors.New("connection refused")}
	r := NewRetriever(testutil.NewStaticEmbedder([]float32{0.5}), chunks, facts, 5, log.NewNop())

	evidence, err := r.Retrieve(context.Background(), "parking garage access")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !evidence.Empty() {
		t.Errorf("expected empty evidence, got %d chunks and %d facts", len(evidence.Chunks), len(evidence.Facts))
	}
}

func TestRetrieveNoKeywordsSkipsFactStore(t *testing.T) {
	facts := &stubFactFinder{}
	r := NewRetriever(testutil.NewStaticEmbedder([]float32{0.5}), &stubChunkSearcher{}, facts, 5, log.NewNop())

	if _, err := r.Retrieve(context.Background(), "the is a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if facts.calls != 0 {
		t.Errorf("fact store called %d times with no keywords, want 0", facts.calls)
	}
}
