// Package pipeline turns an incoming email question into a reviewed
// draft reply: it gathers evidence from the chunk and fact stores,
// checks the evidence for contradictions, and composes a reply with an
// explicit confidence level.
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/edgecity/opsmail/internal/llm"
	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/store"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// MinSimilarity is the similarity floor for chunk retrieval. Zero keeps
// every match; ranking alone decides what the model sees.
const MinSimilarity = 0.0

// ChunkSearcher finds chunks similar to an embedding.
type ChunkSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, topK int, minSimilarity float64) ([]store.ScoredChunk, error)
}

// FactFinder finds facts matching keywords.
type FactFinder interface {
	FindByKeywords(ctx context.Context, keywords []string) ([]store.StructuredFact, error)
}

// Evidence is everything retrieved for a question.
type Evidence struct {
	Chunks   []store.ScoredChunk
	Facts    []store.StructuredFact
	Keywords []string
}

// Empty reports whether retrieval produced nothing at all.
func (e *Evidence) Empty() bool {
	return len(e.Chunks) == 0 && len(e.Facts) == 0
}

// Retriever gathers evidence from both stores concurrently.
type Retriever struct {
	embedder llm.Embedder
	chunks   ChunkSearcher
	facts    FactFinder
	topK     int
	logger   log.Logger
}

// NewRetriever creates a Retriever. A topK of zero or less falls back
// to DefaultTopK.
func NewRetriever(embedder llm.Embedder, chunks ChunkSearcher, facts FactFinder, topK int, logger log.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		chunks:   chunks,
		facts:    facts,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve runs chunk and fact retrieval in parallel. A store read
// failure is logged and yields an empty result for that source, so the
// pipeline can still answer from whatever evidence remains. An
// embedding failure is different: without a query vector retrieval
// cannot proceed meaningfully, so it aborts the whole retrieval.
func (r *Retriever) Retrieve(ctx context.Context, question string) (*Evidence, error) {
	evidence := &Evidence{Keywords: ExtractKeywords(question)}

	var g errgroup.Group

	g.Go(func() error {
		embedding, err := r.embedder.Embed(ctx, question)
		if err != nil {
			return fmt.Errorf("embedding question: %w", err)
		}
		chunks, err := r.chunks.SearchSimilar(ctx, embedding, r.topK, MinSimilarity)
		if err != nil {
			r.logger.Warn("chunk search failed", "error", err)
			return nil
		}
		evidence.Chunks = chunks
		return nil
	})

	g.Go(func() error {
		if len(evidence.Keywords) == 0 {
			return nil
		}
		facts, err := r.facts.FindByKeywords(ctx, evidence.Keywords)
		if err != nil {
			r.logger.Warn("fact lookup failed", "error", err)
			return nil
		}
		evidence.Facts = facts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("retrieval complete",
		"chunks", len(evidence.Chunks),
		"facts", len(evidence.Facts),
		"keywords", len(evidence.Keywords),
	)
	return evidence, nil
}
