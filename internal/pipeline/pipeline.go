package pipeline

import (
	"context"

	"github.com/edgecity/opsmail/internal/llm"
	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/store"
)

// snippetLength is how much chunk text is kept in the audit trail.
const snippetLength = 150

// Result is the full outcome of one pipeline run, ready for the caller
// to persist and present for review.
type Result struct {
	Reply        *Reply
	ConflictFlag bool
	SourcesUsed  []store.SourceUsed
}

// Pipeline sequences retrieval, conflict detection and reply
// composition. Each invocation is independent; a Pipeline is safe for
// concurrent use.
type Pipeline struct {
	retriever *Retriever
	detector  *Detector
	composer  *Composer
	logger    log.Logger
}

// New assembles a Pipeline from its stages.
func New(embedder llm.Embedder, generator llm.Generator, chunks ChunkSearcher, facts FactFinder, topK int, logger log.Logger) *Pipeline {
	return &Pipeline{
		retriever: NewRetriever(embedder, chunks, facts, topK, logger),
		detector:  NewDetector(generator, logger),
		composer:  NewComposer(generator, logger),
		logger:    logger,
	}
}

// Run answers one email. Stages run in order: retrieval feeds conflict
// detection, which feeds reply composition. Any stage error aborts the
// run; nothing is persisted here.
func (p *Pipeline) Run(ctx context.Context, rawEmail string) (*Result, error) {
	evidence, err := p.retriever.Retrieve(ctx, rawEmail)
	if err != nil {
		return nil, err
	}

	verdict, err := p.detector.Detect(ctx, evidence)
	if err != nil {
		return nil, err
	}

	reply, err := p.composer.Compose(ctx, rawEmail, evidence, verdict)
	if err != nil {
		return nil, err
	}

	p.logger.Info("pipeline run complete",
		"confidence", reply.Confidence,
		"conflict", verdict.HasConflict,
		"chunks", len(evidence.Chunks),
		"facts", len(evidence.Facts),
	)

	return &Result{
		Reply:        reply,
		ConflictFlag: verdict.HasConflict,
		SourcesUsed:  sourcesUsed(evidence.Chunks),
	}, nil
}

// sourcesUsed projects retrieved chunks into the audit record: one
// entry per chunk with a truncated snippet of its text.
func sourcesUsed(chunks []store.ScoredChunk) []store.SourceUsed {
	sources := make([]store.SourceUsed, 0, len(chunks))
	for _, c := range chunks {
		snippet := c.Text
		if len(snippet) > snippetLength {
			snippet = snippet[:snippetLength]
		}
		sources = append(sources, store.SourceUsed{
			SourceID:   c.SourceID.String(),
			SourceType: c.SourceType,
			PageNumber: c.PageNumber,
			Snippet:    snippet,
		})
	}
	return sources
}
