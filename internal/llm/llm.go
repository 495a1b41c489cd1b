// Package llm provides the model-facing capabilities the pipeline
// depends on. Consumers work against the small Generator and Embedder
// interfaces; the Genkit-backed implementations live in this package so
// provider details stay out of the business logic.
package llm

import (
	"context"
)

// Generator produces a text completion for a system/user prompt pair.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Embedder converts text into a vector embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
