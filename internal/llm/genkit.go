package llm

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// Init initializes Genkit with the Google AI plugin. The GEMINI_API_KEY
// environment variable must be set before calling.
func Init(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, fmt.Errorf("failed to initialize Genkit")
	}
	return g, nil
}

// GenkitGenerator generates text via a Genkit model.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenerator creates a Generator backed by the named Genkit model.
func NewGenerator(g *genkit.Genkit, modelName string) *GenkitGenerator {
	return &GenkitGenerator{g: g, modelName: modelName}
}

// Generate runs a single completion and returns the response text.
func (gg *GenkitGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.modelName),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return resp.Text(), nil
}

// GenkitEmbedder embeds text via a Genkit embedder.
type GenkitEmbedder struct {
	embedder ai.Embedder
}

// NewEmbedder creates an Embedder backed by the named Google AI
// embedding model.
func NewEmbedder(g *genkit.Genkit, embedderModel string) *GenkitEmbedder {
	return &GenkitEmbedder{embedder: googlegenai.GoogleAIEmbedder(g, embedderModel)}
}

// Embed returns the embedding vector for a single text.
func (ge *GenkitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := ge.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Embeddings[0].Embedding, nil
}
