package scoring

import (
	"context"
	"fmt"

	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/vecmath"
)

// Embedder produces dense vector embeddings for text. Implementations
// wrap whatever model the deployment has available.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingSimilarity implements SimilarityScorer with cosine
// similarity over an injected Embedder. Negative cosine values are
// clamped to 0, since the selector treats similarity as [0,1].
type EmbeddingSimilarity struct {
	embedder Embedder
}

// NewEmbeddingSimilarity creates an embedding-backed similarity scorer.
func NewEmbeddingSimilarity(e Embedder) *EmbeddingSimilarity {
	return &EmbeddingSimilarity{embedder: e}
}

// ScoreSimilarity embeds both texts and returns their cosine
// similarity clamped to [0,1].
func (s *EmbeddingSimilarity) ScoreSimilarity(ctx context.Context, a, b string) (float64, error) {
	embA, err := s.embedder.Embed(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("embedding text a: %w", err)
	}
	embB, err := s.embedder.Embed(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("embedding text b: %w", err)
	}
	sim := vecmath.CosineSimilarity(embA, embB)
	return models.Clamp01(sim), nil
}
