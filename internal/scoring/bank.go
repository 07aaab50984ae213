package scoring

import (
	"context"
	"fmt"

	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/vectorindex"
)

// QuestionBank indexes embeddings of every question asked across
// conversations, so a candidate can be checked against the full asked
// history rather than only the bounded per-conversation window. Safe
// for concurrent use to the extent the underlying index is.
type QuestionBank struct {
	embedder Embedder
	index    vectorindex.VectorIndex
}

// NewQuestionBank creates a QuestionBank over the given embedder and
// index.
func NewQuestionBank(e Embedder, index vectorindex.VectorIndex) *QuestionBank {
	return &QuestionBank{embedder: e, index: index}
}

// Record embeds an asked question and adds it to the bank. Re-recording
// the same ID replaces the stored vector.
func (b *QuestionBank) Record(ctx context.Context, questionID, text string) error {
	vec, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding question %s: %w", questionID, err)
	}
	return b.index.Add(ctx, questionID, vec)
}

// MaxSimilarity returns the highest cosine similarity between text and
// any recorded question, clamped to [0,1]. An empty bank scores 0.
func (b *QuestionBank) MaxSimilarity(ctx context.Context, text string) (float64, error) {
	if b.index.Len() == 0 {
		return 0, nil
	}
	vec, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("embedding candidate: %w", err)
	}
	results, err := b.index.Search(ctx, vec, 1)
	if err != nil {
		return 0, fmt.Errorf("searching question bank: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return models.Clamp01(results[0].Score), nil
}

// Save persists the underlying index.
func (b *QuestionBank) Save(ctx context.Context) error {
	return b.index.Save(ctx)
}

// Close releases the underlying index.
func (b *QuestionBank) Close() error {
	return b.index.Close()
}
