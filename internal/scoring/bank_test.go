package scoring

import (
	"context"
	"testing"

	"github.com/briefloop/briefloop/internal/vectorindex"
)

func TestQuestionBank(t *testing.T) {
	bank := NewQuestionBank(fixedEmbedder{vectors: map[string][]float32{
		"what is the budget": {1, 0, 0},
		"what is your budget": {0.99, 0.1, 0},
		"who are the users":  {0, 1, 0},
	}}, vectorindex.NewBruteForceIndex())
	ctx := context.Background()

	// Empty bank scores zero without embedding anything.
	got, err := bank.MaxSimilarity(ctx, "what is the budget")
	if err != nil || got != 0 {
		t.Fatalf("MaxSimilarity(empty bank) = (%v, %v), want 0", got, err)
	}

	if err := bank.Record(ctx, "q1", "what is the budget"); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	got, err = bank.MaxSimilarity(ctx, "what is your budget")
	if err != nil {
		t.Fatalf("MaxSimilarity() error: %v", err)
	}
	if got < 0.9 {
		t.Errorf("MaxSimilarity(near duplicate) = %v, want > 0.9", got)
	}

	got, err = bank.MaxSimilarity(ctx, "who are the users")
	if err != nil {
		t.Fatalf("MaxSimilarity() error: %v", err)
	}
	if got != 0 {
		t.Errorf("MaxSimilarity(orthogonal) = %v, want 0", got)
	}
}

func TestQuestionBankEmbedError(t *testing.T) {
	bank := NewQuestionBank(fixedEmbedder{err: errScorer}, vectorindex.NewBruteForceIndex())
	if err := bank.Record(context.Background(), "q1", "text"); err == nil {
		t.Error("Record() with failing embedder returned no error")
	}
}
