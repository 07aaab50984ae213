// Package vectorindex provides nearest neighbor search over question
// embeddings, used to detect when a candidate question is semantically
// close to one already asked.
package vectorindex

import "context"

// SearchResult pairs a question ID with its cosine similarity score.
type SearchResult struct {
	QuestionID string
	Score      float64 // cosine similarity in [-1, 1], higher = more similar
}

// VectorIndex provides nearest neighbor search over embeddings.
// Implementations must be safe for concurrent use from multiple goroutines.
type VectorIndex interface {
	// Add inserts or updates the vector for the given question ID.
	// If the ID already exists, the vector is replaced.
	Add(ctx context.Context, questionID string, vector []float32) error

	// Remove deletes the vector for the given question ID.
	// Returns nil if the ID does not exist (idempotent).
	Remove(ctx context.Context, questionID string) error

	// Search returns the topK most similar vectors to query, sorted by
	// descending score. Returns fewer results if the index is smaller.
	Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error)

	// Len returns the number of vectors currently in the index.
	Len() int

	// Save persists the index state to its backing store.
	// Implementations without persistence should no-op.
	Save(ctx context.Context) error

	// Close releases resources. Implementations should save before closing.
	Close() error
}
