//go:build !llamacpp

package llm

import "github.com/briefloop/briefloop/internal/scoring"

// localSimilarity requires the llamacpp build tag; without it there is
// no embedded model support.
func localSimilarity(string) scoring.SimilarityScorer {
	return nil
}

func localEmbedder(string) scoring.Embedder {
	return nil
}
