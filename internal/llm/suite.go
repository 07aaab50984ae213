package llm

import (
	"os"

	"github.com/briefloop/briefloop/internal/scoring"
)

// EmbedModelEnv names the environment variable pointing at a GGUF
// embedding model for similarity scoring (llamacpp builds only).
const EmbedModelEnv = "BRIEFLOOP_EMBED_MODEL"

// DetectSuite assembles the best scoring suite the environment
// supports: the rule-based fallback everywhere, upgraded with subagent
// scoring inside an agent CLI session and embedding similarity when a
// local model is configured. Runtime failures degrade to the neutral
// default through the resilient wrapper.
func DetectSuite() scoring.Suite {
	suite := scoring.FallbackSuite()

	if client := DetectAndCreate(); client != nil {
		suite.Validator = client
		suite.Quality = client
		suite.Similarity = client
	}

	if path := os.Getenv(EmbedModelEnv); path != "" {
		if sim := localSimilarity(path); sim != nil {
			suite.Similarity = sim
		}
	}

	return suite
}

// DetectEmbedder returns the local embedder when a model is configured
// and the binary was built with llamacpp support, else nil. Callers use
// it to enable the cross-conversation question bank.
func DetectEmbedder() scoring.Embedder {
	if path := os.Getenv(EmbedModelEnv); path != "" {
		return localEmbedder(path)
	}
	return nil
}
