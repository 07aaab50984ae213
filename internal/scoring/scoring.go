// Package scoring defines the external scoring capabilities the engine
// consumes (validator re-scoring, answer quality, novelty, consistency,
// information gain, semantic similarity) and local implementations:
// a rule-based fallback client and an embedding-backed similarity
// scorer. Production deployments inject model-backed implementations;
// the engine only sees the interfaces.
package scoring

import (
	"context"

	"github.com/briefloop/briefloop/internal/models"
)

// NeutralScore is substituted when a scorer fails or is absent. A
// transient scoring failure must not derail the conversation; the
// worst case is a less-well-calibrated confidence, not an aborted turn.
const NeutralScore = 0.5

// Validator re-scores how precise and actionable an extracted value is
// given the conversation so far.
type Validator interface {
	ScoreValidator(ctx context.Context, slot string, value models.SlotValue, state *models.ConversationState) (float64, error)
}

// QualityScorer scores the raw answer text for usable detail.
type QualityScorer interface {
	ScoreAnswerQuality(ctx context.Context, answer string) (float64, error)
}

// NoveltyScorer scores how much new information a value carries versus
// the slot's previous value. A slot with no previous value is fully novel.
type NoveltyScorer interface {
	ScoreNovelty(ctx context.Context, newValue, previous models.SlotValue) (float64, error)
}

// ConsistencyScorer scores agreement between a candidate value and the
// slot's prior value plus conversation history.
type ConsistencyScorer interface {
	ScoreConsistency(ctx context.Context, slot string, value models.SlotValue, state *models.ConversationState) (float64, error)
}

// GainEstimator estimates the expected information gain of asking a
// candidate question in the current state.
type GainEstimator interface {
	EstimateGain(ctx context.Context, q models.CandidateQuestion, state *models.ConversationState) (float64, error)
}

// SimilarityScorer scores semantic similarity between two question
// texts in [0,1].
type SimilarityScorer interface {
	ScoreSimilarity(ctx context.Context, a, b string) (float64, error)
}

// Suite bundles every capability the engine consumes. Any nil field is
// treated as permanently unavailable and scores neutral.
type Suite struct {
	Validator   Validator
	Quality     QualityScorer
	Novelty     NoveltyScorer
	Consistency ConsistencyScorer
	Gain        GainEstimator
	Similarity  SimilarityScorer
}

// FallbackSuite returns a Suite backed entirely by the rule-based
// fallback client.
func FallbackSuite() Suite {
	fb := NewFallbackClient()
	return Suite{
		Validator:   fb,
		Quality:     fb,
		Novelty:     fb,
		Consistency: fb,
		Gain:        fb,
		Similarity:  fb,
	}
}
