package scoring

import (
	"context"
	"fmt"
	"io"

	"github.com/briefloop/briefloop/internal/models"
)

// Resilient wraps a Suite so every capability always yields a usable
// score: a failing or missing scorer is recovered locally with
// NeutralScore instead of propagating the error into the turn. Each
// fallback is an explicit branch, not a catch-all, so callers can test
// and observe it. Failures are noted on Log when set.
type Resilient struct {
	suite Suite

	// Log receives one line per recovered failure. Nil disables logging.
	Log io.Writer
}

// NewResilient wraps suite. log may be nil.
func NewResilient(suite Suite, log io.Writer) *Resilient {
	return &Resilient{suite: suite, Log: log}
}

// ScoreOutcome reports how one capability call resolved.
type ScoreOutcome struct {
	Score    float64
	FellBack bool
	Err      error
}

func (r *Resilient) recover(capability string, score float64, err error) ScoreOutcome {
	if err == nil {
		return ScoreOutcome{Score: models.Clamp01(score)}
	}
	if r.Log != nil {
		fmt.Fprintf(r.Log, "scoring: %s failed, using neutral default: %v\n", capability, err)
	}
	return ScoreOutcome{Score: NeutralScore, FellBack: true, Err: err}
}

// Validator scores via the validator capability with neutral fallback.
func (r *Resilient) Validator(ctx context.Context, slot string, value models.SlotValue, state *models.ConversationState) ScoreOutcome {
	if r.suite.Validator == nil {
		return ScoreOutcome{Score: NeutralScore, FellBack: true}
	}
	score, err := r.suite.Validator.ScoreValidator(ctx, slot, value, state)
	return r.recover("validator", score, err)
}

// Quality scores answer quality with neutral fallback.
func (r *Resilient) Quality(ctx context.Context, answer string) ScoreOutcome {
	if r.suite.Quality == nil {
		return ScoreOutcome{Score: NeutralScore, FellBack: true}
	}
	score, err := r.suite.Quality.ScoreAnswerQuality(ctx, answer)
	return r.recover("answer_quality", score, err)
}

// Novelty scores novelty with neutral fallback.
func (r *Resilient) Novelty(ctx context.Context, newValue, previous models.SlotValue) ScoreOutcome {
	if r.suite.Novelty == nil {
		return ScoreOutcome{Score: NeutralScore, FellBack: true}
	}
	score, err := r.suite.Novelty.ScoreNovelty(ctx, newValue, previous)
	return r.recover("novelty", score, err)
}

// Consistency scores consistency with neutral fallback.
func (r *Resilient) Consistency(ctx context.Context, slot string, value models.SlotValue, state *models.ConversationState) ScoreOutcome {
	if r.suite.Consistency == nil {
		return ScoreOutcome{Score: NeutralScore, FellBack: true}
	}
	score, err := r.suite.Consistency.ScoreConsistency(ctx, slot, value, state)
	return r.recover("consistency", score, err)
}

// Gain estimates information gain with neutral fallback.
func (r *Resilient) Gain(ctx context.Context, q models.CandidateQuestion, state *models.ConversationState) ScoreOutcome {
	if r.suite.Gain == nil {
		return ScoreOutcome{Score: NeutralScore, FellBack: true}
	}
	score, err := r.suite.Gain.EstimateGain(ctx, q, state)
	return r.recover("information_gain", score, err)
}

// Similarity scores question similarity. Unlike the other capabilities
// a failed similarity check falls back to 0, not neutral: treating two
// questions as "somewhat similar" on error would wrongly penalize or
// exclude fresh candidates.
func (r *Resilient) Similarity(ctx context.Context, a, b string) ScoreOutcome {
	if r.suite.Similarity == nil {
		return ScoreOutcome{Score: 0, FellBack: true}
	}
	score, err := r.suite.Similarity.ScoreSimilarity(ctx, a, b)
	if err == nil {
		return ScoreOutcome{Score: models.Clamp01(score)}
	}
	if r.Log != nil {
		fmt.Fprintf(r.Log, "scoring: similarity failed, treating as dissimilar: %v\n", err)
	}
	return ScoreOutcome{Score: 0, FellBack: true, Err: err}
}
