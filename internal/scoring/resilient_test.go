package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/briefloop/briefloop/internal/models"
)

// failingScorer errors on every capability.
type failingScorer struct{}

var errScorer = errors.New("model unavailable")

func (failingScorer) ScoreValidator(context.Context, string, models.SlotValue, *models.ConversationState) (float64, error) {
	return 0, errScorer
}
func (failingScorer) ScoreAnswerQuality(context.Context, string) (float64, error) {
	return 0, errScorer
}
func (failingScorer) ScoreNovelty(context.Context, models.SlotValue, models.SlotValue) (float64, error) {
	return 0, errScorer
}
func (failingScorer) ScoreConsistency(context.Context, string, models.SlotValue, *models.ConversationState) (float64, error) {
	return 0, errScorer
}
func (failingScorer) EstimateGain(context.Context, models.CandidateQuestion, *models.ConversationState) (float64, error) {
	return 0, errScorer
}
func (failingScorer) ScoreSimilarity(context.Context, string, string) (float64, error) {
	return 0, errScorer
}

// wildScorer returns scores outside [0,1].
type wildScorer struct{}

func (wildScorer) ScoreAnswerQuality(context.Context, string) (float64, error) {
	return 3.5, nil
}

func failingSuite() Suite {
	f := failingScorer{}
	return Suite{Validator: f, Quality: f, Novelty: f, Consistency: f, Gain: f, Similarity: f}
}

func TestResilientRecoversToNeutral(t *testing.T) {
	r := NewResilient(failingSuite(), nil)
	ctx := context.Background()
	state := models.NewConversationState("c1", "test", nil)

	outcomes := []ScoreOutcome{
		r.Validator(ctx, "slot", models.TextValue("x"), state),
		r.Quality(ctx, "answer"),
		r.Novelty(ctx, models.TextValue("a"), models.TextValue("b")),
		r.Consistency(ctx, "slot", models.TextValue("x"), state),
		r.Gain(ctx, models.CandidateQuestion{}, state),
	}
	for i, out := range outcomes {
		if out.Score != NeutralScore {
			t.Errorf("outcome %d: Score = %v, want neutral %v", i, out.Score, NeutralScore)
		}
		if !out.FellBack {
			t.Errorf("outcome %d: FellBack = false, want true", i)
		}
		if !errors.Is(out.Err, errScorer) {
			t.Errorf("outcome %d: Err = %v, want errScorer", i, out.Err)
		}
	}
}

func TestResilientSimilarityFailsToZero(t *testing.T) {
	// A failed similarity check must read as dissimilar, not neutral:
	// a phantom 0.5 would penalize fresh questions.
	r := NewResilient(failingSuite(), nil)
	out := r.Similarity(context.Background(), "a", "b")
	if out.Score != 0 {
		t.Errorf("Similarity score on failure = %v, want 0", out.Score)
	}
	if !out.FellBack {
		t.Error("FellBack = false, want true")
	}
}

func TestResilientNilCapabilities(t *testing.T) {
	r := NewResilient(Suite{}, nil)
	ctx := context.Background()

	if out := r.Quality(ctx, "x"); out.Score != NeutralScore || !out.FellBack {
		t.Errorf("Quality(nil scorer) = %+v, want neutral fallback", out)
	}
	if out := r.Similarity(ctx, "a", "b"); out.Score != 0 || !out.FellBack {
		t.Errorf("Similarity(nil scorer) = %+v, want zero fallback", out)
	}
}

func TestResilientClampsWildScores(t *testing.T) {
	r := NewResilient(Suite{Quality: wildScorer{}}, nil)
	out := r.Quality(context.Background(), "x")
	if out.Score != 1 {
		t.Errorf("Score = %v, want clamped to 1", out.Score)
	}
	if out.FellBack {
		t.Error("clamping is not a fallback")
	}
}

func TestResilientLogsFailures(t *testing.T) {
	var log strings.Builder
	r := NewResilient(failingSuite(), &log)
	r.Quality(context.Background(), "x")
	r.Similarity(context.Background(), "a", "b")

	if !strings.Contains(log.String(), "answer_quality") {
		t.Errorf("log = %q, want answer_quality failure noted", log.String())
	}
	if !strings.Contains(log.String(), "similarity") {
		t.Errorf("log = %q, want similarity failure noted", log.String())
	}
}

// fixedEmbedder returns a canned vector per text.
type fixedEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (e fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vectors[text], nil
}

func TestEmbeddingSimilarity(t *testing.T) {
	s := NewEmbeddingSimilarity(fixedEmbedder{vectors: map[string][]float32{
		"a": {1, 0},
		"b": {1, 0},
		"c": {0, 1},
		"d": {-1, 0},
	}})
	ctx := context.Background()

	got, err := s.ScoreSimilarity(ctx, "a", "b")
	if err != nil || got != 1.0 {
		t.Errorf("ScoreSimilarity(parallel) = (%v, %v), want 1.0", got, err)
	}
	got, _ = s.ScoreSimilarity(ctx, "a", "c")
	if got != 0 {
		t.Errorf("ScoreSimilarity(orthogonal) = %v, want 0", got)
	}
	// Negative cosine clamps to 0.
	got, _ = s.ScoreSimilarity(ctx, "a", "d")
	if got != 0 {
		t.Errorf("ScoreSimilarity(opposed) = %v, want 0", got)
	}
}

func TestEmbeddingSimilarityError(t *testing.T) {
	s := NewEmbeddingSimilarity(fixedEmbedder{err: errScorer})
	if _, err := s.ScoreSimilarity(context.Background(), "a", "b"); !errors.Is(err, errScorer) {
		t.Errorf("error = %v, want errScorer", err)
	}
}
