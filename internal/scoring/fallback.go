package scoring

import (
	"context"
	"regexp"
	"strings"

	"github.com/briefloop/briefloop/internal/models"
)

var reFallbackDigit = regexp.MustCompile(`[0-9]`)

// FallbackClient implements every scoring capability with lexical
// heuristics. It needs no model or network access, so it always works,
// at the cost of cruder scores. Used when no model-backed scorer is
// configured and as the safety net behind one.
type FallbackClient struct{}

// NewFallbackClient creates a rule-based scoring client.
func NewFallbackClient() *FallbackClient {
	return &FallbackClient{}
}

// ScoreValidator scores precision/actionability from the value's
// surface form: non-empty, reasonably long, and specific (contains
// numbers or multiple distinct tokens) scores higher.
func (c *FallbackClient) ScoreValidator(_ context.Context, _ string, value models.SlotValue, _ *models.ConversationState) (float64, error) {
	text := strings.TrimSpace(value.String())
	if text == "" {
		return 0, nil
	}
	score := 0.4
	tokens := tokenize(text)
	if len(tokens) >= 3 {
		score += 0.2
	}
	if len(tokens) >= 8 {
		score += 0.1
	}
	if reFallbackDigit.MatchString(text) {
		score += 0.15
	}
	if value.Kind == models.ValueKindList && len(value.List) > 1 {
		score += 0.1
	}
	return models.Clamp01(score), nil
}

// ScoreAnswerQuality scores the raw answer by length and structure.
func (c *FallbackClient) ScoreAnswerQuality(_ context.Context, answer string) (float64, error) {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return 0, nil
	}
	score := 0.3
	words := len(tokenize(trimmed))
	switch {
	case words >= 25:
		score += 0.4
	case words >= 10:
		score += 0.3
	case words >= 4:
		score += 0.15
	}
	if strings.ContainsAny(trimmed, ".!?") && words > 5 {
		score += 0.1
	}
	if reFallbackDigit.MatchString(trimmed) {
		score += 0.1
	}
	return models.Clamp01(score), nil
}

// ScoreNovelty scores lexical novelty: 1 minus token overlap with the
// previous value. No previous value is fully novel.
func (c *FallbackClient) ScoreNovelty(_ context.Context, newValue, previous models.SlotValue) (float64, error) {
	if previous.IsZero() {
		return 1.0, nil
	}
	overlap := jaccard(tokenize(newValue.String()), tokenize(previous.String()))
	return models.Clamp01(1.0 - overlap), nil
}

// ScoreConsistency scores agreement with the slot's prior value. With
// no prior value there is nothing to contradict, so consistency is
// high. With one, lexical overlap stands in for agreement; disjoint
// wording alone is weak evidence of conflict, so the floor is neutral
// rather than zero.
func (c *FallbackClient) ScoreConsistency(_ context.Context, slot string, value models.SlotValue, state *models.ConversationState) (float64, error) {
	var previous models.SlotValue
	if state != nil {
		if s, ok := state.Slots[slot]; ok {
			previous = s.Value
		}
	}
	if previous.IsZero() {
		return 0.8, nil
	}
	overlap := jaccard(tokenize(value.String()), tokenize(previous.String()))
	return models.Clamp01(NeutralScore + overlap/2), nil
}

// EstimateGain estimates information gain from coverage need: questions
// targeting unfilled higher-priority slots gain more.
func (c *FallbackClient) EstimateGain(_ context.Context, q models.CandidateQuestion, state *models.ConversationState) (float64, error) {
	schema, err := state.SchemaFor(q.Slot)
	if err != nil {
		return NeutralScore, nil
	}
	slot := state.Slots[q.Slot]
	if slot != nil && slot.Filled() && slot.Confidence >= schema.Threshold() {
		return 0.1, nil
	}
	switch schema.Priority {
	case models.PriorityCritical:
		return 0.9, nil
	case models.PriorityImportant:
		return 0.7, nil
	default:
		return 0.4, nil
	}
}

// ScoreSimilarity scores lexical similarity between two question texts
// via token overlap.
func (c *FallbackClient) ScoreSimilarity(_ context.Context, a, b string) (float64, error) {
	return jaccard(tokenize(a), tokenize(b)), nil
}

// tokenize lowercases and splits text into alphanumeric word tokens.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	return fields
}

// jaccard computes token-set overlap in [0,1].
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
