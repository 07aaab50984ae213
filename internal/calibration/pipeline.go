package calibration

import (
	"context"
	"fmt"
	"strings"

	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/scoring"
)

// UpdateResult reports the outcome of one extraction attempt, accepted
// or rejected, so the audit trail can record both.
type UpdateResult struct {
	// Slot is the targeted slot name.
	Slot string `json:"slot"`

	// Turn is the turn the answered question belongs to, captured here
	// before the selector advances the counter for the next question.
	Turn int `json:"turn"`

	// Accepted is true when the value entered the slot state.
	Accepted bool `json:"accepted"`

	// Value is the proposed value.
	Value models.SlotValue `json:"value"`

	// Confidence is the calibrated confidence; written to the slot only
	// on acceptance.
	Confidence float64 `json:"confidence"`

	// Threshold is the effective minimum the value was held to.
	Threshold float64 `json:"threshold"`

	// Provisional marks acceptance through the explicit-ask grace band.
	Provisional bool `json:"provisional"`

	// Features is the feature vector behind the decision, for the
	// audit trail.
	Features models.ConfidenceFeatures `json:"features"`

	// ScorerFallbacks counts injected scorer calls that failed and were
	// recovered with the neutral default.
	ScorerFallbacks int `json:"scorer_fallbacks,omitempty"`
}

// Pipeline runs the extraction accept/reject decision. It is the only
// component that mutates SlotState and the low-confidence streak.
type Pipeline struct {
	cfg        config.CalibrationConfig
	calibrator *Calibrator
	scorers    *scoring.Resilient
}

// NewPipeline creates a Pipeline using the given scorers.
func NewPipeline(cfg config.CalibrationConfig, scorers *scoring.Resilient) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		calibrator: NewCalibrator(cfg),
		scorers:    scorers,
	}
}

// Calibrator exposes the pipeline's calibrator for direct scoring.
func (p *Pipeline) Calibrator() *Calibrator { return p.calibrator }

// ProcessExtraction decides whether an extracted value enters the
// conversation state. The result is non-nil whenever the extraction
// was evaluated; Accepted carries the decision, and rejections keep
// their features for the audit trail. An unknown slot name is a caller
// bug and fails the turn with models.ErrUnknownSlot.
func (p *Pipeline) ProcessExtraction(ctx context.Context, slot string, value models.SlotValue, selfConfidence float64, answerText string, state *models.ConversationState) (*UpdateResult, error) {
	schema, err := state.SchemaFor(slot)
	if err != nil {
		return nil, err
	}
	slotState, ok := state.Slots[slot]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no state", models.ErrUnknownSlot, slot)
	}

	// A no-inference slot only accepts values on a turn that explicitly
	// asked for it, regardless of how confident the extraction looks.
	// The gate fires before any scoring, so the rejection carries zero
	// features.
	if schema.NoInference && !slotState.AskedThisTurn {
		state.LowConfStreak++
		return &UpdateResult{
			Slot:      slot,
			Turn:      state.Turn,
			Value:     value,
			Threshold: schema.Threshold(),
		}, nil
	}

	features, fallbacks := p.gatherFeatures(ctx, schema, slot, value, selfConfidence, answerText, state)
	calibrated := p.calibrator.Calibrate(features)
	threshold := schema.Threshold()

	accepted := calibrated >= threshold
	provisional := false
	if !accepted && slotState.AskedThisTurn && calibrated >= threshold-p.cfg.GraceBand {
		// Grace band: an explicitly-asked-but-imperfect answer still
		// registers, flagged provisional.
		accepted = true
		provisional = true
	}

	if !accepted {
		state.LowConfStreak++
		return &UpdateResult{
			Slot:            slot,
			Turn:            state.Turn,
			Value:           value,
			Confidence:      calibrated,
			Threshold:       threshold,
			Features:        features,
			ScorerFallbacks: fallbacks,
		}, nil
	}

	slotState.Value = value
	slotState.Confidence = calibrated
	slotState.Provisional = provisional
	slotState.LastUpdatedTurn = state.Turn
	if schema.RequiresExplicitQuestion == models.ExplicitAskOnce && slotState.AskedThisTurn {
		slotState.ExplicitlyAsked = true
	}
	if !provisional {
		state.LowConfStreak = 0
	}

	return &UpdateResult{
		Slot:            slot,
		Turn:            state.Turn,
		Accepted:        true,
		Value:           value,
		Confidence:      calibrated,
		Threshold:       threshold,
		Provisional:     provisional,
		Features:        features,
		ScorerFallbacks: fallbacks,
	}, nil
}

// gatherFeatures assembles the feature vector for one extraction,
// counting how many scorer calls fell back to the neutral default.
func (p *Pipeline) gatherFeatures(ctx context.Context, schema models.SlotSchema, slot string, value models.SlotValue, selfConfidence float64, answerText string, state *models.ConversationState) (models.ConfidenceFeatures, int) {
	previous := state.Slots[slot].Value

	validator := p.scorers.Validator(ctx, slot, value, state)
	quality := p.scorers.Quality(ctx, answerText)
	novelty := p.scorers.Novelty(ctx, value, previous)
	consistency := p.scorers.Consistency(ctx, slot, value, state)

	fallbacks := 0
	for _, o := range []scoring.ScoreOutcome{validator, quality, novelty, consistency} {
		if o.FellBack {
			fallbacks++
		}
	}

	features := models.ConfidenceFeatures{
		Self:          selfConfidence,
		Validator:     validator.Score,
		EvidenceSpans: countEvidenceSpans(value, answerText),
		AnswerQuality: quality.Score,
		Novelty:       novelty.Score,
		Consistency:   consistency.Score,
		Critical:      schema.Priority == models.PriorityCritical,
	}.Clamp()

	return features, fallbacks
}

// countEvidenceSpans counts maximal runs of the value's tokens that
// appear verbatim in the answer text. Each run is one supporting span;
// a value invented by the extractor with no grounding in the answer
// yields zero spans, which contributes nothing (not a penalty).
func countEvidenceSpans(value models.SlotValue, answerText string) int {
	valueTokens := spanTokens(value.String())
	if len(valueTokens) == 0 {
		return 0
	}
	answerSet := make(map[string]struct{})
	for _, t := range spanTokens(answerText) {
		answerSet[t] = struct{}{}
	}

	spans := 0
	inSpan := false
	for _, t := range valueTokens {
		if _, ok := answerSet[t]; ok {
			if !inSpan {
				spans++
				inSpan = true
			}
		} else {
			inSpan = false
		}
	}
	return spans
}

// spanTokens lowercases and keeps tokens long enough to be meaningful
// evidence (3+ chars, or any token containing a digit).
func spanTokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := fields[:0]
	for _, t := range fields {
		if len(t) >= 3 || strings.ContainsAny(t, "0123456789") {
			out = append(out, t)
		}
	}
	return out
}
