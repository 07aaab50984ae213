package models

import "errors"

// ErrUnknownSlot is returned when a turn references a slot name that is
// not part of the conversation's schema. This is a caller bug and fails
// the turn rather than silently no-oping.
var ErrUnknownSlot = errors.New("unknown slot")

// ErrConversationComplete is returned when a turn is submitted to a
// conversation that has already completed.
var ErrConversationComplete = errors.New("conversation already complete")

// ConfidenceFeatures is the ephemeral feature vector gathered for one
// extraction attempt. It is not persisted beyond the audit trail.
type ConfidenceFeatures struct {
	// Self is the extractor's self-reported confidence.
	Self float64 `json:"self"`

	// Validator is the injected validator's re-score of how precise and
	// actionable the value is given context.
	Validator float64 `json:"validator"`

	// EvidenceSpans counts supporting spans found in the answer text.
	EvidenceSpans int `json:"evidence_spans"`

	// AnswerQuality is the injected quality score for the raw answer.
	AnswerQuality float64 `json:"answer_quality"`

	// Novelty scores how much new information the value carries versus
	// the slot's prior value.
	Novelty float64 `json:"novelty"`

	// Consistency scores agreement with the prior value and history.
	Consistency float64 `json:"consistency"`

	// Critical is true when the target slot is critical-tier, which
	// caps the calibrated confidence.
	Critical bool `json:"critical"`
}

// Clamp returns a copy with every score forced into [0,1] and the span
// count floored at zero.
func (f ConfidenceFeatures) Clamp() ConfidenceFeatures {
	f.Self = clamp01(f.Self)
	f.Validator = clamp01(f.Validator)
	f.AnswerQuality = clamp01(f.AnswerQuality)
	f.Novelty = clamp01(f.Novelty)
	f.Consistency = clamp01(f.Consistency)
	if f.EvidenceSpans < 0 {
		f.EvidenceSpans = 0
	}
	return f
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp01 forces v into [0,1].
func Clamp01(v float64) float64 { return clamp01(v) }
