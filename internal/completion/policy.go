// Package completion decides when a conversation has gathered enough
// information to stop. The decision is a simple monotone state machine:
// in_progress -> complete, evaluated once per turn after the answer is
// processed, never reversed.
package completion

import (
	"fmt"

	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/models"
)

// Stop reasons, one distinct string per stop path for audit and
// analytics.
const (
	ReasonCoverageMet   = "coverage met: required slots filled"
	ReasonLowConfidence = "low-confidence streak: repeated rejected extractions"
	ReasonFatigue       = "respondent fatigued with minimum coverage met"
	ReasonTurnBudget    = "turn budget exhausted"
)

// Decision is the policy's verdict for one turn.
type Decision struct {
	// Continue is false once any stop condition holds.
	Continue bool `json:"continue"`

	// Reason is set when Continue is false.
	Reason string `json:"reason,omitempty"`

	// Coverage is the required-slot coverage ratio at decision time.
	Coverage float64 `json:"coverage"`

	// Fatigue is the fatigue score consulted for the decision.
	Fatigue float64 `json:"fatigue"`
}

// Policy evaluates stop conditions.
type Policy struct {
	cfg config.CompletionConfig
}

// NewPolicy creates a Policy with the given thresholds. A zero config
// falls back to defaults.
func NewPolicy(cfg config.CompletionConfig) *Policy {
	if cfg.MaxTurns <= 0 {
		cfg = config.DefaultCompletionConfig()
	}
	return &Policy{cfg: cfg}
}

// ShouldContinue evaluates the stop conditions in order:
//
//  1. coverage >= MinCoverage and every critical slot filled
//  2. lowConfStreak >= LowConfStreakLimit (even below minimum coverage:
//     repeated rejections signal the user cannot supply better answers)
//  3. fatigue >= HighFatigue with minimum coverage already met
//  4. turn >= MaxTurns
//
// An already-complete conversation stays complete with its original
// reason.
func (p *Policy) ShouldContinue(state *models.ConversationState, fatigue float64) Decision {
	coverage := state.Coverage()
	d := Decision{Continue: true, Coverage: coverage, Fatigue: fatigue}

	if state.Status == models.StatusComplete {
		d.Continue = false
		d.Reason = state.StopReason
		return d
	}

	switch {
	case coverage >= p.cfg.MinCoverage && state.CriticalFilled():
		d.Continue = false
		d.Reason = ReasonCoverageMet
	case state.LowConfStreak >= p.cfg.LowConfStreakLimit:
		d.Continue = false
		d.Reason = fmt.Sprintf("%s (streak %d)", ReasonLowConfidence, state.LowConfStreak)
	case fatigue >= p.cfg.HighFatigue && coverage >= p.cfg.MinCoverage:
		d.Continue = false
		d.Reason = ReasonFatigue
	case state.Turn >= p.cfg.MaxTurns:
		d.Continue = false
		d.Reason = ReasonTurnBudget
	}

	return d
}
