// Package engine orchestrates one conversation turn: calibrate the
// incoming answer's extraction, decide whether the conversation is
// done, and pick the next question. The engine is a pure, synchronous,
// per-conversation decision core; the caller serializes turns for a
// given conversation and owns persistence.
package engine

import (
	"context"
	"io"

	"github.com/briefloop/briefloop/internal/calibration"
	"github.com/briefloop/briefloop/internal/completion"
	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/fatigue"
	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/sanitize"
	"github.com/briefloop/briefloop/internal/scoring"
	"github.com/briefloop/briefloop/internal/selection"
)

// TurnInput carries one user answer plus the extraction the upstream
// AI produced from it, and the candidate questions available next.
type TurnInput struct {
	// Slot is the slot the answered question targeted.
	Slot string `json:"slot"`

	// Answer is the raw user answer text.
	Answer string `json:"answer"`

	// Value is the extractor's proposed slot value.
	Value models.SlotValue `json:"value"`

	// SelfConfidence is the extractor's self-reported confidence.
	SelfConfidence float64 `json:"self_confidence"`

	// Candidates are the questions available for the next turn.
	Candidates []models.CandidateQuestion `json:"candidates"`
}

// TurnResult is the engine's decision for one turn.
type TurnResult struct {
	// Accepted is true when the extraction entered the slot state.
	Accepted bool `json:"accepted"`

	// Update is the calibration outcome for the submitted extraction,
	// accepted or rejected.
	Update *calibration.UpdateResult `json:"update,omitempty"`

	// Decision is the completion policy's verdict.
	Decision completion.Decision `json:"decision"`

	// NextAction is the next question to ask, or a stop.
	NextAction models.NextAction `json:"next_action"`

	// Fatigue is the fatigue score used this turn.
	Fatigue float64 `json:"fatigue"`
}

// Engine wires the calibration pipeline, fatigue detector, question
// selector, and completion policy over one injected scorer suite.
type Engine struct {
	cfg      config.Config
	pipeline *calibration.Pipeline
	detector *fatigue.Detector
	selector *selection.Selector
	policy   *completion.Policy
	bank     *scoring.QuestionBank
}

// New creates an Engine. suite supplies the external scoring
// capabilities; log (may be nil) receives scorer-fallback notices.
func New(cfg config.Config, suite scoring.Suite, log io.Writer) *Engine {
	scorers := scoring.NewResilient(suite, log)
	detector := fatigue.NewDetector(cfg.Fatigue)
	return &Engine{
		cfg:      cfg,
		pipeline: calibration.NewPipeline(cfg.Calibration, scorers),
		detector: detector,
		selector: selection.NewSelector(cfg.Selection, scorers, detector.DetectState),
		policy:   completion.NewPolicy(cfg.Completion),
	}
}

// WithQuestionBank attaches a cross-conversation question bank. Asked
// questions are recorded into it and future candidates checked against
// it. Returns e for chaining.
func (e *Engine) WithQuestionBank(bank *scoring.QuestionBank) *Engine {
	e.bank = bank
	e.selector.WithBank(bank)
	return e
}

// Pipeline exposes the calibration pipeline (used by tuning tools).
func (e *Engine) Pipeline() *calibration.Pipeline { return e.pipeline }

// Start selects and records the opening question for a fresh
// conversation. Returns a stop action if nothing can be asked.
func (e *Engine) Start(ctx context.Context, candidates []models.CandidateQuestion, state *models.ConversationState) (models.NextAction, error) {
	if state.Status == models.StatusComplete {
		return models.NextAction{}, models.ErrConversationComplete
	}
	sel := e.selector.Select(ctx, candidates, state)
	if sel.Question == nil {
		state.Complete(sel.StopReason)
		return models.Stop(sel.StopReason), nil
	}
	e.ask(ctx, state, *sel.Question)
	return models.Ask(*sel.Question), nil
}

// ProcessTurn processes the answer to the previously asked question:
// calibrates the extraction, updates state, evaluates the completion
// policy, and either records the next question or completes the
// conversation. At most one state mutation and one decision per call.
func (e *Engine) ProcessTurn(ctx context.Context, input TurnInput, state *models.ConversationState) (*TurnResult, error) {
	if state.Status == models.StatusComplete {
		return nil, models.ErrConversationComplete
	}

	answer := sanitize.Answer(input.Answer)

	update, err := e.pipeline.ProcessExtraction(ctx, input.Slot, input.Value, input.SelfConfidence, answer, state)
	if err != nil {
		return nil, err
	}

	record := models.AnswerRecord{
		Turn:     state.Turn,
		Slot:     input.Slot,
		Text:     answer,
		Accepted: update.Accepted,
	}
	if update.Accepted {
		record.Confidence = update.Confidence
	}
	state.RecordAnswer(record)

	fatigueScore := e.detector.DetectState(state)
	decision := e.policy.ShouldContinue(state, fatigueScore)

	result := &TurnResult{
		Accepted: update.Accepted,
		Update:   update,
		Decision: decision,
		Fatigue:  fatigueScore,
	}

	if !decision.Continue {
		state.Complete(decision.Reason)
		result.NextAction = models.Stop(decision.Reason)
		return result, nil
	}

	sel := e.selector.Select(ctx, input.Candidates, state)
	if sel.Question == nil {
		state.Complete(sel.StopReason)
		result.NextAction = models.Stop(sel.StopReason)
		return result, nil
	}

	e.ask(ctx, state, *sel.Question)
	result.NextAction = models.Ask(*sel.Question)
	return result, nil
}

// ask advances the turn counter and records q as the current question.
func (e *Engine) ask(ctx context.Context, state *models.ConversationState, q models.CandidateQuestion) {
	state.BeginTurn()
	state.RecordQuestion(models.AskedQuestion{
		Turn:  state.Turn,
		ID:    q.ID,
		Text:  q.Text,
		Slot:  q.Slot,
		Topic: q.Topic,
	})
	if e.bank != nil {
		// A failed bank write only weakens future dedup; the turn
		// proceeds.
		_ = e.bank.Record(ctx, q.ID, q.Text)
	}
}
