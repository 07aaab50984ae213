// Package simulation runs scripted multi-turn conversations against
// the engine. Scenarios pair a template with a persona that answers
// each question deterministically, so end-to-end conversation dynamics
// can be exercised without a live user or model.
package simulation

import (
	"context"
	"fmt"
	"io"

	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/engine"
	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/schema"
	"github.com/briefloop/briefloop/internal/scoring"
	"github.com/briefloop/briefloop/internal/tokens"
)

// Answer is one scripted reply: the raw text plus the extraction an
// upstream model would have produced from it.
type Answer struct {
	Text           string           `json:"text" yaml:"text"`
	Value          models.SlotValue `json:"value" yaml:"value"`
	SelfConfidence float64          `json:"self_confidence" yaml:"self_confidence"`
}

// Persona answers questions during a simulated conversation.
type Persona interface {
	Answer(q models.CandidateQuestion, turn int) Answer
}

// ScriptedPersona answers from a per-slot script, falling back to a
// default answer for unscripted slots.
type ScriptedPersona struct {
	// BySlot maps slot name to the scripted answer.
	BySlot map[string]Answer

	// Default is used for slots not in the script.
	Default Answer
}

// Answer implements Persona.
func (p ScriptedPersona) Answer(q models.CandidateQuestion, _ int) Answer {
	if a, ok := p.BySlot[q.Slot]; ok {
		return a
	}
	return p.Default
}

// TextAnswer builds an answer whose extraction is the text itself.
func TextAnswer(text string, selfConfidence float64) Answer {
	return Answer{
		Text:           text,
		Value:          models.TextValue(text),
		SelfConfidence: selfConfidence,
	}
}

// DontKnow is the stock disengaged reply.
func DontKnow() Answer {
	return Answer{Text: "I don't know", SelfConfidence: 0.1}
}

// Scenario describes one simulated conversation.
type Scenario struct {
	// Name labels the run.
	Name string

	// Template is the survey to run.
	Template *schema.Template

	// Persona supplies the answers.
	Persona Persona

	// Config overrides the engine configuration. Nil uses defaults.
	Config *config.Config

	// Log receives scorer-fallback notices. May be nil.
	Log io.Writer
}

// TurnLog records one simulated turn.
type TurnLog struct {
	Turn       int     `json:"turn"`
	QuestionID string  `json:"question_id"`
	Question   string  `json:"question"`
	Slot       string  `json:"slot"`
	Answer     string  `json:"answer"`
	Accepted   bool    `json:"accepted"`
	Confidence float64 `json:"confidence,omitempty"`
	Fatigue    float64 `json:"fatigue"`
}

// Result is the outcome of a simulated conversation.
type Result struct {
	// State is the final conversation state.
	State *models.ConversationState `json:"state"`

	// Turns is the transcript.
	Turns []TurnLog `json:"turns"`

	// StopReason is why the conversation ended.
	StopReason string `json:"stop_reason"`

	// QuestionTokens and AnswerTokens are rough transcript token
	// estimates.
	QuestionTokens int `json:"question_tokens"`
	AnswerTokens   int `json:"answer_tokens"`
}

// Run executes a scenario to completion and returns the transcript.
func Run(ctx context.Context, sc Scenario) (*Result, error) {
	if sc.Template == nil {
		return nil, fmt.Errorf("scenario %q has no template", sc.Name)
	}
	if sc.Persona == nil {
		return nil, fmt.Errorf("scenario %q has no persona", sc.Name)
	}

	cfg := config.Default()
	if sc.Config != nil {
		cfg = *sc.Config
	}

	eng := engine.New(cfg, scoring.FallbackSuite(), sc.Log)
	state := models.NewConversationState("sim-"+sc.Name, sc.Template.Name, sc.Template.Slots)

	result := &Result{State: state}

	action, err := eng.Start(ctx, sc.Template.Questions, state)
	if err != nil {
		return nil, err
	}

	// The engine's own turn budget bounds the loop; the extra headroom
	// guards against a wiring bug looping forever.
	for i := 0; i < cfg.Selection.MaxTurns+2 && action.Kind == models.ActionAsk; i++ {
		q := *action.Question
		turnNum := state.Turn
		ans := sc.Persona.Answer(q, turnNum)

		turn, err := eng.ProcessTurn(ctx, engine.TurnInput{
			Slot:           q.Slot,
			Answer:         ans.Text,
			Value:          ans.Value,
			SelfConfidence: ans.SelfConfidence,
			Candidates:     sc.Template.Questions,
		}, state)
		if err != nil {
			return nil, fmt.Errorf("scenario %q turn %d: %w", sc.Name, turnNum, err)
		}

		log := TurnLog{
			Turn:       turnNum,
			QuestionID: q.ID,
			Question:   q.Text,
			Slot:       q.Slot,
			Answer:     ans.Text,
			Accepted:   turn.Accepted,
			Fatigue:    turn.Fatigue,
		}
		if turn.Update != nil {
			log.Confidence = turn.Update.Confidence
		}
		result.Turns = append(result.Turns, log)
		result.QuestionTokens += tokens.EstimateTokens(q.Text)
		result.AnswerTokens += tokens.EstimateTokens(ans.Text)

		action = turn.NextAction
	}

	result.StopReason = state.StopReason
	return result, nil
}
