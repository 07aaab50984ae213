package models

// CandidateQuestion is one question the selector may ask next. The
// expected-information-gain estimate is computed externally and
// attached by the caller.
type CandidateQuestion struct {
	// ID identifies the question (stable across turns for similarity
	// indexing).
	ID string `json:"id" yaml:"id"`

	// Text is the question as it would be asked.
	Text string `json:"text" yaml:"text"`

	// Slot is the target slot this question tries to fill.
	Slot string `json:"slot" yaml:"slot"`

	// Topic groups related questions for cooldown tracking.
	Topic string `json:"topic" yaml:"topic"`

	// EIG is the externally estimated expected information gain. Nil
	// means no estimate is attached and the selector asks its injected
	// estimator; an explicit zero is honored as-is.
	EIG *float64 `json:"eig,omitempty" yaml:"eig,omitempty"`
}

// ActionKind discriminates the engine's per-turn decision.
type ActionKind string

const (
	ActionAsk  ActionKind = "ask"
	ActionStop ActionKind = "stop"
)

// NextAction is the engine's decision after processing a turn: either
// the next question to ask or a stop with a reason.
type NextAction struct {
	Kind     ActionKind         `json:"kind"`
	Question *CandidateQuestion `json:"question,omitempty"`
	Reason   string             `json:"reason,omitempty"`
}

// Ask builds an ask action for q.
func Ask(q CandidateQuestion) NextAction {
	return NextAction{Kind: ActionAsk, Question: &q}
}

// Stop builds a stop action with the given reason.
func Stop(reason string) NextAction {
	return NextAction{Kind: ActionStop, Reason: reason}
}
