package models

import (
	"fmt"
	"time"
)

// Default bounded-window sizes for conversation history tracking.
const (
	// DefaultTopicWindow is how many recently asked topics are retained
	// for cooldown checks.
	DefaultTopicWindow = 10

	// DefaultQuestionWindow is how many recently asked questions are
	// retained for semantic-similarity checks.
	DefaultQuestionWindow = 10

	// DefaultAnswerWindow is how many recent answers are retained for
	// fatigue detection.
	DefaultAnswerWindow = 10
)

// Status is the lifecycle state of a conversation. Transitions are
// one-directional: in_progress -> complete.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
)

// SlotState tracks one slot's extracted value within a conversation.
// Owned exclusively by the conversation; mutated only by the
// calibration pipeline's update step.
type SlotState struct {
	// Value is the accepted extraction, unset until first acceptance.
	Value SlotValue `json:"value,omitempty" yaml:"value,omitempty"`

	// Confidence is the calibrated confidence of Value, always in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Provisional marks a value accepted through the explicit-ask grace
	// band rather than by meeting the full threshold.
	Provisional bool `json:"provisional,omitempty" yaml:"provisional,omitempty"`

	// AskedThisTurn is true while the current turn's question targets
	// this slot. Reset at the start of every turn.
	AskedThisTurn bool `json:"asked_this_turn,omitempty" yaml:"asked_this_turn,omitempty"`

	// ExplicitlyAsked is sticky: once the slot has been the subject of a
	// direct question it stays true.
	ExplicitlyAsked bool `json:"explicitly_asked,omitempty" yaml:"explicitly_asked,omitempty"`

	// LastUpdatedTurn is the turn number of the most recent acceptance.
	LastUpdatedTurn int `json:"last_updated_turn,omitempty" yaml:"last_updated_turn,omitempty"`
}

// Filled reports whether the slot holds an accepted value.
func (s *SlotState) Filled() bool {
	return !s.Value.IsZero()
}

// AskedQuestion records one question asked during the conversation.
type AskedQuestion struct {
	Turn  int    `json:"turn" yaml:"turn"`
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
	Slot  string `json:"slot" yaml:"slot"`
	Topic string `json:"topic" yaml:"topic"`
}

// AnswerRecord records one user answer and its extraction outcome.
type AnswerRecord struct {
	Turn       int     `json:"turn" yaml:"turn"`
	Slot       string  `json:"slot" yaml:"slot"`
	Text       string  `json:"text" yaml:"text"`
	Accepted   bool    `json:"accepted" yaml:"accepted"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ConversationState is the aggregate for one conversation. Created at
// conversation start with all slots unset, mutated turn-by-turn, and
// discarded at conversation end. Not safe for concurrent mutation; the
// caller serializes updates per conversation.
type ConversationState struct {
	// ID identifies the conversation.
	ID string `json:"id" yaml:"id"`

	// Template is the name of the slot-schema template in use.
	Template string `json:"template" yaml:"template"`

	// Schema is the read-only slot declaration shared by the conversation.
	Schema []SlotSchema `json:"schema" yaml:"schema"`

	// Slots maps slot name to per-conversation state.
	Slots map[string]*SlotState `json:"slots" yaml:"slots"`

	// Turn is the current turn number, monotonically increasing from 0.
	Turn int `json:"turn" yaml:"turn"`

	// LowConfStreak counts consecutive rejected extractions. Reset to 0
	// by any non-provisional acceptance.
	LowConfStreak int `json:"low_conf_streak" yaml:"low_conf_streak"`

	// TopicHistory is a bounded window of recently asked topic IDs,
	// most recent last.
	TopicHistory []string `json:"topic_history,omitempty" yaml:"topic_history,omitempty"`

	// QuestionHistory is a bounded window of recently asked questions,
	// most recent last.
	QuestionHistory []AskedQuestion `json:"question_history,omitempty" yaml:"question_history,omitempty"`

	// AnswerHistory is a bounded window of recent answers, most recent last.
	AnswerHistory []AnswerRecord `json:"answer_history,omitempty" yaml:"answer_history,omitempty"`

	// Status is in_progress until the completion policy stops the
	// conversation; the transition is one-directional.
	Status Status `json:"status" yaml:"status"`

	// StopReason records why the conversation completed.
	StopReason string `json:"stop_reason,omitempty" yaml:"stop_reason,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewConversationState creates a fresh conversation over the given
// schema with every slot unset.
func NewConversationState(id, template string, schema []SlotSchema) *ConversationState {
	now := time.Now().UTC()
	slots := make(map[string]*SlotState, len(schema))
	for _, s := range schema {
		slots[s.Name] = &SlotState{}
	}
	return &ConversationState{
		ID:        id,
		Template:  template,
		Schema:    schema,
		Slots:     slots,
		Status:    StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SchemaFor returns the slot schema for name, or an error if the name
// is unknown (a caller programming error).
func (c *ConversationState) SchemaFor(name string) (SlotSchema, error) {
	for _, s := range c.Schema {
		if s.Name == name {
			return s, nil
		}
	}
	return SlotSchema{}, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}

// BeginTurn advances the turn counter and clears every slot's
// per-turn asked flag.
func (c *ConversationState) BeginTurn() {
	c.Turn++
	for _, s := range c.Slots {
		s.AskedThisTurn = false
	}
	c.UpdatedAt = time.Now().UTC()
}

// RecordQuestion marks q's target slot as asked this turn (and sticky
// explicitly-asked) and appends q to the bounded topic and question
// histories.
func (c *ConversationState) RecordQuestion(q AskedQuestion) {
	if s, ok := c.Slots[q.Slot]; ok {
		s.AskedThisTurn = true
		s.ExplicitlyAsked = true
	}
	c.TopicHistory = appendBounded(c.TopicHistory, q.Topic, DefaultTopicWindow)
	c.QuestionHistory = appendBounded(c.QuestionHistory, q, DefaultQuestionWindow)
}

// RecordAnswer appends r to the bounded answer history.
func (c *ConversationState) RecordAnswer(r AnswerRecord) {
	c.AnswerHistory = appendBounded(c.AnswerHistory, r, DefaultAnswerWindow)
	c.UpdatedAt = time.Now().UTC()
}

// RecentAnswerTexts returns up to n most recent answer texts, oldest first.
func (c *ConversationState) RecentAnswerTexts(n int) []string {
	if n <= 0 || len(c.AnswerHistory) == 0 {
		return nil
	}
	start := len(c.AnswerHistory) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, len(c.AnswerHistory)-start)
	for _, r := range c.AnswerHistory[start:] {
		out = append(out, r.Text)
	}
	return out
}

// Coverage returns the fraction of critical and important slots that
// hold an accepted value. Nice-tier slots do not count toward coverage.
func (c *ConversationState) Coverage() float64 {
	required := 0
	filled := 0
	for _, schema := range c.Schema {
		if schema.Priority == PriorityNice {
			continue
		}
		required++
		if s, ok := c.Slots[schema.Name]; ok && s.Filled() {
			filled++
		}
	}
	if required == 0 {
		return 1.0
	}
	return float64(filled) / float64(required)
}

// CriticalFilled reports whether every critical slot holds a value.
func (c *ConversationState) CriticalFilled() bool {
	for _, schema := range c.Schema {
		if schema.Priority != PriorityCritical {
			continue
		}
		s, ok := c.Slots[schema.Name]
		if !ok || !s.Filled() {
			return false
		}
	}
	return true
}

// TopicStreak returns how many consecutive most-recent questions share
// the given topic.
func (c *ConversationState) TopicStreak(topic string) int {
	streak := 0
	for i := len(c.TopicHistory) - 1; i >= 0; i-- {
		if c.TopicHistory[i] != topic {
			break
		}
		streak++
	}
	return streak
}

// TurnsSinceTopic returns the number of turns since topic was last
// asked, or -1 if it never was. The most recent question counts as 1.
func (c *ConversationState) TurnsSinceTopic(topic string) int {
	for i := len(c.TopicHistory) - 1; i >= 0; i-- {
		if c.TopicHistory[i] == topic {
			return len(c.TopicHistory) - i
		}
	}
	return -1
}

// LastAskedTurnFor returns the most recent turn on which the slot was
// asked, or -1 if it never was.
func (c *ConversationState) LastAskedTurnFor(slot string) int {
	for i := len(c.QuestionHistory) - 1; i >= 0; i-- {
		if c.QuestionHistory[i].Slot == slot {
			return c.QuestionHistory[i].Turn
		}
	}
	return -1
}

// Complete transitions the conversation to complete with the given
// reason. Calling it on an already-complete conversation keeps the
// original reason.
func (c *ConversationState) Complete(reason string) {
	if c.Status == StatusComplete {
		return
	}
	c.Status = StatusComplete
	c.StopReason = reason
	c.UpdatedAt = time.Now().UTC()
}

func appendBounded[T any](window []T, item T, max int) []T {
	window = append(window, item)
	if len(window) > max {
		window = window[len(window)-max:]
	}
	return window
}
