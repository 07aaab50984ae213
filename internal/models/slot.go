// Package models defines the core data types for the intake engine:
// slot schemas, slot values, conversation state, and the feature
// vectors used during confidence calibration.
package models

import "fmt"

// Priority indicates how important a slot is to a complete brief.
type Priority string

const (
	// PriorityCritical slots must be filled before a conversation can
	// complete. Their calibrated confidence is capped (see calibration).
	PriorityCritical Priority = "critical"

	// PriorityImportant slots should be filled but do not block completion.
	PriorityImportant Priority = "important"

	// PriorityNice slots are opportunistic extras.
	PriorityNice Priority = "nice"
)

// Valid reports whether p is a known priority tier.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityImportant, PriorityNice:
		return true
	}
	return false
}

// Rank returns a numeric rank for tie-breaking (lower = more important).
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityImportant:
		return 1
	default:
		return 2
	}
}

// DefaultThreshold returns the minimum calibrated confidence required
// for slots of this tier when the schema does not set one explicitly.
func (p Priority) DefaultThreshold() float64 {
	switch p {
	case PriorityCritical:
		return 0.75
	case PriorityImportant:
		return 0.6
	default:
		return 0.5
	}
}

// ExplicitAsk controls whether a slot must be the subject of a direct
// question before its value counts.
type ExplicitAsk string

const (
	// ExplicitAskNone places no constraint on how the slot is filled.
	ExplicitAskNone ExplicitAsk = "none"

	// ExplicitAskOnce requires the slot to be explicitly asked at least
	// once during the conversation.
	ExplicitAskOnce ExplicitAsk = "must_ask_once"
)

// ValueKind discriminates the shape of a slot's extracted value.
type ValueKind string

const (
	ValueKindText       ValueKind = "text"
	ValueKindList       ValueKind = "list"
	ValueKindStructured ValueKind = "structured"
)

// SlotValue is a tagged variant holding one extracted value.
// Exactly one of Text, List, or Structured is meaningful, selected by Kind.
type SlotValue struct {
	Kind       ValueKind         `json:"kind" yaml:"kind"`
	Text       string            `json:"text,omitempty" yaml:"text,omitempty"`
	List       []string          `json:"list,omitempty" yaml:"list,omitempty"`
	Structured map[string]string `json:"structured,omitempty" yaml:"structured,omitempty"`
}

// TextValue builds a text-kinded SlotValue.
func TextValue(s string) SlotValue {
	return SlotValue{Kind: ValueKindText, Text: s}
}

// ListValue builds a list-kinded SlotValue.
func ListValue(items []string) SlotValue {
	return SlotValue{Kind: ValueKindList, List: items}
}

// StructuredValue builds a structured-kinded SlotValue.
func StructuredValue(fields map[string]string) SlotValue {
	return SlotValue{Kind: ValueKindStructured, Structured: fields}
}

// IsZero reports whether the value is unset.
func (v SlotValue) IsZero() bool {
	return v.Kind == ""
}

// String renders the value for display and for lexical comparison by
// heuristic scorers.
func (v SlotValue) String() string {
	switch v.Kind {
	case ValueKindText:
		return v.Text
	case ValueKindList:
		out := ""
		for i, item := range v.List {
			if i > 0 {
				out += "; "
			}
			out += item
		}
		return out
	case ValueKindStructured:
		out := ""
		first := true
		for k, val := range v.Structured {
			if !first {
				out += "; "
			}
			out += k + ": " + val
			first = false
		}
		return out
	default:
		return ""
	}
}

// SlotSchema declares one required information field. Schemas are
// immutable after load and shared read-only across conversations.
type SlotSchema struct {
	// Name is the unique key for this slot within a template.
	Name string `json:"name" yaml:"name"`

	// Priority is the tier: critical, important, or nice.
	Priority Priority `json:"priority" yaml:"priority"`

	// MinThreshold is the minimum calibrated confidence to accept a
	// value. Zero means "use the tier default".
	MinThreshold float64 `json:"min_threshold,omitempty" yaml:"min_threshold,omitempty"`

	// NoInference forbids filling this slot unless it was explicitly
	// asked on the current turn.
	NoInference bool `json:"no_inference,omitempty" yaml:"no_inference,omitempty"`

	// RequiresExplicitQuestion requires a one-time direct ask.
	RequiresExplicitQuestion ExplicitAsk `json:"requires_explicit_question,omitempty" yaml:"requires_explicit_question,omitempty"`

	// ValueType is the expected shape of extracted values.
	ValueType ValueKind `json:"value_type,omitempty" yaml:"value_type,omitempty"`
}

// Threshold returns the effective minimum confidence for this slot.
func (s SlotSchema) Threshold() float64 {
	if s.MinThreshold > 0 {
		return s.MinThreshold
	}
	return s.Priority.DefaultThreshold()
}

// Validate checks the schema for well-formedness.
func (s SlotSchema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("slot schema missing name")
	}
	if !s.Priority.Valid() {
		return fmt.Errorf("slot %q has unknown priority %q", s.Name, s.Priority)
	}
	if s.MinThreshold < 0 || s.MinThreshold > 1 {
		return fmt.Errorf("slot %q min_threshold %.2f outside [0,1]", s.Name, s.MinThreshold)
	}
	switch s.RequiresExplicitQuestion {
	case "", ExplicitAskNone, ExplicitAskOnce:
	default:
		return fmt.Errorf("slot %q has unknown requires_explicit_question %q", s.Name, s.RequiresExplicitQuestion)
	}
	switch s.ValueType {
	case "", ValueKindText, ValueKindList, ValueKindStructured:
	default:
		return fmt.Errorf("slot %q has unknown value_type %q", s.Name, s.ValueType)
	}
	return nil
}
