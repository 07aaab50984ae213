package models

import (
	"strings"
	"testing"
)

func TestPriorityDefaultThresholds(t *testing.T) {
	tests := []struct {
		priority Priority
		want     float64
	}{
		{PriorityCritical, 0.75},
		{PriorityImportant, 0.6},
		{PriorityNice, 0.5},
	}
	for _, tt := range tests {
		if got := tt.priority.DefaultThreshold(); got != tt.want {
			t.Errorf("%s.DefaultThreshold() = %v, want %v", tt.priority, got, tt.want)
		}
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	if !(PriorityCritical.Rank() < PriorityImportant.Rank() && PriorityImportant.Rank() < PriorityNice.Rank()) {
		t.Error("priority ranks not strictly ordered critical < important < nice")
	}
}

func TestSlotSchemaThresholdOverride(t *testing.T) {
	s := SlotSchema{Name: "budget", Priority: PriorityImportant, MinThreshold: 0.7}
	if got := s.Threshold(); got != 0.7 {
		t.Errorf("Threshold() = %v, want explicit 0.7", got)
	}
	s.MinThreshold = 0
	if got := s.Threshold(); got != 0.6 {
		t.Errorf("Threshold() = %v, want tier default 0.6", got)
	}
}

func TestSlotSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  SlotSchema
		wantErr string
	}{
		{"valid", SlotSchema{Name: "goal", Priority: PriorityCritical}, ""},
		{"missing name", SlotSchema{Priority: PriorityCritical}, "missing name"},
		{"bad priority", SlotSchema{Name: "goal", Priority: "urgent"}, "unknown priority"},
		{"threshold out of range", SlotSchema{Name: "goal", Priority: PriorityNice, MinThreshold: 1.5}, "min_threshold"},
		{"bad explicit ask", SlotSchema{Name: "goal", Priority: PriorityNice, RequiresExplicitQuestion: "always"}, "requires_explicit_question"},
		{"bad value type", SlotSchema{Name: "goal", Priority: PriorityNice, ValueType: "blob"}, "value_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestSlotValueString(t *testing.T) {
	tests := []struct {
		value SlotValue
		want  string
	}{
		{SlotValue{}, ""},
		{TextValue("launch in november"), "launch in november"},
		{ListValue([]string{"alerts", "reports"}), "alerts; reports"},
		{StructuredValue(map[string]string{"amount": "50000"}), "amount: 50000"},
	}
	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSlotValueIsZero(t *testing.T) {
	if !(SlotValue{}).IsZero() {
		t.Error("zero SlotValue not reported as zero")
	}
	if TextValue("").IsZero() {
		t.Error("text-kinded value reported as zero")
	}
}

func TestConfidenceFeaturesClamp(t *testing.T) {
	f := ConfidenceFeatures{
		Self:          1.7,
		Validator:     -0.3,
		AnswerQuality: 0.5,
		Novelty:       2.0,
		Consistency:   -1,
		EvidenceSpans: -2,
	}.Clamp()
	if f.Self != 1 || f.Validator != 0 || f.Novelty != 1 || f.Consistency != 0 {
		t.Errorf("Clamp() = %+v, want fields clamped to [0,1]", f)
	}
	if f.EvidenceSpans != 0 {
		t.Errorf("EvidenceSpans = %d, want floored at 0", f.EvidenceSpans)
	}
	if f.AnswerQuality != 0.5 {
		t.Errorf("AnswerQuality = %v, want 0.5 untouched", f.AnswerQuality)
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{3.7, 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
