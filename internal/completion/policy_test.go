package completion

import (
	"strings"
	"testing"

	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/models"
)

func fourSlotState() *models.ConversationState {
	schema := []models.SlotSchema{
		{Name: "goal", Priority: models.PriorityCritical},
		{Name: "users", Priority: models.PriorityCritical},
		{Name: "budget", Priority: models.PriorityImportant},
		{Name: "deadline", Priority: models.PriorityImportant},
	}
	return models.NewConversationState("c1", "test", schema)
}

func fill(state *models.ConversationState, slots ...string) {
	for _, s := range slots {
		state.Slots[s].Value = models.TextValue("x")
		state.Slots[s].Confidence = 0.9
	}
}

func TestShouldContinueFreshConversation(t *testing.T) {
	p := NewPolicy(config.DefaultCompletionConfig())
	d := p.ShouldContinue(fourSlotState(), 0)
	if !d.Continue {
		t.Fatalf("fresh conversation stopped: %q", d.Reason)
	}
	if d.Coverage != 0 {
		t.Errorf("Coverage = %v, want 0", d.Coverage)
	}
}

func TestShouldContinueCoverageMet(t *testing.T) {
	p := NewPolicy(config.DefaultCompletionConfig())
	state := fourSlotState()
	fill(state, "goal", "users", "budget")

	d := p.ShouldContinue(state, 0)
	if d.Continue {
		t.Fatal("expected stop at 3/4 coverage with criticals filled")
	}
	if d.Reason != ReasonCoverageMet {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonCoverageMet)
	}
	if d.Coverage != 0.75 {
		t.Errorf("Coverage = %v, want 0.75", d.Coverage)
	}
}

func TestShouldContinueCoverageNeedsCriticals(t *testing.T) {
	// 3/4 coverage but one critical slot still empty: keep going.
	p := NewPolicy(config.DefaultCompletionConfig())
	state := fourSlotState()
	fill(state, "goal", "budget", "deadline")

	d := p.ShouldContinue(state, 0)
	if !d.Continue {
		t.Fatalf("stopped with unfilled critical slot: %q", d.Reason)
	}
}

func TestShouldContinueLowConfidenceStreak(t *testing.T) {
	p := NewPolicy(config.DefaultCompletionConfig())
	state := fourSlotState()
	state.LowConfStreak = 2

	d := p.ShouldContinue(state, 0)
	if d.Continue {
		t.Fatal("expected stop at low-confidence streak limit")
	}
	if !strings.Contains(d.Reason, ReasonLowConfidence) {
		t.Errorf("Reason = %q, want prefix %q", d.Reason, ReasonLowConfidence)
	}
	if !strings.Contains(d.Reason, "streak 2") {
		t.Errorf("Reason = %q, want streak count", d.Reason)
	}
}

func TestShouldContinueFatigueRequiresCoverage(t *testing.T) {
	p := NewPolicy(config.DefaultCompletionConfig())

	// High fatigue alone is not enough.
	state := fourSlotState()
	d := p.ShouldContinue(state, 0.9)
	if !d.Continue {
		t.Fatalf("stopped on fatigue without minimum coverage: %q", d.Reason)
	}

	// With minimum coverage but an unfilled critical, fatigue ends it.
	fill(state, "goal", "budget", "deadline")
	d = p.ShouldContinue(state, 0.9)
	if d.Continue {
		t.Fatal("expected fatigue stop at minimum coverage")
	}
	if d.Reason != ReasonFatigue {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonFatigue)
	}
}

func TestShouldContinueTurnBudget(t *testing.T) {
	p := NewPolicy(config.DefaultCompletionConfig())
	state := fourSlotState()
	state.Turn = 10

	d := p.ShouldContinue(state, 0)
	if d.Continue {
		t.Fatal("expected stop at turn budget")
	}
	if d.Reason != ReasonTurnBudget {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonTurnBudget)
	}
}

func TestShouldContinueCompleteStaysComplete(t *testing.T) {
	p := NewPolicy(config.DefaultCompletionConfig())
	state := fourSlotState()
	state.Status = models.StatusComplete
	state.StopReason = ReasonCoverageMet

	// Later conditions must not rewrite the original reason.
	state.Turn = 10
	state.LowConfStreak = 5

	d := p.ShouldContinue(state, 1.0)
	if d.Continue {
		t.Fatal("complete conversation resumed")
	}
	if d.Reason != ReasonCoverageMet {
		t.Errorf("Reason = %q, want original %q", d.Reason, ReasonCoverageMet)
	}
}

func TestNewPolicyZeroConfigUsesDefaults(t *testing.T) {
	p := NewPolicy(config.CompletionConfig{})
	state := fourSlotState()
	state.Turn = config.DefaultCompletionConfig().MaxTurns

	d := p.ShouldContinue(state, 0)
	if d.Continue {
		t.Fatal("zero-config policy has no turn budget")
	}
}
