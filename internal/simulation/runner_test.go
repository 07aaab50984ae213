package simulation_test

import (
	"context"
	"strings"
	"testing"

	"github.com/briefloop/briefloop/internal/completion"
	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/schema"
	"github.com/briefloop/briefloop/internal/simulation"
)

func projectBrief(t *testing.T) *schema.Template {
	t.Helper()
	tmpl, ok := schema.Builtin("project-brief")
	if !ok {
		t.Fatal("project-brief template missing")
	}
	return tmpl
}

// TestEngagedPersonaReachesCoverage validates the happy path: a
// cooperative respondent giving substantive answers fills the required
// slots and the conversation stops on coverage, well inside the turn
// budget.
func TestEngagedPersonaReachesCoverage(t *testing.T) {
	persona := simulation.ScriptedPersona{
		BySlot: map[string]simulation.Answer{
			"project_goal":     simulation.TextAnswer("We want a dashboard that shows live shipment status for the warehouse team.", 0.9),
			"target_users":     simulation.TextAnswer("About forty warehouse supervisors and floor leads across three sites.", 0.9),
			"key_features":     simulation.TextAnswer("Real-time shipment tracking, delay alerts, and a daily summary report.", 0.85),
			"budget":           simulation.TextAnswer("Our budget is around $50,000 for the first phase of the project.", 0.85),
			"deadline":         simulation.TextAnswer("It needs to be ready before the peak season starts on November 1st.", 0.85),
			"success_criteria": simulation.TextAnswer("Success means supervisors stop calling dispatch, so under 5 status calls per day.", 0.85),
		},
		Default: simulation.TextAnswer("Nothing special comes to mind there, we are flexible on that.", 0.7),
	}

	result, err := simulation.Run(context.Background(), simulation.Scenario{
		Name:     "engaged",
		Template: projectBrief(t),
		Persona:  persona,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.State.Status != models.StatusComplete {
		t.Fatalf("status = %q, want complete", result.State.Status)
	}
	if result.StopReason != completion.ReasonCoverageMet {
		t.Errorf("stop reason = %q, want %q", result.StopReason, completion.ReasonCoverageMet)
	}
	if cov := result.State.Coverage(); cov < 0.75 {
		t.Errorf("coverage = %.2f, want >= 0.75", cov)
	}
	if !result.State.CriticalFilled() {
		t.Error("critical slots not all filled at completion")
	}
	if len(result.Turns) == 0 || len(result.Turns) > 10 {
		t.Errorf("transcript length = %d, want within the 10-turn budget", len(result.Turns))
	}
	if result.QuestionTokens == 0 || result.AnswerTokens == 0 {
		t.Error("expected nonzero transcript token estimates")
	}
}

// TestDisengagedPersonaStopsEarly validates the bail-out path: a
// respondent who cannot answer anything trips the low-confidence
// streak after two rejected extractions instead of being dragged
// through the whole question bank.
func TestDisengagedPersonaStopsEarly(t *testing.T) {
	persona := simulation.ScriptedPersona{
		Default: simulation.DontKnow(),
	}

	result, err := simulation.Run(context.Background(), simulation.Scenario{
		Name:     "disengaged",
		Template: projectBrief(t),
		Persona:  persona,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.State.Status != models.StatusComplete {
		t.Fatalf("status = %q, want complete", result.State.Status)
	}
	if !strings.Contains(result.StopReason, completion.ReasonLowConfidence) {
		t.Errorf("stop reason = %q, want low-confidence streak", result.StopReason)
	}
	if len(result.Turns) != 2 {
		t.Errorf("transcript length = %d, want 2 (streak limit)", len(result.Turns))
	}
	for _, turn := range result.Turns {
		if turn.Accepted {
			t.Errorf("turn %d accepted a don't-know answer", turn.Turn)
		}
	}
}

// TestRunRejectsIncompleteScenario covers the scenario guard rails.
func TestRunRejectsIncompleteScenario(t *testing.T) {
	ctx := context.Background()

	if _, err := simulation.Run(ctx, simulation.Scenario{Name: "no-template", Persona: simulation.ScriptedPersona{}}); err == nil {
		t.Error("expected error for scenario without template")
	}
	if _, err := simulation.Run(ctx, simulation.Scenario{Name: "no-persona", Template: projectBrief(t)}); err == nil {
		t.Error("expected error for scenario without persona")
	}
}
