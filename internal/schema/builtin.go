package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/briefloop/briefloop/internal/models"
)

// BuiltinVersion is the version of the built-in template definitions.
// Bump this when built-in content changes to trigger reinstalls.
const BuiltinVersion = "0.1.0"

// projectBrief is the default intake template for scoping a software
// project.
func projectBrief() *Template {
	return &Template{
		Name:        "project-brief",
		Version:     BuiltinVersion,
		Description: "Scope a software project: goal, users, constraints, and success criteria",
		Slots: []models.SlotSchema{
			{
				Name:     "project_goal",
				Priority: models.PriorityCritical,
			},
			{
				Name:     "target_users",
				Priority: models.PriorityCritical,
			},
			{
				Name:      "key_features",
				Priority:  models.PriorityImportant,
				ValueType: models.ValueKindList,
			},
			{
				Name:         "budget",
				Priority:     models.PriorityImportant,
				NoInference:  true,
				MinThreshold: 0.7,
			},
			{
				Name:                     "deadline",
				Priority:                 models.PriorityImportant,
				RequiresExplicitQuestion: models.ExplicitAskOnce,
			},
			{
				Name:     "success_criteria",
				Priority: models.PriorityImportant,
			},
			{
				Name:      "tech_constraints",
				Priority:  models.PriorityNice,
				ValueType: models.ValueKindList,
			},
			{
				Name:     "existing_systems",
				Priority: models.PriorityNice,
			},
		},
		Questions: []models.CandidateQuestion{
			{ID: "q-goal", Slot: "project_goal", Topic: "scope", Text: "What problem is this project trying to solve?"},
			{ID: "q-goal-outcome", Slot: "project_goal", Topic: "scope", Text: "What does a successful outcome look like for this project?"},
			{ID: "q-users", Slot: "target_users", Topic: "users", Text: "Who will be using this, and in what setting?"},
			{ID: "q-users-size", Slot: "target_users", Topic: "users", Text: "Roughly how many people do you expect to use it?"},
			{ID: "q-features", Slot: "key_features", Topic: "scope", Text: "What are the three most important things it needs to do?"},
			{ID: "q-budget", Slot: "budget", Topic: "constraints", Text: "Do you have a budget range in mind?"},
			{ID: "q-deadline", Slot: "deadline", Topic: "constraints", Text: "Is there a date this needs to be ready by?"},
			{ID: "q-success", Slot: "success_criteria", Topic: "scope", Text: "How will you measure whether the project worked?"},
			{ID: "q-tech", Slot: "tech_constraints", Topic: "constraints", Text: "Are there technologies you must use, or must avoid?"},
			{ID: "q-existing", Slot: "existing_systems", Topic: "constraints", Text: "Does this need to connect to any existing systems?"},
		},
	}
}

// Builtin returns the built-in template with the given name.
func Builtin(name string) (*Template, bool) {
	for _, t := range Builtins() {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Builtins returns all built-in templates.
func Builtins() []*Template {
	return []*Template{projectBrief()}
}

// Install writes the built-in templates into the templates directory
// under briefloopDir. Installation is idempotent: an existing file is
// rewritten only when its version differs from BuiltinVersion, so user
// edits to a current-version template survive. Returns the names of
// the templates written.
func Install(briefloopDir string) ([]string, error) {
	dir := filepath.Join(briefloopDir, TemplatesDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating templates directory: %w", err)
	}

	var written []string
	for _, t := range Builtins() {
		path := filepath.Join(dir, t.Name+".yaml")
		if existing, err := LoadFile(path); err == nil && existing.Version == t.Version {
			continue
		}
		data, err := yaml.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("marshaling template %q: %w", t.Name, err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return nil, fmt.Errorf("writing template %q: %w", t.Name, err)
		}
		written = append(written, t.Name)
	}
	return written, nil
}
