// Package schema loads and validates survey templates: the slot
// declarations and candidate question bank a conversation runs over.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/briefloop/briefloop/internal/models"
)

// Template bundles a named slot schema with its question bank.
type Template struct {
	// Name identifies the template (e.g. "project-brief").
	Name string `json:"name" yaml:"name"`

	// Version tracks template revisions for idempotent installs.
	Version string `json:"version" yaml:"version"`

	// Description is a short human-readable summary.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Slots declares the information fields to fill.
	Slots []models.SlotSchema `json:"slots" yaml:"slots"`

	// Questions is the candidate bank the selector draws from.
	Questions []models.CandidateQuestion `json:"questions" yaml:"questions"`
}

// Validate checks the template for well-formedness: unique slot names,
// valid slot declarations, and questions targeting known slots.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template missing name")
	}
	if len(t.Slots) == 0 {
		return fmt.Errorf("template %q has no slots", t.Name)
	}

	slotNames := make(map[string]bool, len(t.Slots))
	for _, s := range t.Slots {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("template %q: %w", t.Name, err)
		}
		if slotNames[s.Name] {
			return fmt.Errorf("template %q has duplicate slot %q", t.Name, s.Name)
		}
		slotNames[s.Name] = true
	}

	questionIDs := make(map[string]bool, len(t.Questions))
	for _, q := range t.Questions {
		if q.ID == "" {
			return fmt.Errorf("template %q has a question with no id", t.Name)
		}
		if questionIDs[q.ID] {
			return fmt.Errorf("template %q has duplicate question id %q", t.Name, q.ID)
		}
		questionIDs[q.ID] = true
		if q.Text == "" {
			return fmt.Errorf("template %q question %q has no text", t.Name, q.ID)
		}
		if q.Slot != "" && !slotNames[q.Slot] {
			return fmt.Errorf("template %q question %q targets unknown slot %q", t.Name, q.ID, q.Slot)
		}
	}
	return nil
}

// Parse decodes and validates a YAML template.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads and validates a template from a YAML file.
func LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	return Parse(data)
}

// TemplatesDirName is the subdirectory of a .briefloop directory that
// holds installed templates.
const TemplatesDirName = "templates"

// Load resolves a template by name: first as a file path, then as
// <name>.yaml under the templates directory, then as a built-in.
func Load(name, briefloopDir string) (*Template, error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return LoadFile(name)
	}
	if briefloopDir != "" {
		path := filepath.Join(briefloopDir, TemplatesDirName, name+".yaml")
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	if t, ok := Builtin(name); ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown template %q", name)
}
