package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/briefloop/briefloop/internal/models"
)

func validTemplate() *Template {
	return &Template{
		Name:    "test",
		Version: "1.0.0",
		Slots: []models.SlotSchema{
			{Name: "goal", Priority: models.PriorityCritical},
			{Name: "budget", Priority: models.PriorityImportant},
		},
		Questions: []models.CandidateQuestion{
			{ID: "q1", Text: "What is the goal?", Slot: "goal", Topic: "scope"},
			{ID: "q2", Text: "What is the budget?", Slot: "budget", Topic: "constraints"},
		},
	}
}

func TestTemplateValidate(t *testing.T) {
	if err := validTemplate().Validate(); err != nil {
		t.Fatalf("Validate() error on valid template: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Template)
		wantErr string
	}{
		{"missing name", func(tm *Template) { tm.Name = "" }, "missing name"},
		{"no slots", func(tm *Template) { tm.Slots = nil }, "no slots"},
		{"duplicate slot", func(tm *Template) {
			tm.Slots = append(tm.Slots, models.SlotSchema{Name: "goal", Priority: models.PriorityNice})
		}, "duplicate slot"},
		{"invalid slot", func(tm *Template) { tm.Slots[0].Priority = "urgent" }, "unknown priority"},
		{"question without id", func(tm *Template) { tm.Questions[0].ID = "" }, "no id"},
		{"duplicate question id", func(tm *Template) { tm.Questions[1].ID = "q1" }, "duplicate question id"},
		{"question without text", func(tm *Template) { tm.Questions[0].Text = "" }, "no text"},
		{"question targets unknown slot", func(tm *Template) { tm.Questions[0].Slot = "missing" }, "unknown slot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := validTemplate()
			tt.mutate(tmpl)
			err := tmpl.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
name: minimal
version: "1"
slots:
  - name: goal
    priority: critical
questions:
  - id: q1
    text: What is the goal?
    slot: goal
    topic: scope
`)
	tmpl, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if tmpl.Name != "minimal" || len(tmpl.Slots) != 1 || len(tmpl.Questions) != 1 {
		t.Errorf("Parse() = %+v, want minimal template", tmpl)
	}
	if tmpl.Slots[0].Priority != models.PriorityCritical {
		t.Errorf("Priority = %q, want critical", tmpl.Slots[0].Priority)
	}

	if _, err := Parse([]byte("name: broken\nslots: []")); err == nil {
		t.Error("Parse() accepted a template with no slots")
	}
	if _, err := Parse([]byte(":::not yaml")); err == nil {
		t.Error("Parse() accepted malformed YAML")
	}
}

func TestLoadResolution(t *testing.T) {
	dir := t.TempDir()

	// Builtin name resolves when nothing is installed.
	tmpl, err := Load("project-brief", dir)
	if err != nil {
		t.Fatalf("Load(builtin) error: %v", err)
	}
	if tmpl.Name != "project-brief" {
		t.Errorf("Name = %q, want project-brief", tmpl.Name)
	}

	// An installed file with the same name takes precedence.
	custom := validTemplate()
	custom.Name = "project-brief"
	custom.Description = "customized"
	writeTemplate(t, filepath.Join(dir, TemplatesDirName), custom)

	tmpl, err = Load("project-brief", dir)
	if err != nil {
		t.Fatalf("Load(installed) error: %v", err)
	}
	if tmpl.Description != "customized" {
		t.Errorf("Description = %q, want installed file to win", tmpl.Description)
	}

	// Explicit paths load directly.
	path := filepath.Join(dir, TemplatesDirName, "project-brief.yaml")
	if _, err := Load(path, ""); err != nil {
		t.Errorf("Load(path) error: %v", err)
	}

	if _, err := Load("no-such-template", dir); err == nil {
		t.Error("Load(unknown) returned no error")
	}
}

func TestInstallIdempotent(t *testing.T) {
	dir := t.TempDir()

	written, err := Install(dir)
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if len(written) != len(Builtins()) {
		t.Fatalf("first Install() wrote %v, want all builtins", written)
	}

	// Second install is a no-op at the current version.
	written, err = Install(dir)
	if err != nil {
		t.Fatalf("second Install() error: %v", err)
	}
	if len(written) != 0 {
		t.Errorf("second Install() wrote %v, want nothing", written)
	}

	// User edits to a current-version template survive reinstall.
	path := filepath.Join(dir, TemplatesDirName, "project-brief.yaml")
	tmpl, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	tmpl.Description = "edited by hand"
	writeTemplate(t, filepath.Join(dir, TemplatesDirName), tmpl)

	if _, err := Install(dir); err != nil {
		t.Fatalf("third Install() error: %v", err)
	}
	reloaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() after reinstall error: %v", err)
	}
	if reloaded.Description != "edited by hand" {
		t.Error("reinstall clobbered a user-edited template")
	}
}

func TestBuiltinProjectBriefValidates(t *testing.T) {
	for _, tmpl := range Builtins() {
		if err := tmpl.Validate(); err != nil {
			t.Errorf("builtin %q invalid: %v", tmpl.Name, err)
		}
		if tmpl.Version != BuiltinVersion {
			t.Errorf("builtin %q version = %q, want %q", tmpl.Name, tmpl.Version, BuiltinVersion)
		}
	}

	tmpl, ok := Builtin("project-brief")
	if !ok {
		t.Fatal("project-brief builtin missing")
	}
	var criticals int
	for _, s := range tmpl.Slots {
		if s.Priority == models.PriorityCritical {
			criticals++
		}
	}
	if criticals == 0 {
		t.Error("project-brief has no critical slots")
	}
	if len(tmpl.Questions) < len(tmpl.Slots) {
		t.Errorf("question bank (%d) smaller than slot count (%d)", len(tmpl.Questions), len(tmpl.Slots))
	}
}

func writeTemplate(t *testing.T, dir string, tmpl *Template) {
	t.Helper()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	data, err := yaml.Marshal(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, tmpl.Name+".yaml"), data, 0600); err != nil {
		t.Fatal(err)
	}
}
