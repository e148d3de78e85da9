package flow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

func TestDefaultFlow(t *testing.T) {
	f := Default()
	if f.ID != "mentorcloud-linear" {
		t.Fatalf("unexpected flow id %q", f.ID)
	}
	if len(f.Steps) != 8 {
		t.Fatalf("expected 8 steps, got %d", len(f.Steps))
	}
	if f.Steps[0].Field != profile.FieldName {
		t.Fatalf("first step should ask the name, got %s", f.Steps[0].Field)
	}

	interests := f.Steps[4]
	if interests.Input != InputMultiSelect || interests.Limit() != 3 {
		t.Fatalf("unexpected interests step: %+v", interests)
	}

	optional := f.Optional()
	if len(optional) != 2 || optional[0] != profile.FieldAge || optional[1] != profile.FieldPreferences {
		t.Fatalf("expected age and preferences to be optional, got %v", optional)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.yaml")
	body := []byte(`
id: short
required: [name]
completion: done
steps:
  - field: name
    input: text
    prompt: "Name?"
  - field: interests
    input: multiSelect
    options: [a, b]
    prompt: "Pick"
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if f.ID != "short" || len(f.Steps) != 2 {
		t.Fatalf("unexpected flow: %+v", f)
	}
	if f.Steps[1].Limit() != 2 {
		t.Fatalf("zero maxSelections should default to all options, got %d", f.Steps[1].Limit())
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	f, err := Load("  ")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if f.ID != Default().ID {
		t.Fatalf("expected default flow, got %s", f.ID)
	}
}

func TestParseRejectsInvalidFlows(t *testing.T) {
	cases := map[string]string{
		"no steps":             `id: x`,
		"unknown input":        "steps:\n  - {field: name, input: slider, prompt: p}",
		"duplicate":            "steps:\n  - {field: name, input: text, prompt: p}\n  - {field: name, input: text, prompt: q}",
		"no options":           "steps:\n  - {field: interests, input: multiSelect, prompt: p}",
		"cap too large":        "steps:\n  - {field: interests, input: multiSelect, prompt: p, options: [a], maxSelections: 2}",
		"missing prompt":       "steps:\n  - {field: name, input: text}",
		"required never asked": "required: [email]\nsteps:\n  - {field: name, input: text, prompt: p}",
		"required optional":    "required: [name]\nsteps:\n  - {field: name, input: text, prompt: p, optional: true}",
		"not yaml":             "steps: [",
	}
	for name, body := range cases {
		if _, err := Parse([]byte(body)); !errors.Is(err, ErrInvalidFlow) {
			t.Errorf("%s: expected ErrInvalidFlow, got %v", name, err)
		}
	}
}

func TestRender(t *testing.T) {
	p := profile.Profile{
		profile.FieldName:      profile.Text("Ada"),
		profile.FieldInterests: profile.List("design", "ux"),
	}

	cases := []struct {
		template string
		want     string
	}{
		{"Hi {name}!", "Hi Ada!"},
		{"About {interests|these areas}?", "About design, ux?"},
		{"Mail {email|you}", "Mail you"},
		{"Mail {email}.", "Mail ."},
		{"No placeholders", "No placeholders"},
	}
	for _, tc := range cases {
		if got := Render(tc.template, p); got != tc.want {
			t.Errorf("Render(%q) = %q, want %q", tc.template, got, tc.want)
		}
	}
}
