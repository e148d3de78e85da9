package flow

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

// InputKind tells the renderer which widget a step needs.
type InputKind string

const (
	InputText        InputKind = "text"
	InputMultiSelect InputKind = "multiSelect"
)

// Step is one question/response unit of the questionnaire.
type Step struct {
	Field         profile.Field `yaml:"field" json:"field"`
	Prompt        string        `yaml:"prompt" json:"prompt"`
	Input         InputKind     `yaml:"input" json:"input"`
	Options       []string      `yaml:"options,omitempty" json:"options,omitempty"`
	MaxSelections int           `yaml:"maxSelections,omitempty" json:"maxSelections,omitempty"`
	Optional      bool          `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// Limit is the effective selection cap of a multi-select step.
func (s Step) Limit() int {
	if s.MaxSelections <= 0 {
		return len(s.Options)
	}
	return s.MaxSelections
}

// Flow is the static questionnaire. It is never modified after Load.
type Flow struct {
	ID         string          `yaml:"id" json:"id"`
	Required   []profile.Field `yaml:"required" json:"required"`
	Completion string          `yaml:"completion" json:"completion"`
	Steps      []Step          `yaml:"steps" json:"steps"`
}

// Optional lists fields asked by the flow that are not required.
func (f *Flow) Optional() []profile.Field {
	required := make(map[profile.Field]struct{}, len(f.Required))
	for _, field := range f.Required {
		required[field] = struct{}{}
	}
	var optional []profile.Field
	for _, step := range f.Steps {
		if _, ok := required[step.Field]; !ok {
			optional = append(optional, step.Field)
		}
	}
	return optional
}

//go:embed default_flow.yaml
var defaultFlow []byte

var ErrInvalidFlow = errors.New("invalid flow")

// Default returns the questionnaire bundled with the binary.
func Default() *Flow {
	f, err := Parse(defaultFlow)
	if err != nil {
		panic(fmt.Sprintf("embedded flow is broken: %v", err))
	}
	return f
}

// Load reads a flow from path, or returns the default flow when path is empty.
func Load(path string) (*Flow, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML flow definition.
func Parse(data []byte) (*Flow, error) {
	var f Flow
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlow, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Flow) validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidFlow)
	}

	asked := make(map[profile.Field]Step, len(f.Steps))
	for i, step := range f.Steps {
		if step.Field == "" {
			return fmt.Errorf("%w: step %d has no field", ErrInvalidFlow, i)
		}
		if _, dup := asked[step.Field]; dup {
			return fmt.Errorf("%w: field %q asked twice", ErrInvalidFlow, step.Field)
		}
		if strings.TrimSpace(step.Prompt) == "" {
			return fmt.Errorf("%w: step %q has no prompt", ErrInvalidFlow, step.Field)
		}
		switch step.Input {
		case InputText:
		case InputMultiSelect:
			if len(step.Options) == 0 {
				return fmt.Errorf("%w: multi-select step %q has no options", ErrInvalidFlow, step.Field)
			}
			if step.MaxSelections < 0 || step.MaxSelections > len(step.Options) {
				return fmt.Errorf("%w: step %q maxSelections %d out of range", ErrInvalidFlow, step.Field, step.MaxSelections)
			}
		default:
			return fmt.Errorf("%w: step %q has unknown input %q", ErrInvalidFlow, step.Field, step.Input)
		}
		asked[step.Field] = step
	}

	for _, field := range f.Required {
		step, ok := asked[field]
		if !ok {
			return fmt.Errorf("%w: required field %q is never asked", ErrInvalidFlow, field)
		}
		if step.Optional {
			return fmt.Errorf("%w: required field %q is asked by an optional step", ErrInvalidFlow, field)
		}
	}
	return nil
}
