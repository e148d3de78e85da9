package conversation

import (
	"strings"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/flow"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

const skipWord = "skip"

// Linear walks a flow table one step per accepted answer.
type Linear struct {
	flow      *flow.Flow
	index     int
	profile   profile.Profile
	selection *Selection
	finished  bool
}

// NewLinear positions a driver on the first step of f.
func NewLinear(f *flow.Flow) *Linear {
	l := &Linear{flow: f, profile: profile.Profile{}}
	l.resetSelection()
	return l
}

// Start renders the opening prompt.
func (l *Linear) Start() string {
	step, _ := l.Step()
	return flow.Render(step.Prompt, l.profile)
}

// Step returns the step awaiting an answer.
func (l *Linear) Step() (flow.Step, bool) {
	if l.finished || l.index >= len(l.flow.Steps) {
		return flow.Step{}, false
	}
	return l.flow.Steps[l.index], true
}

// Index is the position of the current step in the flow table.
func (l *Linear) Index() int {
	return l.index
}

func (l *Linear) Profile() profile.Profile {
	return l.profile.Clone()
}

// Complete reports whether every required field of the flow is filled.
func (l *Linear) Complete() bool {
	return l.profile.Complete(l.flow.Required)
}

// Finished reports whether the driver stopped asking questions.
func (l *Linear) Finished() bool {
	return l.finished
}

func (l *Linear) Missing() []profile.Field {
	return l.profile.Missing(l.flow.Required, l.flow.Optional())
}

func (l *Linear) Progress() int {
	return l.profile.Progress(l.flow.Required)
}

func (l *Linear) Input() Input {
	step, ok := l.Step()
	if !ok {
		return Input{Disabled: true}
	}
	in := Input{
		Kind:     step.Input,
		Field:    step.Field,
		Optional: step.Optional,
	}
	if step.Input == flow.InputMultiSelect {
		in.Options = append([]string(nil), step.Options...)
		in.Selected = l.selection.Values()
		in.MaxSelections = step.Limit()
	}
	return in
}

// Answer consumes a free-text reply for the current step.
// Once the flow is finished it returns an empty turn without error.
func (l *Linear) Answer(text string) (Turn, error) {
	step, ok := l.Step()
	if !ok {
		return l.turn(nil), nil
	}

	answer := strings.TrimSpace(text)
	if answer == "" {
		return Turn{}, ErrEmptyReply
	}

	if step.Optional && strings.EqualFold(answer, skipWord) {
		return l.turn(l.advance()), nil
	}

	switch step.Input {
	case flow.InputMultiSelect:
		sel := NewSelection(step)
		sel.Parse(answer)
		if sel.Len() == 0 {
			return l.turn([]string{ValidationRetry}), nil
		}
		l.profile = l.profile.With(step.Field, profile.List(sel.Values()...))
	default:
		if !profile.Validate(step.Field, answer) {
			return l.turn([]string{ValidationRetry}), nil
		}
		if step.Field == profile.FieldExperience {
			answer = strings.ToLower(answer)
		}
		l.profile = l.profile.With(step.Field, profile.Text(answer))
	}

	return l.turn(l.advance()), nil
}

// Toggle flips option on the current multi-select step.
func (l *Linear) Toggle(option string) (Input, error) {
	step, ok := l.Step()
	if !ok {
		return l.Input(), ErrConversationEnd
	}
	if step.Input != flow.InputMultiSelect {
		return l.Input(), ErrNotMultiSelect
	}
	if err := l.selection.Toggle(option); err != nil {
		return l.Input(), err
	}
	return l.Input(), nil
}

// Submit commits the toggled options and advances.
func (l *Linear) Submit() (Turn, error) {
	step, ok := l.Step()
	if !ok {
		return l.turn(nil), nil
	}
	if step.Input != flow.InputMultiSelect {
		return Turn{}, ErrNotMultiSelect
	}
	if l.selection.Len() == 0 {
		if !step.Optional {
			return Turn{}, ErrEmptySelection
		}
		return l.turn(l.advance()), nil
	}

	l.profile = l.profile.With(step.Field, profile.List(l.selection.Values()...))
	return l.turn(l.advance()), nil
}

// advance moves past the current step and returns the bot replies for the
// new position: the next prompt, or the completion summary exactly once.
func (l *Linear) advance() []string {
	l.index++
	if !l.Complete() && l.index < len(l.flow.Steps) {
		l.resetSelection()
		return []string{flow.Render(l.flow.Steps[l.index].Prompt, l.profile)}
	}

	l.finished = true
	l.selection = nil
	if !l.Complete() {
		return nil
	}
	replies := []string{profile.Card(l.profile)}
	if completion := strings.TrimSpace(l.flow.Completion); completion != "" {
		replies = append(replies, flow.Render(completion, l.profile))
	}
	return replies
}

func (l *Linear) resetSelection() {
	if l.index < len(l.flow.Steps) && l.flow.Steps[l.index].Input == flow.InputMultiSelect {
		l.selection = NewSelection(l.flow.Steps[l.index])
		return
	}
	l.selection = nil
}

func (l *Linear) turn(replies []string) Turn {
	return Turn{
		Replies:  replies,
		Profile:  l.Profile(),
		Complete: l.Complete(),
		Input:    l.Input(),
	}
}
