// Package conversation holds the onboarding drivers: a linear walk over the
// question flow table and an LLM-led variant fed by the field extractor.
// Drivers are plain state machines; they never block and never touch I/O.
package conversation

import (
	"errors"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/flow"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

var (
	ErrEmptyReply      = errors.New("reply is empty")
	ErrNotMultiSelect  = errors.New("current step does not accept selections")
	ErrUnknownOption   = errors.New("unknown option")
	ErrSelectionLimit  = errors.New("selection limit reached")
	ErrEmptySelection  = errors.New("select at least one option")
	ErrConversationEnd = errors.New("conversation already finished")
)

// ValidationRetry is the reply sent when an answer does not fit the step.
const ValidationRetry = "I didn't quite catch that. Could you please try again?"

// Input tells the renderer which widget to show next.
type Input struct {
	Kind          flow.InputKind `json:"kind,omitempty"`
	Field         profile.Field  `json:"field,omitempty"`
	Options       []string       `json:"options,omitempty"`
	Selected      []string       `json:"selected,omitempty"`
	MaxSelections int            `json:"maxSelections,omitempty"`
	Optional      bool           `json:"optional,omitempty"`
	Disabled      bool           `json:"disabled"`
}

// Turn is the outcome of one user action.
type Turn struct {
	Replies  []string
	Profile  profile.Profile
	Complete bool
	Input    Input
}

// Driver is the read side shared by both conversation modes.
type Driver interface {
	Profile() profile.Profile
	Complete() bool
	Finished() bool
	Input() Input
	Missing() []profile.Field
	Progress() int
}
