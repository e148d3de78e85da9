package conversation

import (
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/analysis/extract"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/flow"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

var (
	// AssistantRequired gates completion of LLM-led conversations.
	AssistantRequired = []profile.Field{
		profile.FieldName,
		profile.FieldEmail,
		profile.FieldInterests,
		profile.FieldExperience,
		profile.FieldGoals,
		profile.FieldAvailability,
	}
	// AssistantOptional is asked for once the required fields are in.
	AssistantOptional = []profile.Field{profile.FieldPreferences, profile.FieldAge}
)

// focusWidth is how many missing fields the model is steered towards per turn.
const focusWidth = 2

// Plan is the extraction result for one user message, not yet committed.
type Plan struct {
	Profile  profile.Profile
	Missing  []profile.Field
	Focus    []profile.Field
	Complete bool
}

// Assistant tracks the profile of an LLM-led conversation.
type Assistant struct {
	required   []profile.Field
	optional   []profile.Field
	profile    profile.Profile
	summarized bool
}

// NewAssistant builds a driver gated on required. A nil required set falls
// back to AssistantRequired; optional defaults likewise.
func NewAssistant(required, optional []profile.Field) *Assistant {
	if required == nil {
		required = AssistantRequired
	}
	if optional == nil {
		optional = AssistantOptional
	}
	return &Assistant{
		required: append([]profile.Field(nil), required...),
		optional: append([]profile.Field(nil), optional...),
		profile:  profile.Profile{},
	}
}

// Plan extracts fields from text against the committed profile.
// It has no side effects.
func (a *Assistant) Plan(text string) Plan {
	candidate := extract.Extract(text, a.profile)
	missing := candidate.Missing(a.required, a.optional)

	focus := missing
	if len(focus) > focusWidth {
		focus = focus[:focusWidth]
	}

	return Plan{
		Profile:  candidate,
		Missing:  missing,
		Focus:    append([]profile.Field(nil), focus...),
		Complete: candidate.Complete(a.required),
	}
}

// Commit merges a plan into the profile. The summary card is returned the
// first time the profile becomes complete and never again.
func (a *Assistant) Commit(plan Plan) (summary string, ok bool) {
	a.profile = a.profile.Merge(plan.Profile)
	if a.summarized || !a.Complete() {
		return "", false
	}
	a.summarized = true
	return profile.Card(a.profile), true
}

func (a *Assistant) Profile() profile.Profile {
	return a.profile.Clone()
}

func (a *Assistant) Complete() bool {
	return a.profile.Complete(a.required)
}

// Finished is true once the summary has been delivered.
func (a *Assistant) Finished() bool {
	return a.summarized
}

func (a *Assistant) Missing() []profile.Field {
	return a.profile.Missing(a.required, a.optional)
}

func (a *Assistant) Progress() int {
	return a.profile.Progress(a.required)
}

func (a *Assistant) Input() Input {
	if a.summarized {
		return Input{Disabled: true}
	}
	return Input{Kind: flow.InputText}
}
