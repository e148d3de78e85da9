package chat

import "time"

// Mode selects which conversation driver runs a session.
type Mode string

const (
	// ModeLinear walks the static question flow table.
	ModeLinear Mode = "linear"
	// ModeAssistant lets the LLM lead while the extractor fills the profile.
	ModeAssistant Mode = "assistant"
)

// Valid reports whether m names a known driver.
func (m Mode) Valid() bool {
	return m == ModeLinear || m == ModeAssistant
}

// Session captures a transient anonymous onboarding conversation.
type Session struct {
	ID           string    `json:"id"`
	PersonaID    string    `json:"personaId"`
	Mode         Mode      `json:"mode"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}
