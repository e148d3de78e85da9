package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/persona"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

const missionPrompt = `🎯 YOUR MISSION:
Help users share their information naturally through engaging conversation to match them with the perfect mentor.

📋 REQUIRED INFORMATION TO COLLECT:
- name: Their full name
- email: Valid email address for communication
- interests: Skills/areas they want to develop (programming, design, business, etc.)
- experience: Current level (beginner, intermediate, advanced)
- goals: What they hope to achieve through mentoring
- availability: Time they can dedicate to mentoring
- preferences: Any specific mentor preferences (optional)
- age: Their age (optional but helpful)

🗣️ CONVERSATION STYLE:
- Speak naturally like a friendly human, not a formal assistant
- Show genuine curiosity about their journey and aspirations
- Ask follow-up questions that flow naturally from their responses
- Keep responses concise but meaningful (2-4 sentences max)

🚫 CRITICAL - NEVER DO THESE:
- Ask for information you already have (check collected info below!)
- Repeat questions you've already asked
- Ask multiple questions at once
- Be pushy about information they haven't shared yet`

// BuildSystemPrompt renders the assistant instructions for the current profile.
func BuildSystemPrompt(p *persona.Persona, collected profile.Profile, focus []profile.Field) string {
	var b strings.Builder

	name, title, tone := "Maya", "MentorCloud Assistant", "warm, genuinely curious and encouraging"
	if p != nil {
		name, title = p.Name, p.Title
		if strings.TrimSpace(p.Tone) != "" {
			tone = p.Tone
		}
	}

	fmt.Fprintf(&b, "You are %s, the %s. Your personality is %s.", name, title, tone)
	if p != nil && strings.TrimSpace(p.PromptHint) != "" {
		b.WriteString("\n")
		b.WriteString(p.PromptHint)
	}
	if p != nil && len(p.Traits) > 0 {
		fmt.Fprintf(&b, "\nTraits: %s.", strings.Join(p.Traits, ", "))
	}

	b.WriteString("\n\n")
	b.WriteString(missionPrompt)
	b.WriteString("\n")
	b.WriteString(describeCollected(collected))
	b.WriteString(describeFocus(focus))
	b.WriteString("\n\nIMPORTANT: Always check the information already collected above before asking any questions. If you have their name, use it!")
	return b.String()
}

func describeCollected(collected profile.Profile) string {
	filled := profile.Profile{}
	for field, value := range collected {
		if !value.Empty() {
			filled[field] = value
		}
	}
	if len(filled) == 0 {
		return "\nThis is the beginning of the conversation."
	}
	data, err := json.MarshalIndent(filled, "", "  ")
	if err != nil {
		return "\nThis is the beginning of the conversation."
	}
	return "\nInformation already collected: " + string(data)
}

func describeFocus(focus []profile.Field) string {
	if len(focus) == 0 {
		return "\nAll information collected - prepare for completion."
	}
	names := make([]string, len(focus))
	for i, field := range focus {
		names[i] = string(field)
	}
	return "\nNext priority: Focus on collecting " + strings.Join(names, " and ")
}
