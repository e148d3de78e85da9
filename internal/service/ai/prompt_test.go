package ai

import (
	"strings"
	"testing"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/persona"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

func TestBuildSystemPromptBeginning(t *testing.T) {
	maya := persona.Seed()[0]
	got := BuildSystemPrompt(&maya, profile.Profile{}, []profile.Field{profile.FieldName, profile.FieldEmail})

	for _, want := range []string{
		"You are Maya, the MentorCloud Assistant.",
		"This is the beginning of the conversation.",
		"Next priority: Focus on collecting name and email",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSystemPromptCollected(t *testing.T) {
	collected := profile.Profile{
		profile.FieldName:      profile.Text("Ada"),
		profile.FieldInterests: profile.List("design"),
		profile.FieldAge:       profile.Text(""),
	}
	got := BuildSystemPrompt(nil, collected, nil)

	if !strings.Contains(got, `"name": "Ada"`) || !strings.Contains(got, `"interests": [`) {
		t.Fatalf("collected info not rendered:\n%s", got)
	}
	if strings.Contains(got, `"age"`) {
		t.Fatal("empty fields must not be listed as collected")
	}
	if !strings.Contains(got, "All information collected - prepare for completion.") {
		t.Fatal("expected completion hint when nothing is left to focus on")
	}
}
