package conversation

import (
	"reflect"
	"strings"
	"testing"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

func TestAssistantPlanHasNoSideEffects(t *testing.T) {
	a := NewAssistant(nil, nil)
	plan := a.Plan("Hi, I'm Ada and my email is ada@example.com")

	if !plan.Profile.Has(profile.FieldEmail) {
		t.Fatalf("plan should carry the extracted email: %#v", plan.Profile)
	}
	if a.Profile().Has(profile.FieldEmail) {
		t.Fatal("Plan must not commit")
	}
	if want := []profile.Field{profile.FieldInterests, profile.FieldExperience}; !reflect.DeepEqual(plan.Focus, want) {
		t.Fatalf("focus = %v, want %v", plan.Focus, want)
	}
}

func TestAssistantSummaryExactlyOnce(t *testing.T) {
	a := NewAssistant(nil, nil)
	messages := []string{
		"My name is Ada Lovelace",
		"ada@example.com",
		"I'm a beginner interested in backend programming",
		"I want to become a staff engineer",
	}
	for _, msg := range messages {
		if _, ok := a.Commit(a.Plan(msg)); ok {
			t.Fatalf("summary emitted before the profile was complete (after %q)", msg)
		}
	}
	if a.Complete() || a.Progress() != 83 {
		t.Fatalf("complete=%v progress=%d profile=%#v", a.Complete(), a.Progress(), a.Profile())
	}

	summary, ok := a.Commit(a.Plan("evenings work best"))
	if !ok || !strings.Contains(summary, "• Availability: evenings") {
		t.Fatalf("expected summary on completion, got %q %v", summary, ok)
	}
	if !a.Finished() || !a.Input().Disabled {
		t.Fatal("assistant should be finished after the summary")
	}

	if _, ok := a.Commit(a.Plan("also I'm 30")); ok {
		t.Fatal("summary emitted twice")
	}
}

func TestAssistantCustomRequiredSet(t *testing.T) {
	a := NewAssistant([]profile.Field{profile.FieldName}, []profile.Field{})
	summary, ok := a.Commit(a.Plan("call me Grace"))
	if !ok || !strings.Contains(summary, "Grace") {
		t.Fatalf("expected completion with only name required, got %q", summary)
	}
	if len(a.Missing()) != 0 {
		t.Fatalf("missing = %v", a.Missing())
	}
}
