package extract

import (
	"reflect"
	"testing"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

func TestExtractName(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"Hi, my name is Ada Lovelace.", "Ada Lovelace"},
		{"call me Grace", "Grace"},
		{"Linus Torvalds", "Linus Torvalds"},
		{"hello", ""},
		{"ok", ""},
		{"Al", ""},
		{"I'm 25 years old", ""},
	}
	for _, tc := range cases {
		got := Extract(tc.message, profile.Profile{}).Get(profile.FieldName).String()
		if got != tc.want {
			t.Errorf("Extract(%q) name = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestExtractKeepsKnownName(t *testing.T) {
	prior := profile.Profile{profile.FieldName: profile.Text("Ada")}
	got := Extract("call me Grace", prior)
	if name := got.Get(profile.FieldName).String(); name != "Ada" {
		t.Fatalf("known name replaced with %q", name)
	}
}

func TestExtractEmailAndAgeOverwrite(t *testing.T) {
	prior := profile.Profile{
		profile.FieldEmail: profile.Text("old@example.com"),
		profile.FieldAge:   profile.Text("30"),
	}
	got := Extract("reach me at new.person+mc@example.org, I'm 31", prior)

	if email := got.Get(profile.FieldEmail).String(); email != "new.person+mc@example.org" {
		t.Fatalf("email = %q", email)
	}
	if age := got.Get(profile.FieldAge).String(); age != "31" {
		t.Fatalf("age = %q", age)
	}
}

func TestExtractAgeBounds(t *testing.T) {
	for message, want := range map[string]string{
		"I am 12":        "",
		"I am 13":        "13",
		"I am 99":        "99",
		"born in 1990":   "",
		"about 45 or so": "45",
	} {
		got := Extract(message, profile.Profile{}).Get(profile.FieldAge).String()
		if got != want {
			t.Errorf("Extract(%q) age = %q, want %q", message, got, want)
		}
	}
}

func TestExtractExperience(t *testing.T) {
	cases := map[string]string{
		"I'm just starting out":                "beginner",
		"I have some experience with Go":       "intermediate",
		"I'm an expert in distributed systems": "advanced",
		"nothing relevant":                     "",
	}
	for message, want := range cases {
		got := Extract(message, profile.Profile{}).Get(profile.FieldExperience).String()
		if got != want {
			t.Errorf("Extract(%q) experience = %q, want %q", message, got, want)
		}
	}
}

func TestExtractInterestsKeywords(t *testing.T) {
	got := Extract("I love programming and graphic design", profile.Profile{})
	interests := got.Get(profile.FieldInterests)
	if !interests.IsList() {
		t.Fatalf("keyword interests should be a list, got %#v", interests)
	}
	want := []string{"programming", "design", "graphic design"}
	if !reflect.DeepEqual(interests.List, want) {
		t.Fatalf("interests = %v, want %v", interests.List, want)
	}
}

func TestExtractInterestsDescriptiveFallback(t *testing.T) {
	msg := "I would like to improve my public speaking"
	got := Extract(msg, profile.Profile{})
	if interests := got.Get(profile.FieldInterests); interests.IsList() || interests.Text != msg {
		t.Fatalf("expected whole message as interests, got %#v", interests)
	}
}

func TestExtractShortMessageSkipsInterests(t *testing.T) {
	got := Extract("art", profile.Profile{})
	if got.Has(profile.FieldInterests) {
		t.Fatalf("short replies must not set interests: %#v", got)
	}
}

func TestExtractGoals(t *testing.T) {
	msg := "I want to become a staff engineer"
	got := Extract(msg, profile.Profile{})
	if goals := got.Get(profile.FieldGoals).String(); goals != msg {
		t.Fatalf("goals = %q", goals)
	}

	prior := profile.Profile{profile.FieldGoals: profile.Text("ship things")}
	if goals := Extract(msg, prior).Get(profile.FieldGoals).String(); goals != "ship things" {
		t.Fatalf("known goals replaced with %q", goals)
	}
}

func TestExtractAvailability(t *testing.T) {
	cases := map[string]string{
		"I can do 5 hours per week":   "5 hours per week",
		"Mostly weekends work for me": "weekends",
		"I'm part-time at the moment": "part-time",
		"whenever really":             "",
	}
	for message, want := range cases {
		got := Extract(message, profile.Profile{}).Get(profile.FieldAvailability).String()
		if got != want {
			t.Errorf("Extract(%q) availability = %q, want %q", message, got, want)
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	prior := profile.Profile{profile.FieldName: profile.Text("Ada")}
	msg := "I'm a beginner who wants to learn backend programming, weekends, ada@example.com, 28"

	first := Extract(msg, prior)
	for i := 0; i < 20; i++ {
		if again := Extract(msg, prior); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %#v vs %#v", i, first, again)
		}
	}
	if len(prior) != 1 {
		t.Fatalf("prior profile mutated: %#v", prior)
	}
}
