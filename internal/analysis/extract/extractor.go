package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:name is|i'm|i am|call me)\s+([a-zA-Z\s]{2,30})`),
	regexp.MustCompile(`^([a-zA-Z\s]{2,30})$`),
	regexp.MustCompile(`(?i)my name is ([a-zA-Z\s]{2,30})`),
}

// Short replies that look like names but are not.
var nameStopwords = map[string]struct{}{
	"hello": {}, "hi": {}, "hey": {}, "yes": {}, "no": {}, "ok": {}, "okay": {},
}

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	agePattern   = regexp.MustCompile(`\b(\d{2})\b`)
)

// Checked in order; the first level with a matching cue wins.
var experienceBuckets = []struct {
	level string
	cues  []string
}{
	{"beginner", []string{"beginner", "new", "starting"}},
	{"intermediate", []string{"intermediate", "some experience"}},
	{"advanced", []string{"advanced", "expert", "experienced"}},
}

var interestKeywords = []string{
	"programming", "coding", "design", "business", "marketing", "data", "science",
	"management", "leadership", "writing", "art", "music", "web development",
	"app development", "frontend", "backend", "fullstack", "ui", "ux", "graphic design",
}

var (
	learningCues = []string{"learn", "develop", "improve", "skill"}
	goalCues     = []string{"want", "goal", "achieve", "learn", "become", "improve"}
)

var availabilityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+[-\s]*hours?\s*(?:per\s*week|weekly)`),
	regexp.MustCompile(`(?i)\b(?:weekends?|evenings?|mornings?|flexible)\b`),
	regexp.MustCompile(`(?i)\b(?:full[- ]?time|part[- ]?time)\b`),
}

var cueCache = map[string]*regexp.Regexp{}

func init() {
	var all []string
	for _, bucket := range experienceBuckets {
		all = append(all, bucket.cues...)
	}
	all = append(all, interestKeywords...)
	all = append(all, learningCues...)
	all = append(all, goalCues...)
	for _, cue := range all {
		cueCache[cue] = regexp.MustCompile(`\b` + regexp.QuoteMeta(cue))
	}
}

// Extract pulls profile values out of a free-text reply and returns prior
// merged with whatever was found. It is pure: the same message and prior
// always yield the same profile, and prior itself is left untouched.
func Extract(message string, prior profile.Profile) profile.Profile {
	msg := strings.TrimSpace(message)
	lower := strings.ToLower(msg)
	found := profile.Profile{}

	if !prior.Has(profile.FieldName) {
		if name, ok := extractName(msg); ok {
			found[profile.FieldName] = profile.Text(name)
		}
	}

	if email := emailPattern.FindString(msg); email != "" {
		found[profile.FieldEmail] = profile.Text(email)
	}

	if m := agePattern.FindStringSubmatch(msg); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil && age >= 13 && age <= 99 {
			found[profile.FieldAge] = profile.Text(m[1])
		}
	}

	if !prior.Has(profile.FieldExperience) {
		if level, ok := extractExperience(lower); ok {
			found[profile.FieldExperience] = profile.Text(level)
		}
	}

	length := utf8.RuneCountInString(msg)
	if !prior.Has(profile.FieldInterests) && length > 10 {
		if interests := matchAll(lower, interestKeywords); len(interests) > 0 {
			found[profile.FieldInterests] = profile.List(interests...)
		} else if length > 20 && containsAny(lower, learningCues) {
			found[profile.FieldInterests] = profile.Text(msg)
		}
	}

	if !prior.Has(profile.FieldGoals) && containsAny(lower, goalCues) {
		found[profile.FieldGoals] = profile.Text(msg)
	}

	if !prior.Has(profile.FieldAvailability) {
		for _, pattern := range availabilityPatterns {
			if m := pattern.FindString(msg); m != "" {
				found[profile.FieldAvailability] = profile.Text(m)
				break
			}
		}
	}

	return prior.Merge(found)
}

func extractName(msg string) (string, bool) {
	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		name := strings.Join(strings.Fields(m[1]), " ")
		if len(name) <= 2 {
			continue
		}
		if _, stop := nameStopwords[strings.ToLower(name)]; stop {
			continue
		}
		return name, true
	}
	return "", false
}

func extractExperience(lower string) (string, bool) {
	for _, bucket := range experienceBuckets {
		if containsAny(lower, bucket.cues) {
			return bucket.level, true
		}
	}
	return "", false
}

func containsAny(lower string, cues []string) bool {
	for _, cue := range cues {
		if cueCache[cue].MatchString(lower) {
			return true
		}
	}
	return false
}

func matchAll(lower string, keywords []string) []string {
	var out []string
	for _, keyword := range keywords {
		if cueCache[keyword].MatchString(lower) {
			out = append(out, keyword)
		}
	}
	return out
}
