package profile

import (
	"regexp"
	"strconv"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ExperienceLevels are the accepted experience answers.
var ExperienceLevels = []string{"beginner", "intermediate", "advanced"}

// Validate checks a candidate answer for field. Unknown fields always pass.
func Validate(field Field, value string) bool {
	v := strings.TrimSpace(value)
	switch field {
	case FieldName:
		return len(v) >= 2
	case FieldEmail:
		return emailPattern.MatchString(v)
	case FieldAge:
		age, err := strconv.Atoi(v)
		return err == nil && age >= 13 && age <= 100
	case FieldExperience:
		lower := strings.ToLower(v)
		for _, level := range ExperienceLevels {
			if lower == level {
				return true
			}
		}
		return false
	case FieldInterests, FieldAvailability:
		return len(v) >= 3
	case FieldGoals:
		return len(v) >= 5
	case FieldPreferences:
		return v == "" || len(v) >= 3
	default:
		return true
	}
}
