package flow

import (
	"regexp"
	"strings"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
)

var placeholder = regexp.MustCompile(`\{([a-zA-Z_]+)(?:\|([^{}]*))?\}`)

// Render substitutes {field} and {field|fallback} placeholders with captured values.
func Render(template string, p profile.Profile) string {
	return placeholder.ReplaceAllStringFunc(template, func(token string) string {
		groups := placeholder.FindStringSubmatch(token)
		value := p.Get(profile.Field(groups[1]))
		if !value.Empty() {
			return strings.TrimSpace(value.String())
		}
		return groups[2]
	})
}
