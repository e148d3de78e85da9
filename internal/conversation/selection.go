package conversation

import (
	"strings"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/flow"
)

// Selection tracks the options picked on a multi-select step.
// Picks keep insertion order so deselecting the last pick restores the prior state.
type Selection struct {
	options []string
	limit   int
	picked  []string
}

// NewSelection starts an empty selection for step.
func NewSelection(step flow.Step) *Selection {
	return &Selection{
		options: append([]string(nil), step.Options...),
		limit:   step.Limit(),
	}
}

// Toggle selects option, or deselects it when already picked.
// Selecting past the limit fails and leaves the selection unchanged.
func (s *Selection) Toggle(option string) error {
	canonical, ok := s.lookup(option)
	if !ok {
		return ErrUnknownOption
	}
	for i, picked := range s.picked {
		if picked == canonical {
			s.picked = append(s.picked[:i:i], s.picked[i+1:]...)
			return nil
		}
	}
	if len(s.picked) >= s.limit {
		return ErrSelectionLimit
	}
	s.picked = append(s.picked, canonical)
	return nil
}

// Values returns a copy of the picked options.
func (s *Selection) Values() []string {
	return append([]string{}, s.picked...)
}

// Len is the number of picked options.
func (s *Selection) Len() int {
	return len(s.picked)
}

// Limit is the maximum number of picks.
func (s *Selection) Limit() int {
	return s.limit
}

// Parse picks every option named in a comma separated answer, stopping at the limit.
func (s *Selection) Parse(answer string) {
	for _, part := range strings.Split(answer, ",") {
		canonical, ok := s.lookup(part)
		if !ok || s.has(canonical) {
			continue
		}
		if len(s.picked) >= s.limit {
			return
		}
		s.picked = append(s.picked, canonical)
	}
}

func (s *Selection) has(option string) bool {
	for _, picked := range s.picked {
		if picked == option {
			return true
		}
	}
	return false
}

func (s *Selection) lookup(option string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(option))
	if needle == "" {
		return "", false
	}
	for _, candidate := range s.options {
		if strings.ToLower(candidate) == needle {
			return candidate, true
		}
	}
	return "", false
}
