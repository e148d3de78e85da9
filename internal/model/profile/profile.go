package profile

import (
	"encoding/json"
	"strings"
)

// Field names a profile attribute.
type Field string

const (
	FieldName         Field = "name"
	FieldEmail        Field = "email"
	FieldAge          Field = "age"
	FieldExperience   Field = "experience"
	FieldInterests    Field = "interests"
	FieldGoals        Field = "goals"
	FieldAvailability Field = "availability"
	FieldPreferences  Field = "preferences"
)

// Value holds either free text or the options picked on a multi-select step.
type Value struct {
	Text string
	List []string
}

// Text wraps a free-text answer.
func Text(s string) Value {
	return Value{Text: s}
}

// List wraps multi-select answers.
func List(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{List: list}
}

// IsList reports whether the value came from a multi-select step.
func (v Value) IsList() bool {
	return v.List != nil
}

// Empty reports whether the value carries no content.
func (v Value) Empty() bool {
	if v.IsList() {
		for _, item := range v.List {
			if strings.TrimSpace(item) != "" {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(v.Text) == ""
}

// String flattens the value; lists are joined with ", ".
func (v Value) String() string {
	if v.IsList() {
		return strings.Join(v.List, ", ")
	}
	return v.Text
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsList() {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		if list == nil {
			list = []string{}
		}
		*v = Value{List: list}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*v = Value{Text: text}
	return nil
}

// Profile is the structured record collected about a user.
// Operations return copies; a Profile handed out is never changed afterwards.
type Profile map[Field]Value

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for field, value := range p {
		if value.IsList() {
			value = List(value.List...)
		}
		out[field] = value
	}
	return out
}

// Get returns the value stored for field, or the zero Value.
func (p Profile) Get(field Field) Value {
	return p[field]
}

// Has reports whether field holds a non-empty value.
func (p Profile) Has(field Field) bool {
	return !p[field].Empty()
}

// With returns a copy of p with field set to value.
func (p Profile) With(field Field, value Value) Profile {
	out := p.Clone()
	out[field] = value
	return out
}

// Merge overlays the non-empty values of other onto a copy of p.
// Empty values never erase what was already collected.
func (p Profile) Merge(other Profile) Profile {
	out := p.Clone()
	for field, value := range other {
		if value.Empty() {
			continue
		}
		if value.IsList() {
			value = List(value.List...)
		}
		out[field] = value
	}
	return out
}

// Complete reports whether every required field is non-empty.
func (p Profile) Complete(required []Field) bool {
	for _, field := range required {
		if !p.Has(field) {
			return false
		}
	}
	return true
}

// Missing lists missing required fields followed by missing optional ones.
func (p Profile) Missing(required, optional []Field) []Field {
	missing := make([]Field, 0, len(required)+len(optional))
	for _, field := range required {
		if !p.Has(field) {
			missing = append(missing, field)
		}
	}
	for _, field := range optional {
		if !p.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// Progress is the share of required fields collected, in percent.
func (p Profile) Progress(required []Field) int {
	if len(required) == 0 {
		return 100
	}
	filled := 0
	for _, field := range required {
		if p.Has(field) {
			filled++
		}
	}
	pct := filled * 100 / len(required)
	if pct > 100 {
		pct = 100
	}
	return pct
}
