package profile

import (
	"fmt"
	"strings"
)

var cardRows = []struct {
	field Field
	label string
}{
	{FieldName, "Name"},
	{FieldEmail, "Email"},
	{FieldInterests, "Interests"},
	{FieldExperience, "Experience Level"},
	{FieldGoals, "Goals"},
	{FieldAvailability, "Availability"},
	{FieldAge, "Age"},
	{FieldPreferences, "Preferences"},
}

// Card renders the completion summary for a finished profile.
func Card(p Profile) string {
	rows := make([]string, 0, len(cardRows))
	for _, row := range cardRows {
		if p.Has(row.field) {
			rows = append(rows, fmt.Sprintf("• %s: %s", row.label, p.Get(row.field).String()))
		}
	}

	name := orDefault(p, FieldName, "there")
	interests := orDefault(p, FieldInterests, "journey")

	var b strings.Builder
	b.WriteString("Perfect! 🎉 Here's what I've learned about you:\n\n")
	b.WriteString(strings.Join(rows, "\n"))
	fmt.Fprintf(&b, "\n\nThanks for sharing your story with me, %s! ", name)
	fmt.Fprintf(&b, "I'm excited to help you find a mentor who can support your %s. ", interests)
	b.WriteString("Our team will review your information and match you with someone amazing.")
	if p.Has(FieldEmail) {
		fmt.Fprintf(&b, " You'll hear from us soon at %s!", p.Get(FieldEmail).String())
	}
	return b.String()
}

func orDefault(p Profile, field Field, fallback string) string {
	if p.Has(field) {
		return p.Get(field).String()
	}
	return fallback
}
