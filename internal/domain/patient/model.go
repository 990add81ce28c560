// Package patient implements the read side of the bridge: patient lookup,
// past visit summaries, and the active-problem summary rendered for display.
package patient

import (
	"strings"
	"unicode"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

// Patient is the flattened view of a FHIR patient.
type Patient struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Identifier string `json:"identifier,omitempty"`
	Gender     string `json:"gender,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
}

// FromFHIR flattens a FHIR patient: first name entry's text, first identifier
// value, capitalized gender, birth date as-is.
func FromFHIR(p *emr.Patient) Patient {
	out := Patient{
		ID:        p.ID,
		Name:      "Unknown",
		Gender:    capitalize(p.Gender),
		BirthDate: p.BirthDate,
	}
	if len(p.Name) > 0 && p.Name[0].Text != "" {
		out.Name = p.Name[0].Text
	}
	if len(p.Identifier) > 0 {
		out.Identifier = p.Identifier[0].Value
	}
	return out
}

// VisitSummary is one past visit in list form.
type VisitSummary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Date  string `json:"date,omitempty"`
}

// VisitSummaryFromFHIR builds the list label "<type> - <location>" from
// whichever displays the encounter carries, and takes the date portion of the
// period end.
func VisitSummaryFromFHIR(enc *emr.Encounter) VisitSummary {
	var parts []string
	if len(enc.Type) > 0 && len(enc.Type[0].Coding) > 0 && enc.Type[0].Coding[0].Display != "" {
		parts = append(parts, enc.Type[0].Coding[0].Display)
	}
	if len(enc.Location) > 0 && enc.Location[0].Location.Display != "" {
		parts = append(parts, enc.Location[0].Location.Display)
	}

	out := VisitSummary{
		ID:    enc.ID,
		Label: strings.Join(parts, " - "),
	}
	if enc.Period != nil {
		out.Date = datePortion(enc.Period.End)
	}
	return out
}

func datePortion(dt string) string {
	if i := strings.IndexByte(dt, 'T'); i > 0 {
		return dt[:i]
	}
	return dt
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
