// Package note implements the encounter/note/order synchronization engine:
// mapping one flat note submission onto the EMR's layered resource graph
// (parent visit, child note encounter, narrative observation, order
// sub-encounters, diagnosis records) and rebuilding the readable note view
// from those resources.
package note

import (
	"encoding/json"
	"strings"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

type Certainty string

const (
	CertaintyConfirmed   Certainty = "confirmed"
	CertaintyProvisional Certainty = "provisional"
)

type Rank string

const (
	RankPrimary   Rank = "primary"
	RankSecondary Rank = "secondary"
)

type Diagnosis struct {
	Name      string    `json:"name"`
	Certainty Certainty `json:"certainty"`
	Rank      Rank      `json:"rank"`
}

type MedicationOrder struct {
	Drug             string  `json:"drug"`
	Strength         string  `json:"strength"`
	DoseValue        float64 `json:"dose_value"`
	DoseUnit         string  `json:"dose_unit"`
	Route            string  `json:"route"`
	Frequency        string  `json:"frequency"`
	DurationValue    int     `json:"duration_value,omitempty"`
	DurationUnit     string  `json:"duration_unit,omitempty"`
	DispenseQuantity float64 `json:"dispense_quantity,omitempty"`
	DispenseUnit     string  `json:"dispense_unit,omitempty"`
	Refills          int     `json:"refills"`
	Instructions     string  `json:"instructions,omitempty"`
	AsNeededReason   string  `json:"as_needed_reason,omitempty"`
	Indication       string  `json:"indication,omitempty"`
}

// AsNeeded reports whether the order is PRN: true iff the as-needed reason,
// trimmed, is non-empty.
func (m MedicationOrder) AsNeeded() bool {
	return strings.TrimSpace(m.AsNeededReason) != ""
}

// Content is the clinical narrative of a submission. Callers send either a
// plain string or a structured object with named sections; both decode into
// this one fixed schema, so the section-to-heading mapping is explicit and
// testable field by field.
type Content struct {
	Text                    string `json:"text,omitempty"`
	ChiefComplaint          string `json:"chief_complaint,omitempty"`
	HistoryOfPresentIllness string `json:"history_of_present_illness,omitempty"`
	ReviewOfSystems         string `json:"review_of_systems,omitempty"`
	PhysicalExam            string `json:"physical_exam,omitempty"`
	Assessment              string `json:"assessment,omitempty"`
	Plan                    string `json:"plan,omitempty"`
}

func (c *Content) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Content{Text: s}
		return nil
	}
	type alias Content
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = Content(a)
	return nil
}

// sections in rendering order, paired with their markdown headings.
var sections = []struct {
	heading string
	value   func(Content) string
}{
	{"Chief Complaint", func(c Content) string { return c.ChiefComplaint }},
	{"History of Present Illness", func(c Content) string { return c.HistoryOfPresentIllness }},
	{"Review of Systems", func(c Content) string { return c.ReviewOfSystems }},
	{"Physical Exam", func(c Content) string { return c.PhysicalExam }},
	{"Assessment", func(c Content) string { return c.Assessment }},
	{"Plan", func(c Content) string { return c.Plan }},
}

// Markdown renders the narrative. Plain text passes through verbatim;
// structured sections render under fixed headings in a fixed order, empty
// sections omitted.
func (c Content) Markdown() string {
	if c.Text != "" {
		return c.Text
	}
	var parts []string
	for _, s := range sections {
		if v := strings.TrimSpace(s.value(c)); v != "" {
			parts = append(parts, "## "+s.heading+"\n\n"+v)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (c Content) IsEmpty() bool {
	return c.Markdown() == ""
}

// Submission is one inbound note submission. VisitID empty means a new visit
// is created; non-empty means the existing visit is updated in place.
type Submission struct {
	PatientID   string            `json:"patient_id"`
	VisitID     string            `json:"visit_id,omitempty"`
	Title       string            `json:"note_title,omitempty"`
	Note        Content           `json:"note"`
	Diagnoses   []Diagnosis       `json:"diagnoses,omitempty"`
	Medications []MedicationOrder `json:"medications,omitempty"`
}

func (s *Submission) Validate() error {
	if s.VisitID == "" && s.PatientID == "" {
		return &emr.ValidationError{Field: "patient_id", Message: "required for a new visit"}
	}
	for i := range s.Diagnoses {
		d := &s.Diagnoses[i]
		if d.Name == "" {
			return &emr.ValidationError{Field: "diagnoses", Message: "name is required"}
		}
		switch d.Certainty {
		case CertaintyConfirmed, CertaintyProvisional:
		case "":
			d.Certainty = CertaintyConfirmed
		default:
			return &emr.ValidationError{Field: "diagnoses", Message: "certainty must be confirmed or provisional"}
		}
		switch d.Rank {
		case RankPrimary, RankSecondary:
		case "":
			d.Rank = RankSecondary
		default:
			return &emr.ValidationError{Field: "diagnoses", Message: "rank must be primary or secondary"}
		}
	}
	for i := range s.Medications {
		m := &s.Medications[i]
		if m.Drug == "" {
			return &emr.ValidationError{Field: "medications", Message: "drug is required"}
		}
		if m.DoseValue <= 0 || m.DoseUnit == "" {
			return &emr.ValidationError{Field: "medications", Message: "dose value and unit are required"}
		}
		if m.Route == "" || m.Frequency == "" {
			return &emr.ValidationError{Field: "medications", Message: "route and frequency are required"}
		}
	}
	return nil
}
