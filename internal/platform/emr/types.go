package emr

import "encoding/json"

// ---------------------------------------------------------------------------
// FHIR R4 wire types, narrowed to the fields this integration reads and writes
// ---------------------------------------------------------------------------

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

type Identifier struct {
	Use    string `json:"use,omitempty"`
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// Period keeps FHIR dateTimes as strings; the EMR emits RFC 3339 and the
// integration only ever needs the date portion.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type Patient struct {
	ResourceType string       `json:"resourceType,omitempty"`
	ID           string       `json:"id"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Name         []HumanName  `json:"name,omitempty"`
	Gender       string       `json:"gender,omitempty"`
	BirthDate    string       `json:"birthDate,omitempty"`
}

type Encounter struct {
	ResourceType string              `json:"resourceType,omitempty"`
	ID           string              `json:"id,omitempty"`
	Status       string              `json:"status,omitempty"`
	Class        *Coding             `json:"class,omitempty"`
	Type         []CodeableConcept   `json:"type,omitempty"`
	Subject      *Reference          `json:"subject,omitempty"`
	Period       *Period             `json:"period,omitempty"`
	Location     []EncounterLocation `json:"location,omitempty"`
	PartOf       *Reference          `json:"partOf,omitempty"`
}

type EncounterLocation struct {
	Location Reference `json:"location"`
}

type Observation struct {
	ResourceType string           `json:"resourceType,omitempty"`
	ID           string           `json:"id,omitempty"`
	Status       string           `json:"status,omitempty"`
	Code         *CodeableConcept `json:"code,omitempty"`
	Subject      *Reference       `json:"subject,omitempty"`
	Encounter    *Reference       `json:"encounter,omitempty"`
	ValueString  string           `json:"valueString,omitempty"`
}

type Condition struct {
	ResourceType   string           `json:"resourceType,omitempty"`
	ID             string           `json:"id,omitempty"`
	ClinicalStatus *CodeableConcept `json:"clinicalStatus,omitempty"`
	Code           *CodeableConcept `json:"code,omitempty"`
	Subject        *Reference       `json:"subject,omitempty"`
	RecordedDate   string           `json:"recordedDate,omitempty"`
}

type MedicationRequest struct {
	ResourceType              string           `json:"resourceType,omitempty"`
	ID                        string           `json:"id,omitempty"`
	Status                    string           `json:"status,omitempty"`
	MedicationCodeableConcept *CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	Subject                   *Reference       `json:"subject,omitempty"`
	DosageInstruction         []Dosage         `json:"dosageInstruction,omitempty"`
}

type Dosage struct {
	Text string `json:"text,omitempty"`
}

// Bundle is a FHIR search result page. Entries are kept raw; typed decoding
// happens per search helper.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type,omitempty"`
	Total        int           `json:"total,omitempty"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource"`
}

// NextURL returns the bundle's "next" page link, or "" on the last page.
func (b *Bundle) NextURL() string {
	for _, l := range b.Link {
		if l.Relation == "next" {
			return l.URL
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Legacy REST types (orders, diagnoses, vocabulary search)
// ---------------------------------------------------------------------------

// ConceptRef is one hit from the legacy concept or drug search.
type ConceptRef struct {
	UUID    string `json:"uuid"`
	Display string `json:"display"`
}

type restListResponse struct {
	Results []json.RawMessage `json:"results"`
	Links   []BundleLink      `json:"links,omitempty"`
}

// OrderPayload is the legacy drug-order write body. All *Units, Route,
// Frequency and Drug fields carry resolved coded identifiers, never free text.
type OrderPayload struct {
	Type                string  `json:"type"`
	Patient             string  `json:"patient"`
	Encounter           string  `json:"encounter"`
	OrderType           string  `json:"orderType"`
	CareSetting         string  `json:"careSetting"`
	Orderer             string  `json:"orderer"`
	Drug                string  `json:"drug"`
	Dose                float64 `json:"dose"`
	DoseUnits           string  `json:"doseUnits"`
	Route               string  `json:"route"`
	Frequency           string  `json:"frequency"`
	Duration            int     `json:"duration,omitempty"`
	DurationUnits       string  `json:"durationUnits,omitempty"`
	Quantity            float64 `json:"quantity,omitempty"`
	QuantityUnits       string  `json:"quantityUnits,omitempty"`
	NumRefills          int     `json:"numRefills"`
	DosingInstructions  string  `json:"dosingInstructions,omitempty"`
	AsNeeded            bool    `json:"asNeeded"`
	AsNeededCondition   string  `json:"asNeededCondition,omitempty"`
	OrderReasonNonCoded string  `json:"orderReasonNonCoded,omitempty"`
}

// CodedOrFreeText carries a diagnosis either as a resolved concept or, when
// resolution failed, as free text.
type CodedOrFreeText struct {
	Coded    string `json:"coded,omitempty"`
	NonCoded string `json:"nonCoded,omitempty"`
}

// DiagnosisPayload is the legacy patient-diagnosis write body.
type DiagnosisPayload struct {
	Diagnosis CodedOrFreeText `json:"diagnosis"`
	Certainty string          `json:"certainty"`
	Rank      int             `json:"rank"`
	Patient   string          `json:"patient"`
	Encounter string          `json:"encounter"`
}

// DiagnosisRecord is a stored patient diagnosis as returned by the legacy
// list endpoint.
type DiagnosisRecord struct {
	UUID      string          `json:"uuid"`
	Display   string          `json:"display"`
	Diagnosis CodedOrFreeText `json:"diagnosis"`
	Certainty string          `json:"certainty"`
	Rank      int             `json:"rank"`
	Voided    bool            `json:"voided"`
}
