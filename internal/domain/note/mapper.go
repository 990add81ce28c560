package note

import (
	"time"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

// Pure payload builders. Nothing in this file performs I/O; every coded
// identifier is resolved by the orchestrator and passed in.

// ResolvedOrder carries the coded identifiers the orchestrator resolved for
// one medication order.
type ResolvedOrder struct {
	Drug         string
	DoseUnit     string
	Route        string
	Frequency    string
	DurationUnit string
	QuantityUnit string
}

// Refs holds the EMR reference identifiers the mapping layer needs. They come
// from configuration and never change at runtime.
type Refs struct {
	VisitTypeID           string
	NoteEncounterTypeID   string
	OrderEncounterTypeID  string
	ClinicalNoteConceptID string
	DrugOrderTypeID       string
	CareSettingID         string
	LocationID            string
	ProviderID            string
}

func encounterType(typeID string) []emr.CodeableConcept {
	return []emr.CodeableConcept{{Coding: []emr.Coding{{Code: typeID}}}}
}

// VisitEncounter builds the parent visit resource.
func VisitEncounter(patientID string, refs Refs, start time.Time) *emr.Encounter {
	return &emr.Encounter{
		ResourceType: "Encounter",
		Status:       "in-progress",
		Class:        &emr.Coding{System: "http://terminology.hl7.org/CodeSystem/v3-ActCode", Code: "AMB"},
		Type:         encounterType(refs.VisitTypeID),
		Subject:      &emr.Reference{Reference: "Patient/" + patientID},
		Period:       &emr.Period{Start: start.UTC().Format(time.RFC3339)},
		Location: []emr.EncounterLocation{
			{Location: emr.Reference{Reference: "Location/" + refs.LocationID}},
		},
	}
}

// ChildEncounter builds a sub-encounter (note record or order attachment
// point) linked to its parent visit via partOf.
func ChildEncounter(patientID, visitID, typeID string, refs Refs, start time.Time) *emr.Encounter {
	return &emr.Encounter{
		ResourceType: "Encounter",
		Status:       "in-progress",
		Class:        &emr.Coding{System: "http://terminology.hl7.org/CodeSystem/v3-ActCode", Code: "AMB"},
		Type:         encounterType(typeID),
		Subject:      &emr.Reference{Reference: "Patient/" + patientID},
		Period:       &emr.Period{Start: start.UTC().Format(time.RFC3339)},
		PartOf:       &emr.Reference{Reference: "Encounter/" + visitID},
		Location: []emr.EncounterLocation{
			{Location: emr.Reference{Reference: "Location/" + refs.LocationID}},
		},
	}
}

// NoteObservation builds the narrative observation attached to a note record.
func NoteObservation(patientID, noteRecordID string, refs Refs, markdown string) *emr.Observation {
	return &emr.Observation{
		ResourceType: "Observation",
		Status:       "final",
		Code:         &emr.CodeableConcept{Coding: []emr.Coding{{Code: refs.ClinicalNoteConceptID}}},
		Subject:      &emr.Reference{Reference: "Patient/" + patientID},
		Encounter:    &emr.Reference{Reference: "Encounter/" + noteRecordID},
		ValueString:  markdown,
	}
}

// OrderPayload maps one medication order onto the legacy drug-order write
// body, substituting the resolved coded identifiers for every vocabulary
// field.
func OrderPayload(m MedicationOrder, r ResolvedOrder, patientID, encounterID string, refs Refs) *emr.OrderPayload {
	return &emr.OrderPayload{
		Type:                "drugorder",
		Patient:             patientID,
		Encounter:           encounterID,
		OrderType:           refs.DrugOrderTypeID,
		CareSetting:         refs.CareSettingID,
		Orderer:             refs.ProviderID,
		Drug:                r.Drug,
		Dose:                m.DoseValue,
		DoseUnits:           r.DoseUnit,
		Route:               r.Route,
		Frequency:           r.Frequency,
		Duration:            m.DurationValue,
		DurationUnits:       r.DurationUnit,
		Quantity:            m.DispenseQuantity,
		QuantityUnits:       r.QuantityUnit,
		NumRefills:          m.Refills,
		DosingInstructions:  m.Instructions,
		AsNeeded:            m.AsNeeded(),
		AsNeededCondition:   m.AsNeededReason,
		OrderReasonNonCoded: m.Indication,
	}
}

// DiagnosisPayload maps one diagnosis onto the legacy write body. A resolved
// concept goes in coded form; an empty codedID degrades to free text. Rank
// maps primary to 1, everything else to 0.
func DiagnosisPayload(d Diagnosis, codedID, patientID, encounterID string) *emr.DiagnosisPayload {
	p := &emr.DiagnosisPayload{
		Certainty: "CONFIRMED",
		Patient:   patientID,
		Encounter: encounterID,
	}
	if d.Certainty == CertaintyProvisional {
		p.Certainty = "PROVISIONAL"
	}
	if d.Rank == RankPrimary {
		p.Rank = 1
	}
	if codedID != "" {
		p.Diagnosis = emr.CodedOrFreeText{Coded: codedID}
	} else {
		p.Diagnosis = emr.CodedOrFreeText{NonCoded: d.Name}
	}
	return p
}
