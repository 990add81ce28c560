package note

import (
	"context"
	"errors"
	"testing"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

func (m *mockEMR) seedChild(patientID, visitID, typeID string) string {
	id := m.nextID("enc")
	m.encounters[id] = &emr.Encounter{
		ID:      id,
		Subject: &emr.Reference{Reference: "Patient/" + patientID},
		Type:    encounterType(typeID),
		PartOf:  &emr.Reference{Reference: "Encounter/" + visitID},
	}
	return id
}

func TestNavigator_FindNoteEncounter(t *testing.T) {
	m := newMockEMR()
	nav := NewNavigator(m, "note-type", "order-type")

	visitA := m.seedVisit("pat-1")
	visitB := m.seedVisit("pat-1")
	// Same patient, same type, different parent: must not match visitA.
	m.seedChild("pat-1", visitB, "note-type")
	// Right parent, wrong type: must not match either.
	m.seedChild("pat-1", visitA, "order-type")
	wantID := m.seedChild("pat-1", visitA, "note-type")

	rec, patientID, err := nav.FindNoteEncounter(context.Background(), visitA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil || rec.ID != wantID {
		t.Errorf("rec = %+v, want id %s", rec, wantID)
	}
	if patientID != "pat-1" {
		t.Errorf("patientID = %s, want pat-1", patientID)
	}
}

func TestNavigator_FindNoteEncounter_None(t *testing.T) {
	m := newMockEMR()
	nav := NewNavigator(m, "note-type", "order-type")
	visitID := m.seedVisit("pat-1")

	rec, patientID, err := nav.FindNoteEncounter(context.Background(), visitID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("rec = %+v, want nil for a visit without a note record", rec)
	}
	if patientID != "pat-1" {
		t.Errorf("patientID = %s, want pat-1 even without a note record", patientID)
	}
}

func TestNavigator_FindOrderEncounters(t *testing.T) {
	m := newMockEMR()
	nav := NewNavigator(m, "note-type", "order-type")

	visitA := m.seedVisit("pat-1")
	visitB := m.seedVisit("pat-1")
	first := m.seedChild("pat-1", visitA, "order-type")
	second := m.seedChild("pat-1", visitA, "order-type")
	m.seedChild("pat-1", visitB, "order-type")

	got, err := nav.FindOrderEncounters(context.Background(), visitA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d order encounters, want 2", len(got))
	}
	ids := map[string]bool{got[0].ID: true, got[1].ID: true}
	if !ids[first] || !ids[second] {
		t.Errorf("ids = %v, want {%s, %s}", ids, first, second)
	}
}

func TestNavigator_UnknownVisit(t *testing.T) {
	m := newMockEMR()
	nav := NewNavigator(m, "note-type", "order-type")

	_, _, err := nav.FindNoteEncounter(context.Background(), "ghost")
	var nf *emr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
}

func TestNavigator_VisitWithoutSubject(t *testing.T) {
	m := newMockEMR()
	nav := NewNavigator(m, "note-type", "order-type")
	m.encounters["broken"] = &emr.Encounter{ID: "broken", Type: encounterType("visit-type")}

	_, _, err := nav.FindNoteEncounter(context.Background(), "broken")
	var nf *emr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError for a subjectless visit, got %v", err)
	}
}
