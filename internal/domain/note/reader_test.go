package note

import (
	"context"
	"strings"
	"testing"
)

func TestService_VisitNote_RoundTrip(t *testing.T) {
	svc, _ := newTestService()

	visitID, err := svc.Submit(context.Background(), &Submission{
		PatientID: "pat-1",
		Note:      Content{Text: "Patient reports mild cough."},
		Diagnoses: []Diagnosis{
			{Name: "Hypertension", Rank: RankPrimary},
			{Name: "Diabetes"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	md, found, err := svc.VisitNote(context.Background(), visitID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("found = false for a visit with a note record")
	}
	for _, want := range []string{
		"### Diagnoses",
		"- concept-htn (primary)",
		"- concept-dm",
		"### Clinical Note",
		"Patient reports mild cough.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if idx := strings.Index(md, "### Diagnoses"); idx > strings.Index(md, "### Clinical Note") {
		t.Error("diagnoses section must precede the note section")
	}
}

func TestService_VisitNote_PlaceholderSections(t *testing.T) {
	svc, m := newTestService()

	// A note record with neither observation nor diagnoses still yields a
	// complete view with both placeholders.
	visitID := m.seedVisit("pat-1")
	m.seedChild("pat-1", visitID, testRefs.NoteEncounterTypeID)

	md, found, err := svc.VisitNote(context.Background(), visitID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if !strings.Contains(md, "No diagnoses recorded.") {
		t.Errorf("missing diagnoses placeholder:\n%s", md)
	}
	if !strings.Contains(md, "No clinical note recorded.") {
		t.Errorf("missing note placeholder:\n%s", md)
	}
}

func TestService_VisitNote_NoNoteRecord(t *testing.T) {
	svc, m := newTestService()
	visitID := m.seedVisit("pat-1")

	md, found, err := svc.VisitNote(context.Background(), visitID)
	if err != nil {
		t.Fatalf("absence is not an error: %v", err)
	}
	if found {
		t.Error("found = true for a visit with no note record")
	}
	if md != "" {
		t.Errorf("markdown = %q, want empty", md)
	}
}
