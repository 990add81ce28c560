package note

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

// Navigator locates child resources beneath a parent visit. The EMR's query
// model has no "children of encounter X" filter, so the navigator fetches
// every encounter of the wanted type for the visit's patient -- following
// pagination to exhaustion -- and scans the result client-side for entries
// whose partOf reference points at the visit. Cost is O(patient's total
// encounter count) per lookup, which is acceptable at this integration's
// scale but a known limit.
type Navigator struct {
	emr         EMR
	noteTypeID  string
	orderTypeID string
}

func NewNavigator(emrClient EMR, noteTypeID, orderTypeID string) *Navigator {
	return &Navigator{emr: emrClient, noteTypeID: noteTypeID, orderTypeID: orderTypeID}
}

// visitSubject fetches the parent visit and extracts its patient identifier.
func (n *Navigator) visitSubject(ctx context.Context, visitID string) (string, error) {
	visit, err := n.emr.GetEncounter(ctx, visitID)
	if err != nil {
		return "", fmt.Errorf("fetch visit %s: %w", visitID, err)
	}
	if visit.Subject == nil || visit.Subject.Reference == "" {
		return "", &emr.NotFoundError{Resource: "visit patient reference", ID: visitID}
	}
	return strings.TrimPrefix(visit.Subject.Reference, "Patient/"), nil
}

// FindNoteEncounter returns the visit's note record and the visit's patient
// identifier. The note record is nil when the visit has none yet.
func (n *Navigator) FindNoteEncounter(ctx context.Context, visitID string) (*emr.Encounter, string, error) {
	patientID, err := n.visitSubject(ctx, visitID)
	if err != nil {
		return nil, "", err
	}
	children, err := n.childrenOf(ctx, patientID, n.noteTypeID, visitID)
	if err != nil {
		return nil, "", err
	}
	if len(children) == 0 {
		return nil, patientID, nil
	}
	return &children[0], patientID, nil
}

// FindOrderEncounters returns every order sub-encounter beneath the visit.
func (n *Navigator) FindOrderEncounters(ctx context.Context, visitID string) ([]emr.Encounter, error) {
	patientID, err := n.visitSubject(ctx, visitID)
	if err != nil {
		return nil, err
	}
	return n.childrenOf(ctx, patientID, n.orderTypeID, visitID)
}

func (n *Navigator) childrenOf(ctx context.Context, patientID, typeID, visitID string) ([]emr.Encounter, error) {
	all, err := n.emr.SearchEncounters(ctx, patientID, typeID)
	if err != nil {
		return nil, fmt.Errorf("search encounters for patient %s: %w", patientID, err)
	}
	want := "Encounter/" + visitID
	var matches []emr.Encounter
	for _, enc := range all {
		if enc.PartOf != nil && enc.PartOf.Reference == want {
			matches = append(matches, enc)
		}
	}
	return matches, nil
}
