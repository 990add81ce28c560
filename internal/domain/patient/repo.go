package patient

import (
	"context"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

// EMR is the slice of the upstream client the read side needs.
type EMR interface {
	GetPatient(ctx context.Context, id string) (*emr.Patient, error)
	SearchPatients(ctx context.Context, name string) ([]emr.Patient, error)
	SearchEncounters(ctx context.Context, patientID, typeID string) ([]emr.Encounter, error)
	SearchActiveConditions(ctx context.Context, patientID string) ([]emr.Condition, error)
	SearchActiveMedicationRequests(ctx context.Context, patientID string) ([]emr.MedicationRequest, error)
}
