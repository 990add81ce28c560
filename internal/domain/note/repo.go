package note

import (
	"context"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

// EMR is the slice of the EMR client the synchronization engine uses.
type EMR interface {
	GetEncounter(ctx context.Context, id string) (*emr.Encounter, error)
	SearchEncounters(ctx context.Context, patientID, typeID string) ([]emr.Encounter, error)
	CreateEncounter(ctx context.Context, enc *emr.Encounter) (*emr.Encounter, error)

	SearchObservations(ctx context.Context, encounterID, conceptID string) ([]emr.Observation, error)
	CreateObservation(ctx context.Context, obs *emr.Observation) (*emr.Observation, error)
	UpdateObservation(ctx context.Context, obs *emr.Observation) error

	CreateOrder(ctx context.Context, order *emr.OrderPayload) error

	ListDiagnoses(ctx context.Context, encounterID string) ([]emr.DiagnosisRecord, error)
	CreateDiagnosis(ctx context.Context, d *emr.DiagnosisPayload) error
	DeleteDiagnosis(ctx context.Context, id string) error
}

// Resolver translates free-text vocabulary into coded identifiers.
type Resolver interface {
	Concept(ctx context.Context, name string) (string, error)
	Drug(ctx context.Context, name, strength string) (string, error)
}
