package patient

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

type Service struct {
	emr         EMR
	visitTypeID string
	log         zerolog.Logger
}

func NewService(emrClient EMR, visitTypeID string, log zerolog.Logger) *Service {
	return &Service{emr: emrClient, visitTypeID: visitTypeID, log: log}
}

// List searches patients by name and flattens the results.
func (s *Service) List(ctx context.Context, query string) ([]Patient, error) {
	found, err := s.emr.SearchPatients(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	out := make([]Patient, 0, len(found))
	for i := range found {
		out = append(out, FromFHIR(&found[i]))
	}
	return out, nil
}

// Visits returns the patient's visit-type encounters, newest first.
func (s *Service) Visits(ctx context.Context, patientID string) ([]VisitSummary, error) {
	if _, err := s.emr.GetPatient(ctx, patientID); err != nil {
		return nil, fmt.Errorf("fetch patient %s: %w", patientID, err)
	}
	encs, err := s.emr.SearchEncounters(ctx, patientID, s.visitTypeID)
	if err != nil {
		return nil, fmt.Errorf("search visits for patient %s: %w", patientID, err)
	}
	out := make([]VisitSummary, 0, len(encs))
	for i := range encs {
		out = append(out, VisitSummaryFromFHIR(&encs[i]))
	}
	// RFC 3339 strings sort chronologically as text.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Summary renders the patient's active conditions and active medications as
// markdown. The two upstream fetches are independent, so they run
// concurrently; this is the only concurrent EMR access in the bridge.
func (s *Service) Summary(ctx context.Context, patientID string) (string, error) {
	if _, err := s.emr.GetPatient(ctx, patientID); err != nil {
		return "", fmt.Errorf("fetch patient %s: %w", patientID, err)
	}

	var (
		conditions  []emr.Condition
		medications []emr.MedicationRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		conditions, err = s.emr.SearchActiveConditions(gctx, patientID)
		if err != nil {
			return fmt.Errorf("fetch conditions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		medications, err = s.emr.SearchActiveMedicationRequests(gctx, patientID)
		if err != nil {
			return fmt.Errorf("fetch medications: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("summary for patient %s: %w", patientID, err)
	}

	var sections []string
	if sec := conditionSection(conditions); sec != "" {
		sections = append(sections, sec)
	}
	if sec := medicationSection(medications); sec != "" {
		sections = append(sections, sec)
	}
	return strings.Join(sections, "\n\n---\n\n"), nil
}

func conditionSection(conditions []emr.Condition) string {
	var lines []string
	for _, c := range conditions {
		if name := conceptText(c.Code); name != "" {
			lines = append(lines, "- "+name)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "### Active Conditions\n\n" + strings.Join(lines, "\n")
}

func medicationSection(medications []emr.MedicationRequest) string {
	var lines []string
	for _, m := range medications {
		name := conceptText(m.MedicationCodeableConcept)
		if name == "" {
			continue
		}
		if len(m.DosageInstruction) > 0 && m.DosageInstruction[0].Text != "" {
			name += ": " + m.DosageInstruction[0].Text
		}
		lines = append(lines, "- "+name)
	}
	if len(lines) == 0 {
		return ""
	}
	return "### Active Medications\n\n" + strings.Join(lines, "\n")
}

func conceptText(cc *emr.CodeableConcept) string {
	if cc == nil {
		return ""
	}
	if cc.Text != "" {
		return cc.Text
	}
	if len(cc.Coding) > 0 {
		return cc.Coding[0].Display
	}
	return ""
}
