package note

import (
	"context"
	"fmt"
	"strings"
)

const (
	noDiagnosesText = "No diagnoses recorded."
	noNoteText      = "No clinical note recorded."
)

// VisitNote rebuilds the readable note view for a visit by aggregating the
// note record's diagnoses and narrative observation. found is false only when
// the visit has no note record at all; otherwise the markdown always carries
// a diagnoses section followed by the note text, with placeholders for
// whichever part is absent.
func (s *Service) VisitNote(ctx context.Context, visitID string) (markdown string, found bool, err error) {
	rec, _, err := s.nav.FindNoteEncounter(ctx, visitID)
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		return "", false, nil
	}

	diags, err := s.emr.ListDiagnoses(ctx, rec.ID)
	if err != nil {
		return "", false, fmt.Errorf("list diagnoses for visit %s: %w", visitID, err)
	}

	obs, err := s.emr.SearchObservations(ctx, rec.ID, s.refs.ClinicalNoteConceptID)
	if err != nil {
		return "", false, fmt.Errorf("fetch note observation for visit %s: %w", visitID, err)
	}

	var b strings.Builder
	b.WriteString("### Diagnoses\n\n")
	if len(diags) == 0 {
		b.WriteString(noDiagnosesText)
	} else {
		for i, d := range diags {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- " + diagnosisLine(d.Display, d.Rank))
		}
	}

	b.WriteString("\n\n### Clinical Note\n\n")
	if len(obs) > 0 && obs[0].ValueString != "" {
		b.WriteString(obs[0].ValueString)
	} else {
		b.WriteString(noNoteText)
	}
	return b.String(), true, nil
}

func diagnosisLine(display string, rank int) string {
	if rank == 1 {
		return display + " (primary)"
	}
	return display
}
