package note

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

// Service is the synchronization orchestrator. A submission without a visit
// identifier runs the NEW sequence; one with an identifier runs the EXISTING
// sequence. Steps are strictly sequential, never retried, and never rolled
// back: a failed step aborts the remainder and surfaces with step context,
// while prior successful writes persist. That no-rollback contract is
// deliberate; the EMR offers no multi-resource transactions and this bridge
// does not fake them with compensating deletes.
type Service struct {
	emr   EMR
	vocab Resolver
	nav   *Navigator
	refs  Refs
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(emrClient EMR, vocab Resolver, refs Refs, log zerolog.Logger) *Service {
	return &Service{
		emr:   emrClient,
		vocab: vocab,
		nav:   NewNavigator(emrClient, refs.NoteEncounterTypeID, refs.OrderEncounterTypeID),
		refs:  refs,
		log:   log,
		now:   time.Now,
	}
}

// Submit synchronizes one note submission into the EMR and returns the visit
// identifier used. Create vs. update is decided solely by the presence of a
// caller-supplied visit identifier; a non-existent supplied identifier
// surfaces as a downstream fetch failure, never as a silent create.
func (s *Service) Submit(ctx context.Context, sub *Submission) (string, error) {
	if err := sub.Validate(); err != nil {
		return "", err
	}
	if sub.VisitID == "" {
		return s.submitNew(ctx, sub)
	}
	return sub.VisitID, s.submitExisting(ctx, sub)
}

func (s *Service) submitNew(ctx context.Context, sub *Submission) (string, error) {
	visit, err := s.emr.CreateEncounter(ctx, VisitEncounter(sub.PatientID, s.refs, s.now()))
	if err != nil {
		return "", fmt.Errorf("create visit for patient %s: %w", sub.PatientID, err)
	}

	// The visit now exists; a failure in any later step leaves it partially
	// configured. Accepted inconsistency window.
	rec, err := s.emr.CreateEncounter(ctx, ChildEncounter(sub.PatientID, visit.ID, s.refs.NoteEncounterTypeID, s.refs, s.now()))
	if err != nil {
		return "", fmt.Errorf("create note record for visit %s: %w", visit.ID, err)
	}

	if _, err := s.emr.CreateObservation(ctx, NoteObservation(sub.PatientID, rec.ID, s.refs, sub.Note.Markdown())); err != nil {
		return "", fmt.Errorf("create note observation for visit %s: %w", visit.ID, err)
	}

	if err := s.appendOrders(ctx, sub.PatientID, visit.ID, sub.Medications); err != nil {
		return "", err
	}

	if len(sub.Diagnoses) > 0 {
		if err := s.replaceDiagnoses(ctx, sub.PatientID, rec.ID, sub.Diagnoses); err != nil {
			return "", err
		}
	}
	return visit.ID, nil
}

func (s *Service) submitExisting(ctx context.Context, sub *Submission) error {
	rec, patientID, err := s.findOrCreateNoteRecord(ctx, sub.VisitID)
	if err != nil {
		return err
	}

	if err := s.writeNarrative(ctx, patientID, rec.ID, sub.Note.Markdown()); err != nil {
		return fmt.Errorf("write note observation for visit %s: %w", sub.VisitID, err)
	}

	if len(sub.Diagnoses) > 0 {
		if err := s.replaceDiagnoses(ctx, patientID, rec.ID, sub.Diagnoses); err != nil {
			return err
		}
	}

	// Orders are append-only: resubmission never touches prior orders.
	return s.appendOrders(ctx, patientID, sub.VisitID, sub.Medications)
}

// findOrCreateNoteRecord locates the visit's note record, lazily creating one
// for visits that predate this integration's record keeping. Every visit ends
// up with exactly one note record.
func (s *Service) findOrCreateNoteRecord(ctx context.Context, visitID string) (*emr.Encounter, string, error) {
	rec, patientID, err := s.nav.FindNoteEncounter(ctx, visitID)
	if err != nil {
		return nil, "", err
	}
	if rec != nil {
		return rec, patientID, nil
	}
	created, err := s.emr.CreateEncounter(ctx, ChildEncounter(patientID, visitID, s.refs.NoteEncounterTypeID, s.refs, s.now()))
	if err != nil {
		return nil, "", fmt.Errorf("create note record for visit %s: %w", visitID, err)
	}
	return created, patientID, nil
}

// writeNarrative overwrites the note record's narrative observation in place,
// creating it when absent.
func (s *Service) writeNarrative(ctx context.Context, patientID, noteRecordID, markdown string) error {
	existing, err := s.emr.SearchObservations(ctx, noteRecordID, s.refs.ClinicalNoteConceptID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		obs := existing[0]
		obs.ValueString = markdown
		return s.emr.UpdateObservation(ctx, &obs)
	}
	_, err = s.emr.CreateObservation(ctx, NoteObservation(patientID, noteRecordID, s.refs, markdown))
	return err
}

// appendOrders creates one order sub-encounter and one legacy order write per
// medication, sequentially in input order. The first failure aborts the
// remaining orders.
func (s *Service) appendOrders(ctx context.Context, patientID, visitID string, meds []MedicationOrder) error {
	for i, m := range meds {
		if err := s.createOrder(ctx, patientID, visitID, m); err != nil {
			return fmt.Errorf("order %d (%s): %w", i+1, m.Drug, err)
		}
	}
	return nil
}

func (s *Service) createOrder(ctx context.Context, patientID, visitID string, m MedicationOrder) error {
	enc, err := s.emr.CreateEncounter(ctx, ChildEncounter(patientID, visitID, s.refs.OrderEncounterTypeID, s.refs, s.now()))
	if err != nil {
		return fmt.Errorf("create order encounter: %w", err)
	}

	resolved, err := s.resolveOrder(ctx, m)
	if err != nil {
		return err
	}

	if err := s.emr.CreateOrder(ctx, OrderPayload(m, resolved, patientID, enc.ID, s.refs)); err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	return nil
}

// resolveOrder resolves every vocabulary field of a medication order. Any
// failure is fatal for the order: a drug order must never be written with
// unresolved terms.
func (s *Service) resolveOrder(ctx context.Context, m MedicationOrder) (ResolvedOrder, error) {
	var r ResolvedOrder
	var err error

	if r.Drug, err = s.vocab.Drug(ctx, m.Drug, m.Strength); err != nil {
		return r, fmt.Errorf("resolve drug: %w", err)
	}
	if r.DoseUnit, err = s.vocab.Concept(ctx, m.DoseUnit); err != nil {
		return r, fmt.Errorf("resolve dose unit: %w", err)
	}
	if r.Route, err = s.vocab.Concept(ctx, m.Route); err != nil {
		return r, fmt.Errorf("resolve route: %w", err)
	}
	if r.Frequency, err = s.vocab.Concept(ctx, m.Frequency); err != nil {
		return r, fmt.Errorf("resolve frequency: %w", err)
	}
	if m.DurationValue > 0 && m.DurationUnit != "" {
		if r.DurationUnit, err = s.vocab.Concept(ctx, m.DurationUnit); err != nil {
			return r, fmt.Errorf("resolve duration unit: %w", err)
		}
	}
	if m.DispenseQuantity > 0 && m.DispenseUnit != "" {
		if r.QuantityUnit, err = s.vocab.Concept(ctx, m.DispenseUnit); err != nil {
			return r, fmt.Errorf("resolve dispense unit: %w", err)
		}
	}
	return r, nil
}

// replaceDiagnoses applies the replace-all strategy: delete every existing
// diagnosis on the note record, then insert the new set. Deletes are
// fire-and-forget; there is no transactional guarantee between the two
// phases, so a crash mid-sequence can leave the visit with no diagnoses or a
// mixture. Accepted limitation.
func (s *Service) replaceDiagnoses(ctx context.Context, patientID, noteRecordID string, diags []Diagnosis) error {
	existing, err := s.emr.ListDiagnoses(ctx, noteRecordID)
	if err != nil {
		return fmt.Errorf("list diagnoses for note record %s: %w", noteRecordID, err)
	}
	for _, old := range existing {
		if err := s.emr.DeleteDiagnosis(ctx, old.UUID); err != nil {
			s.log.Warn().Err(err).Str("diagnosis", old.UUID).Msg("delete of prior diagnosis failed")
		}
	}

	for i, d := range diags {
		codedID, err := s.vocab.Concept(ctx, d.Name)
		if err != nil {
			var re *emr.ResolutionError
			if !errors.As(err, &re) {
				return fmt.Errorf("resolve diagnosis %d (%s): %w", i+1, d.Name, err)
			}
			// Unresolvable diagnosis names degrade to free text.
			s.log.Warn().Str("diagnosis", d.Name).Msg("no coded match, storing as free text")
			codedID = ""
		}
		if err := s.emr.CreateDiagnosis(ctx, DiagnosisPayload(d, codedID, patientID, noteRecordID)); err != nil {
			return fmt.Errorf("create diagnosis %d (%s): %w", i+1, d.Name, err)
		}
	}
	return nil
}
