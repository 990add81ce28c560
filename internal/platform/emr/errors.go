package emr

import "fmt"

// NotFoundError indicates a referenced visit, patient, or encounter does not
// exist in the EMR.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ResolutionError indicates a free-text vocabulary term has no coded match in
// the EMR. Callers decide whether this is fatal (drug orders) or degradable
// (diagnoses).
type ResolutionError struct {
	Kind string // "concept" or "drug"
	Term string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no %s match for %q", e.Kind, e.Term)
}

// WriteError indicates the EMR rejected or failed a write.
type WriteError struct {
	Resource   string
	StatusCode int
	Message    string
}

func (e *WriteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s write failed with status %d", e.Resource, e.StatusCode)
	}
	return fmt.Sprintf("%s write failed with status %d: %s", e.Resource, e.StatusCode, e.Message)
}

// ValidationError indicates a submission is missing a required field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
