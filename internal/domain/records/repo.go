package records

import "context"

// PatientFilter restricts a patient search. Fields are conjunctive when
// combined; an empty filter is rejected by the service.
type PatientFilter struct {
	FHIRID     string // exact match on the external id
	FirstName  string // case-insensitive substring
	PostalCode string // exact match
}

func (f PatientFilter) Empty() bool {
	return f.FHIRID == "" && f.FirstName == "" && f.PostalCode == ""
}

type PatientRepository interface {
	// Upsert inserts the patient or overwrites the existing row with the
	// same external id, returning the stored row.
	Upsert(ctx context.Context, p *Patient) (*Patient, error)
	// GetByFHIRID returns ErrUnknownPatient when no row matches.
	GetByFHIRID(ctx context.Context, fhirID string) (*Patient, error)
	Search(ctx context.Context, filter PatientFilter, limit, offset int) ([]*Patient, int, error)
}

type ObservationRepository interface {
	// Upsert inserts the observation or overwrites the existing row with
	// the same external id, returning the stored row. Fails with
	// ErrUnknownPatient when the patient link cannot be satisfied.
	Upsert(ctx context.Context, o *Observation) (*Observation, error)
	// ListByPatient returns all observations when patientFHIRID is empty.
	ListByPatient(ctx context.Context, patientFHIRID string, limit, offset int) ([]*Observation, int, error)
}
