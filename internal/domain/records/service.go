package records

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/erikkvale/eir/internal/platform/fhirclient"
)

// Source is the external record source. Implemented by fhirclient.Client;
// narrowed to an interface so tests can stub the upstream.
type Source interface {
	SearchPatientsByPostalCode(ctx context.Context, postalCode string) ([]fhirclient.PatientResource, error)
	SearchObservationsByPatient(ctx context.Context, patientID string) ([]fhirclient.ObservationResource, error)
}

type Service struct {
	source       Source
	patients     PatientRepository
	observations ObservationRepository
	logger       zerolog.Logger
}

func NewService(source Source, patients PatientRepository, observations ObservationRepository, logger zerolog.Logger) *Service {
	return &Service{
		source:       source,
		patients:     patients,
		observations: observations,
		logger:       logger,
	}
}

// PatientImport summarizes a patient ingest run.
type PatientImport struct {
	PostalCode string
	SavedIDs   []string
}

// IngestPatientsByPostalCode fetches all patients for the postal code from
// the external source and upserts each one. Re-running the same ingest
// overwrites rather than duplicates. A malformed upstream document aborts
// the run with a MappingError.
func (s *Service) IngestPatientsByPostalCode(ctx context.Context, postalCode string) (*PatientImport, error) {
	if postalCode == "" {
		return nil, &MappingError{Resource: "Patient", Field: "address-postalcode", Reason: "missing"}
	}

	docs, err := s.source.SearchPatientsByPostalCode(ctx, postalCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	result := &PatientImport{PostalCode: postalCode, SavedIDs: []string{}}
	for _, doc := range docs {
		entity, err := MapPatient(doc, postalCode)
		if err != nil {
			return nil, err
		}
		stored, err := s.patients.Upsert(ctx, entity)
		if err != nil {
			return nil, err
		}
		result.SavedIDs = append(result.SavedIDs, stored.FHIRID)
	}

	s.logger.Info().
		Str("postal_code", postalCode).
		Int("total_saved", len(result.SavedIDs)).
		Msg("patients ingested")

	return result, nil
}

// ObservationImport summarizes an observation ingest run. Saved is false
// when the upstream has no observations for the patient.
type ObservationImport struct {
	Saved       bool
	Observation *Observation
}

// IngestFirstObservation fetches the observations for a patient from the
// external source and stores the first one. The patient must already exist
// locally; observations never arrive before their patient (orphans are
// rejected with ErrUnknownPatient).
func (s *Service) IngestFirstObservation(ctx context.Context, patientFHIRID string) (*ObservationImport, error) {
	if patientFHIRID == "" {
		return nil, &MappingError{Resource: "Observation", Field: "subject", Reason: "missing patient id"}
	}

	if _, err := s.patients.GetByFHIRID(ctx, patientFHIRID); err != nil {
		return nil, err
	}

	docs, err := s.source.SearchObservationsByPatient(ctx, patientFHIRID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(docs) == 0 {
		return &ObservationImport{Saved: false}, nil
	}

	entity, err := MapObservation(docs[0], patientFHIRID)
	if err != nil {
		return nil, err
	}

	stored, err := s.observations.Upsert(ctx, entity)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("patient_id", patientFHIRID).
		Str("observation_id", stored.FHIRID).
		Msg("observation ingested")

	return &ObservationImport{Saved: true, Observation: stored}, nil
}

// SearchPatients returns locally stored patients matching the filter. An
// empty result is not an error.
func (s *Service) SearchPatients(ctx context.Context, filter PatientFilter, limit, offset int) ([]*Patient, int, error) {
	if filter.Empty() {
		return nil, 0, ErrEmptyFilter
	}
	return s.patients.Search(ctx, filter, limit, offset)
}

// SearchObservations returns locally stored observations, optionally
// restricted to one patient. An empty result is not an error.
func (s *Service) SearchObservations(ctx context.Context, patientFHIRID string, limit, offset int) ([]*Observation, int, error) {
	return s.observations.ListByPatient(ctx, patientFHIRID, limit, offset)
}
