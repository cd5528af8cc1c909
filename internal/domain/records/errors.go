package records

import (
	"errors"
	"fmt"
)

// MappingError reports an upstream document that could not be translated
// into a local entity.
type MappingError struct {
	Resource string
	Field    string
	Reason   string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("map %s: %s: %s", e.Resource, e.Field, e.Reason)
}

// PersistenceError wraps a storage failure (constraint violation or store
// unavailability). It is never retried here; the caller decides.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrUnknownPatient is returned when an observation references a patient
// that has not been ingested. Observations for unknown patients are
// rejected, not stored as orphans.
var ErrUnknownPatient = errors.New("unknown patient")

// ErrEmptyFilter is returned when a search is attempted without any filter.
var ErrEmptyFilter = errors.New("at least one search filter is required")

// ErrUpstream marks failures of the external record source.
var ErrUpstream = errors.New("upstream fetch failed")
