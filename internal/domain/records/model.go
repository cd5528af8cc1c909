package records

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. FHIRID is the external system's
// identifier and is unique locally; rows are only ever created or
// overwritten by re-ingest, never deleted.
type Patient struct {
	ID         uuid.UUID `db:"id" json:"id"`
	FHIRID     string    `db:"fhir_id" json:"patient_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	Gender     *string   `db:"gender" json:"gender,omitempty"`
	BirthDate  *string   `db:"birth_date" json:"birth_date,omitempty"`
	PostalCode *string   `db:"postal_code" json:"postal_code,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Observation maps to the observations table. PatientFHIRID references
// patients.fhir_id; the constraint is enforced by the schema, so an
// observation can never outlive or precede its patient.
type Observation struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	FHIRID        string     `db:"fhir_id" json:"observation_id"`
	PatientFHIRID string     `db:"patient_fhir_id" json:"patient_id"`
	ResourceType  string     `db:"resource_type" json:"resource_type"`
	Status        string     `db:"status" json:"status"`
	Category      *string    `db:"category" json:"category,omitempty"`
	Value         *string    `db:"value_text" json:"value,omitempty"`
	EffectiveAt   *time.Time `db:"effective_at" json:"effective_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
