package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fkViolation = "23503"

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, fhir_id, first_name, gender, birth_date, postal_code, created_at, updated_at`

func (r *patientRepoPG) Upsert(ctx context.Context, p *Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, fhir_id, first_name, gender, birth_date, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fhir_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			gender = EXCLUDED.gender,
			birth_date = EXCLUDED.birth_date,
			postal_code = EXCLUDED.postal_code,
			updated_at = NOW()
		RETURNING `+patientCols,
		p.ID, p.FHIRID, p.FirstName, p.Gender, p.BirthDate, p.PostalCode,
	)

	stored, err := scanPatient(row)
	if err != nil {
		return nil, &PersistenceError{Op: "upsert patient", Err: err}
	}
	return stored, nil
}

func (r *patientRepoPG) GetByFHIRID(ctx context.Context, fhirID string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE fhir_id = $1`, fhirID)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownPatient
		}
		return nil, &PersistenceError{Op: "get patient", Err: err}
	}
	return p, nil
}

func (r *patientRepoPG) Search(ctx context.Context, filter PatientFilter, limit, offset int) ([]*Patient, int, error) {
	var conditions []string
	var args []interface{}

	if filter.FHIRID != "" {
		args = append(args, filter.FHIRID)
		conditions = append(conditions, fmt.Sprintf("fhir_id = $%d", len(args)))
	}
	if filter.FirstName != "" {
		args = append(args, "%"+filter.FirstName+"%")
		conditions = append(conditions, fmt.Sprintf("first_name ILIKE $%d", len(args)))
	}
	if filter.PostalCode != "" {
		args = append(args, filter.PostalCode)
		conditions = append(conditions, fmt.Sprintf("postal_code = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, &PersistenceError{Op: "count patients", Err: err}
	}

	pageArgs := append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM patients%s ORDER BY created_at LIMIT $%d OFFSET $%d`,
		patientCols, where, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "search patients", Err: err}
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, &PersistenceError{Op: "scan patient", Err: err}
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &PersistenceError{Op: "iterate patients", Err: err}
	}
	return patients, total, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.FHIRID, &p.FirstName, &p.Gender, &p.BirthDate, &p.PostalCode,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Observation Repository --

type observationRepoPG struct {
	pool *pgxpool.Pool
}

func NewObservationRepo(pool *pgxpool.Pool) ObservationRepository {
	return &observationRepoPG{pool: pool}
}

const observationCols = `id, fhir_id, patient_fhir_id, resource_type, status, category, value_text, effective_at, created_at, updated_at`

func (r *observationRepoPG) Upsert(ctx context.Context, o *Observation) (*Observation, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO observations (id, fhir_id, patient_fhir_id, resource_type, status, category, value_text, effective_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (fhir_id) DO UPDATE SET
			patient_fhir_id = EXCLUDED.patient_fhir_id,
			resource_type = EXCLUDED.resource_type,
			status = EXCLUDED.status,
			category = EXCLUDED.category,
			value_text = EXCLUDED.value_text,
			effective_at = EXCLUDED.effective_at,
			updated_at = NOW()
		RETURNING `+observationCols,
		o.ID, o.FHIRID, o.PatientFHIRID, o.ResourceType, o.Status, o.Category, o.Value, o.EffectiveAt,
	)

	stored, err := scanObservation(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return nil, &PersistenceError{Op: "upsert observation", Err: ErrUnknownPatient}
		}
		return nil, &PersistenceError{Op: "upsert observation", Err: err}
	}
	return stored, nil
}

func (r *observationRepoPG) ListByPatient(ctx context.Context, patientFHIRID string, limit, offset int) ([]*Observation, int, error) {
	where := ""
	var args []interface{}
	if patientFHIRID != "" {
		where = " WHERE patient_fhir_id = $1"
		args = append(args, patientFHIRID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM observations`+where, args...).Scan(&total); err != nil {
		return nil, 0, &PersistenceError{Op: "count observations", Err: err}
	}

	pageArgs := append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM observations%s ORDER BY created_at LIMIT $%d OFFSET $%d`,
		observationCols, where, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "list observations", Err: err}
	}
	defer rows.Close()

	var observations []*Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, 0, &PersistenceError{Op: "scan observation", Err: err}
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &PersistenceError{Op: "iterate observations", Err: err}
	}
	return observations, total, nil
}

func scanObservation(row pgx.Row) (*Observation, error) {
	var o Observation
	err := row.Scan(
		&o.ID, &o.FHIRID, &o.PatientFHIRID, &o.ResourceType, &o.Status,
		&o.Category, &o.Value, &o.EffectiveAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
