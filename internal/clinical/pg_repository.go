package clinical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	var medications []byte

	err := row.Scan(
		&p.ID,
		&p.PatientID,
		&p.DoctorID,
		&p.AppointmentID,
		&medications,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(medications, &p.Medications); err != nil {
		return nil, fmt.Errorf("decode medications: %w", err)
	}

	return &p, nil
}

func (r *PgRepository) CreatePrescription(ctx context.Context, p *Prescription) (*Prescription, error) {
	id := uuid.New()

	medications, err := json.Marshal(p.Medications)
	if err != nil {
		return nil, fmt.Errorf("encode medications: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO prescriptions (id, patient_id, doctor_id, appointment_id, medications, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, patient_id, doctor_id, appointment_id, medications, created_at
	`, id, p.PatientID, p.DoctorID, p.AppointmentID, medications)

	return scanPrescription(row)
}

func (r *PgRepository) GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, appointment_id, medications, created_at
		FROM prescriptions
		WHERE id = $1
	`, id)
	return scanPrescription(row)
}

func (r *PgRepository) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, appointment_id, medications, created_at
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateHealthRecord(ctx context.Context, hr *HealthRecord) (*HealthRecord, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO health_records (id, patient_id, doctor_id, appointment_id, record_type, description, attachment_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, patient_id, doctor_id, appointment_id, record_type, description, attachment_ref, created_at
	`, id, hr.PatientID, hr.DoctorID, hr.AppointmentID, hr.Type, hr.Description, hr.AttachmentRef)

	var out HealthRecord
	err := row.Scan(
		&out.ID,
		&out.PatientID,
		&out.DoctorID,
		&out.AppointmentID,
		&out.Type,
		&out.Description,
		&out.AttachmentRef,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *PgRepository) ListHealthRecordsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]HealthRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, appointment_id, record_type, description, attachment_ref, created_at
		FROM health_records
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []HealthRecord
	for rows.Next() {
		var hr HealthRecord
		err := rows.Scan(
			&hr.ID,
			&hr.PatientID,
			&hr.DoctorID,
			&hr.AppointmentID,
			&hr.Type,
			&hr.Description,
			&hr.AttachmentRef,
			&hr.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, hr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateConsultation(ctx context.Context, c *Consultation) (*Consultation, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO consultations (id, patient_id, doctor_id, appointment_id, diagnosis, recommendations, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, patient_id, doctor_id, appointment_id, diagnosis, recommendations, notes, created_at
	`, id, c.PatientID, c.DoctorID, c.AppointmentID, c.Diagnosis, c.Recommendations, c.Notes)

	var out Consultation
	err := row.Scan(
		&out.ID,
		&out.PatientID,
		&out.DoctorID,
		&out.AppointmentID,
		&out.Diagnosis,
		&out.Recommendations,
		&out.Notes,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *PgRepository) ListConsultationsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Consultation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, appointment_id, diagnosis, recommendations, notes, created_at
		FROM consultations
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Consultation
	for rows.Next() {
		var c Consultation
		err := rows.Scan(
			&c.ID,
			&c.PatientID,
			&c.DoctorID,
			&c.AppointmentID,
			&c.Diagnosis,
			&c.Recommendations,
			&c.Notes,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
