package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const apptColumns = `
	id, patient_id, doctor_id, service_id, appointment_type, address_id,
	teleconsultation_id, status, payment_status, scheduled_at, notes,
	created_at, updated_at, assigned_at, confirmed_at, departed_at,
	arrived_at, started_at, completed_at, closed_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ServiceID,
		&a.Type,
		&a.AddressID,
		&a.TeleconsultationID,
		&a.Status,
		&a.PaymentStatus,
		&a.ScheduledAt,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.AssignedAt,
		&a.ConfirmedAt,
		&a.DepartedAt,
		&a.ArrivedAt,
		&a.StartedAt,
		&a.CompletedAt,
		&a.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func scanTeleconsultation(row pgx.Row) (*Teleconsultation, error) {
	var t Teleconsultation

	err := row.Scan(
		&t.ID,
		&t.AppointmentID,
		&t.MeetingURL,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeleconsultationNotFound
		}
		return nil, err
	}

	return &t, nil
}

// stampColumn maps a target status to the timestamp column set at the
// moment of the corresponding transition.
func stampColumn(to Status) string {
	switch to {
	case StatusConfirmed:
		return "confirmed_at"
	case StatusOnTheWay:
		return "departed_at"
	case StatusArrived:
		return "arrived_at"
	case StatusServiceStarted:
		return "started_at"
	case StatusCompleted:
		return "completed_at"
	case StatusCancelledByPatient, StatusDeclinedByDoctor, StatusRescheduled:
		return "closed_at"
	}
	return ""
}

// Interface methods

func (r *PgRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, patient_id, service_id, appointment_type, address_id,
			 status, payment_status, scheduled_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending_assignment', 'pending', $6, $7, now(), now())
		RETURNING`+apptColumns+`
	`, id, appt.PatientID, appt.ServiceID, appt.Type, appt.AddressID, appt.ScheduledAt, appt.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+apptColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListUnassigned(ctx context.Context, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+apptColumns+`
		FROM appointments
		WHERE status = 'pending_assignment'
		ORDER BY scheduled_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+apptColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, statuses []Status, limit, offset int) ([]Appointment, error) {
	if len(statuses) == 0 {
		rows, err := r.pool.Query(ctx, `
			SELECT`+apptColumns+`
			FROM appointments
			WHERE doctor_id = $1
			ORDER BY scheduled_at DESC
			LIMIT $2 OFFSET $3
		`, doctorID, limit, offset)
		if err != nil {
			return nil, err
		}
		return scanAppointments(rows)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+apptColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND status = ANY($2)
		ORDER BY scheduled_at DESC
		LIMIT $3 OFFSET $4
	`, doctorID, statuses, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) Claim(ctx context.Context, id, doctorID uuid.UUID, tele *Teleconsultation) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var teleID *uuid.UUID
	if tele != nil {
		if tele.ID == uuid.Nil {
			tele.ID = uuid.New()
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO teleconsultations (id, appointment_id, meeting_url, status, created_at, updated_at)
			VALUES ($1, $2, $3, 'scheduled', now(), now())
		`, tele.ID, id, tele.MeetingURL)
		if err != nil {
			return nil, fmt.Errorf("insert teleconsultation: %w", err)
		}
		teleID = &tele.ID
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    teleconsultation_id = COALESCE($3, teleconsultation_id),
		    status = 'assigned',
		    assigned_at = now(),
		    updated_at = now()
		WHERE id = $1
		  AND status = 'pending_assignment'
		  AND doctor_id IS NULL
		RETURNING`+apptColumns+`
	`, id, doctorID, teleID)

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The conditional write matched no row: either the record is gone
			// or another doctor won the race.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}

	return appt, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, teleStatus TeleStatus) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stamp := ""
	if col := stampColumn(to); col != "" {
		stamp = fmt.Sprintf(", %s = now()", col)
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
		UPDATE appointments
		SET status = $2,
		    updated_at = now()%s
		WHERE id = $1
		  AND status = $3
		RETURNING`+apptColumns, stamp), id, to, from)

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrStaleStatus
		}
		return nil, err
	}

	if teleStatus != "" && appt.TeleconsultationID != nil {
		_, err = tx.Exec(ctx, `
			UPDATE teleconsultations
			SET status = $2,
			    updated_at = now()
			WHERE id = $1
		`, *appt.TeleconsultationID, teleStatus)
		if err != nil {
			return nil, fmt.Errorf("mirror teleconsultation status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition tx: %w", err)
	}

	return appt, nil
}

func (r *PgRepository) GetTeleconsultation(ctx context.Context, id uuid.UUID) (*Teleconsultation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, meeting_url, status, created_at, updated_at
		FROM teleconsultations
		WHERE id = $1
	`, id)
	return scanTeleconsultation(row)
}

func (r *PgRepository) FindConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+apptColumns+`
		FROM appointments
		WHERE status = 'confirmed'
		  AND scheduled_at >= $1
		  AND scheduled_at < $2
	`, from, to)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
