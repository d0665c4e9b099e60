package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/dental-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	seedCtx := context.Background()

	serviceIDs, err := seedServices(seedCtx, pool)
	if err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedOffers(seedCtx, pool, serviceIDs); err != nil {
		log.Fatalf("seed offers: %v", err)
	}
	if err := seedAdmins(seedCtx, pool); err != nil {
		log.Fatalf("seed admins: %v", err)
	}
	if _, err := seedDoctors(seedCtx, pool, 25); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	patients, err := seedPatients(seedCtx, pool, 500)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(seedCtx, pool, patients, serviceIDs, 800); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	type svc struct {
		name     string
		desc     string
		feeCents int64
		minutes  int
	}

	dentalServices := []svc{
		{"Teeth Cleaning", "Routine scale and polish", 80000, 45},
		{"Dental Checkup", "Full oral examination", 50000, 30},
		{"Tooth Filling", "Composite filling, single tooth", 120000, 60},
		{"Root Canal", "Root canal treatment, single canal", 350000, 90},
		{"Tooth Extraction", "Simple extraction", 150000, 45},
		{"Teeth Whitening", "In-home whitening session", 200000, 60},
		{"Orthodontic Consultation", "Braces and aligner assessment", 60000, 30},
		{"Denture Fitting", "Measurement and fitting", 250000, 60},
		{"Pediatric Checkup", "Checkup for children under 12", 45000, 30},
		{"Teleconsultation Follow-up", "Remote follow-up on a prior visit", 30000, 20},
	}

	log.Printf("seeding %d services", len(dentalServices))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(dentalServices))
	for _, s := range dentalServices {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, description, fee_cents, duration_minutes, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, now(), now())
		`, id, s.name, s.desc, s.feeCents, s.minutes)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("services seeded")
	return ids, nil
}

func seedOffers(ctx context.Context, pool *pgxpool.Pool, serviceIDs []uuid.UUID) error {
	log.Println("seeding offers")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for i := 0; i < 4 && i < len(serviceIDs); i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO offers (id, service_id, title, discount_percent, valid_from, valid_until, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
		`, uuid.New(), serviceIDs[i],
			gofakeit.ProductName()+" promo",
			gofakeit.Number(10, 40),
			now.AddDate(0, 0, -7),
			now.AddDate(0, 1, 0))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedAdmins(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding admin profiles")

	_, err := pool.Exec(ctx, `
		INSERT INTO profiles (id, external_id, name, email, role, status, created_at, updated_at)
		VALUES
			($1, 'seed|superadmin', 'Root Admin', 'root@smilecare.local', 'superadmin', 'active', now(), now()),
			($2, 'seed|admin', 'Ops Admin', 'ops@smilecare.local', 'admin', 'active', now(), now())
	`, uuid.New(), uuid.New())
	return err
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		// Leave a few in pending_approval so the admin flow has work to do.
		status := "active"
		if i%10 == 0 {
			status = "pending_approval"
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, external_id, name, email, role, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'doctor', $5, now(), now())
		`, id, "seed|doctor|"+id.String(), "Dr. "+gofakeit.Name(), gofakeit.Email(), status)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

type seededPatient struct {
	ID        uuid.UUID
	AddressID uuid.UUID
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]seededPatient, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	patients := make([]seededPatient, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO profiles (id, external_id, name, email, role, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 'patient', 'active', now(), now())
			`, id, "seed|patient|"+id.String(), gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}

			addressID := uuid.New()
			addr := gofakeit.Address()
			_, err = tx.Exec(ctx, `
				INSERT INTO addresses (id, patient_id, line1, city, postal_code, created_at)
				VALUES ($1, $2, $3, $4, $5, now())
			`, addressID, id, addr.Street, addr.City, addr.Zip)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}

			patients = append(patients, seededPatient{ID: id, AddressID: addressID})
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return patients, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, patients []seededPatient, serviceIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d pending appointments", count)

	const batchSize = 200

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			patient := patients[gofakeit.Number(0, len(patients)-1)]
			serviceID := serviceIDs[gofakeit.Number(0, len(serviceIDs)-1)]
			scheduledAt := time.Now().Add(time.Duration(gofakeit.Number(1, 24*14)) * time.Hour)

			apptType := "in_person"
			var addressID *uuid.UUID
			if gofakeit.Bool() {
				apptType = "teleconsultation"
			} else {
				addressID = &patient.AddressID
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments
					(id, patient_id, service_id, appointment_type, address_id,
					 status, payment_status, scheduled_at, notes, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, 'pending_assignment', 'pending', $6, $7, now(), now())
			`, uuid.New(), patient.ID, serviceID, apptType, addressID, scheduledAt, gofakeit.Sentence(8))
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", end, count)
	}

	log.Println("appointments seeded")
	return nil
}
