package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/dental-scheduling/internal/auth"
	"github.com/smilecare/dental-scheduling/internal/config"
	"github.com/smilecare/dental-scheduling/internal/db"
	"github.com/smilecare/dental-scheduling/internal/profile"
)

// claim-race fires concurrent claim requests from distinct doctors at a
// single pending appointment and reports how the contention resolved.
// Exactly one request should win; everything else should come back 409.

type raceConfig struct {
	APIBaseURL  string
	Doctors     int
	PostgresDSN string
	JWTSecret   string
}

type attempt struct {
	doctorID uuid.UUID
	status   int
	latency  time.Duration
	err      error
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("claim-race starting")

	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg := raceConfig{
		APIBaseURL:  getEnv("RACE_API_BASE_URL", "http://localhost:8080"),
		Doctors:     getInt("RACE_DOCTORS", 20),
		PostgresDSN: baseCfg.PostgresDSN,
		JWTSecret:   baseCfg.JWTSecret,
	}
	if cfg.Doctors < 2 {
		log.Fatal("RACE_DOCTORS must be >= 2")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	doctorIDs, err := loadDoctors(ctx, pool, cfg.Doctors)
	if err != nil {
		log.Fatalf("load doctors: %v", err)
	}
	apptID, err := loadPendingAppointment(ctx, pool)
	if err != nil {
		log.Fatalf("load pending appointment: %v", err)
	}

	log.Printf("racing %d doctors for appointment %s", len(doctorIDs), apptID)

	attempts := race(cfg, apptID, doctorIDs)
	report(apptID, attempts)
}

func loadDoctors(ctx context.Context, pool *pgxpool.Pool, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `
		SELECT id FROM profiles
		WHERE role = 'doctor' AND status = 'active'
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, fmt.Errorf("need at least 2 active doctors, found %d (run the seed tool first)", len(ids))
	}
	return ids, rows.Err()
}

func loadPendingAppointment(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, error) {
	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		SELECT id FROM appointments
		WHERE status = 'pending_assignment'
		ORDER BY scheduled_at
		LIMIT 1
	`).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("no pending appointment found (run the seed tool first): %w", err)
	}
	return id, nil
}

func race(cfg raceConfig, apptID uuid.UUID, doctorIDs []uuid.UUID) []attempt {
	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("%s/api/v1/appointments/%s/claim", cfg.APIBaseURL, apptID)

	start := make(chan struct{})
	results := make([]attempt, len(doctorIDs))

	var wg sync.WaitGroup
	for i, doctorID := range doctorIDs {
		wg.Add(1)
		go func(i int, doctorID uuid.UUID) {
			defer wg.Done()

			token, err := auth.SignToken(doctorID, profile.RoleDoctor, cfg.JWTSecret, time.Hour)
			if err != nil {
				results[i] = attempt{doctorID: doctorID, err: err}
				return
			}

			req, err := http.NewRequest(http.MethodPost, url, nil)
			if err != nil {
				results[i] = attempt{doctorID: doctorID, err: err}
				return
			}
			req.Header.Set("Authorization", "Bearer "+token)

			<-start
			began := time.Now()
			resp, err := client.Do(req)
			latency := time.Since(began)
			if err != nil {
				results[i] = attempt{doctorID: doctorID, latency: latency, err: err}
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			results[i] = attempt{doctorID: doctorID, status: resp.StatusCode, latency: latency}
		}(i, doctorID)
	}

	close(start)
	wg.Wait()
	return results
}

func report(apptID uuid.UUID, attempts []attempt) {
	var winners, conflicts, errors int
	var winner uuid.UUID
	latencies := make([]time.Duration, 0, len(attempts))

	for _, a := range attempts {
		switch {
		case a.err != nil:
			errors++
			log.Printf("doctor %s: request failed: %v", a.doctorID, a.err)
		case a.status == http.StatusOK:
			winners++
			winner = a.doctorID
		case a.status == http.StatusConflict:
			conflicts++
		default:
			errors++
			log.Printf("doctor %s: unexpected status %d", a.doctorID, a.status)
		}
		if a.latency > 0 {
			latencies = append(latencies, a.latency)
		}
	}

	fmt.Println()
	fmt.Println("CLAIM RACE REPORT")
	fmt.Printf("appointment: %s\n", apptID)
	fmt.Printf("attempts:    %d\n", len(attempts))
	fmt.Printf("winners:     %d\n", winners)
	fmt.Printf("conflicts:   %d\n", conflicts)
	fmt.Printf("errors:      %d\n", errors)
	if winners == 1 {
		fmt.Printf("winning doctor: %s\n", winner)
	}

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		fmt.Printf("latency: avg=%s min=%s max=%s\n",
			(sum / time.Duration(len(latencies))).Round(time.Millisecond),
			latencies[0].Round(time.Millisecond),
			latencies[len(latencies)-1].Round(time.Millisecond))
	}

	if winners != 1 {
		fmt.Println("RESULT: FAIL (expected exactly one winner)")
		os.Exit(1)
	}
	fmt.Println("RESULT: OK")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

