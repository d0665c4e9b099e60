package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/smilecare/dental-scheduling/internal/appointment"
	"github.com/smilecare/dental-scheduling/internal/config"
	"github.com/smilecare/dental-scheduling/internal/db"
	redisclient "github.com/smilecare/dental-scheduling/internal/redis"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().
		Str("service", "reminder-worker").
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.ReminderInterval).
		Dur("horizon", cfg.ReminderHorizon).
		Msg("starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pgPool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()

	reminder := appointment.NewReminder(
		appointment.NewPgRepository(pgPool),
		redisclient.NewRedisMarker(rdb),
		cfg.ReminderHorizon,
		log,
	)

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	// Run once on startup so a freshly deployed worker does not wait a
	// full interval.
	if err := reminder.Run(rootCtx); err != nil {
		log.Error().Err(err).Msg("reminder pass failed")
	}

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("reminder-worker stopped")
			return
		case <-ticker.C:
			if err := reminder.Run(rootCtx); err != nil {
				log.Error().Err(err).Msg("reminder pass failed")
			}
		}
	}
}
