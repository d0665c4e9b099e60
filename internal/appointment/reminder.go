package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	redisclient "github.com/smilecare/dental-scheduling/internal/redis"
)

// Reminder emits one reminder event per confirmed appointment starting
// within the horizon. The Redis marker keeps repeated worker runs from
// emitting duplicates.
type Reminder struct {
	repo    Repository
	marker  redisclient.Marker
	horizon time.Duration
	log     zerolog.Logger
}

func NewReminder(repo Repository, marker redisclient.Marker, horizon time.Duration, log zerolog.Logger) *Reminder {
	return &Reminder{
		repo:    repo,
		marker:  marker,
		horizon: horizon,
		log:     log,
	}
}

func (r *Reminder) Run(ctx context.Context) error {
	now := time.Now()
	upcoming, err := r.repo.FindConfirmedStartingBetween(ctx, now, now.Add(r.horizon))
	if err != nil {
		return fmt.Errorf("find upcoming appointments: %w", err)
	}

	for _, appt := range upcoming {
		key := fmt.Sprintf("reminder:appointment:%s", appt.ID)
		first, err := r.marker.Once(ctx, key, r.horizon+time.Hour)
		if err != nil {
			r.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("reminder marker")
			continue
		}
		if !first {
			continue
		}

		payload, _ := json.Marshal(map[string]any{
			"patient_id":   appt.PatientID.String(),
			"scheduled_at": appt.ScheduledAt,
		})

		apptID := appt.ID
		ev := EventLog{
			EventType:     EventAppointmentReminderSent,
			AppointmentID: &apptID,
			Payload:       payload,
			CreatedAt:     time.Now(),
		}
		if err := r.repo.InsertEvent(ctx, ev); err != nil {
			r.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("insert reminder event")
		}
	}

	return nil
}
