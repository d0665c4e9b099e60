package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/smilecare/dental-scheduling/internal/redis"
)

// fakeRepo is an in-memory Repository with the same compare-and-set
// semantics as the Postgres implementation.
type fakeRepo struct {
	mu             sync.Mutex
	appointments   map[uuid.UUID]*Appointment
	teles          map[uuid.UUID]*Teleconsultation
	events         []EventLog
	failTeleInsert error // when set, Claim with a teleconsultation fails atomically
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		appointments: make(map[uuid.UUID]*Appointment),
		teles:        make(map[uuid.UUID]*Teleconsultation),
	}
}

func (f *fakeRepo) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	cp := *appt
	cp.ID = uuid.New()
	cp.Status = StatusPendingAssignment
	cp.PaymentStatus = PaymentPending
	cp.CreatedAt = now
	cp.UpdatedAt = now
	f.appointments[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeRepo) ListUnassigned(ctx context.Context, limit, offset int) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []Appointment
	for _, a := range f.appointments {
		if a.Status == StatusPendingAssignment {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (f *fakeRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []Appointment
	for _, a := range f.appointments {
		if a.PatientID == patientID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (f *fakeRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID, statuses []Status, limit, offset int) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []Appointment
	for _, a := range f.appointments {
		if a.DoctorID == nil || *a.DoctorID != doctorID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, st := range statuses {
				if a.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, *a)
	}
	return result, nil
}

func (f *fakeRepo) Claim(ctx context.Context, id, doctorID uuid.UUID, tele *Teleconsultation) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != StatusPendingAssignment || a.DoctorID != nil {
		return nil, ErrAlreadyClaimed
	}
	if tele != nil && f.failTeleInsert != nil {
		// whole claim aborts, nothing written
		return nil, f.failTeleInsert
	}

	now := time.Now()
	doc := doctorID
	a.DoctorID = &doc
	a.Status = StatusAssigned
	a.AssignedAt = &now
	a.UpdatedAt = now

	if tele != nil {
		cp := *tele
		cp.CreatedAt = now
		cp.UpdatedAt = now
		f.teles[cp.ID] = &cp
		teleID := cp.ID
		a.TeleconsultationID = &teleID
	}

	out := *a
	return &out, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, teleStatus TeleStatus) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != from {
		return nil, ErrStaleStatus
	}

	now := time.Now()
	a.Status = to
	a.UpdatedAt = now
	switch to {
	case StatusConfirmed:
		a.ConfirmedAt = &now
	case StatusOnTheWay:
		a.DepartedAt = &now
	case StatusArrived:
		a.ArrivedAt = &now
	case StatusServiceStarted:
		a.StartedAt = &now
	case StatusCompleted:
		a.CompletedAt = &now
	case StatusCancelledByPatient, StatusDeclinedByDoctor, StatusRescheduled:
		a.ClosedAt = &now
	}

	if teleStatus != "" && a.TeleconsultationID != nil {
		if tele, ok := f.teles[*a.TeleconsultationID]; ok {
			tele.Status = teleStatus
			tele.UpdatedAt = now
		}
	}

	out := *a
	return &out, nil
}

func (f *fakeRepo) GetTeleconsultation(ctx context.Context, id uuid.UUID) (*Teleconsultation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.teles[id]
	if !ok {
		return nil, ErrTeleconsultationNotFound
	}
	out := *t
	return &out, nil
}

func (f *fakeRepo) FindConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []Appointment
	for _, a := range f.appointments {
		if a.Status == StatusConfirmed && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (f *fakeRepo) InsertEvent(ctx context.Context, ev EventLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeRepo) eventsOfType(eventType string) []EventLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []EventLog
	for _, ev := range f.events {
		if ev.EventType == eventType {
			result = append(result, ev)
		}
	}
	return result
}

// passLocker runs the critical section immediately.
type passLocker struct{}

func (passLocker) WithAppointmentLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// busyLocker simulates another claim holding the lock.
type busyLocker struct{}

func (busyLocker) WithAppointmentLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

// fakeMarker remembers keys it has seen.
type fakeMarker struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeMarker() *fakeMarker {
	return &fakeMarker{seen: make(map[string]bool)}
}

func (m *fakeMarker) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}
