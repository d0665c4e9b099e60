package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilecare/dental-scheduling/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		MeetingBaseURL: "https://meet.smilecare.local",
		CallWindowLead: 15 * time.Minute,
		CallWindowLag:  60 * time.Minute,
	}
}

func newTestService(repo Repository) *Service {
	return NewService(repo, passLocker{}, testConfig(), zerolog.Nop())
}

func createInPerson(t *testing.T, svc *Service, patientID uuid.UUID) *Appointment {
	t.Helper()
	addr := uuid.New()
	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID:   patientID,
		ServiceID:   uuid.New(),
		Type:        TypeInPerson,
		AddressID:   &addr,
		ScheduledAt: time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	return appt
}

func createTeleconsultation(t *testing.T, svc *Service, patientID uuid.UUID, scheduledAt time.Time) *Appointment {
	t.Helper()
	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID:   patientID,
		ServiceID:   uuid.New(),
		Type:        TypeTeleconsultation,
		ScheduledAt: scheduledAt,
	})
	require.NoError(t, err)
	return appt
}

func TestCreateStartsUnassigned(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	appt := createInPerson(t, svc, uuid.New())

	assert.Equal(t, StatusPendingAssignment, appt.Status)
	assert.Nil(t, appt.DoctorID)
	assert.Equal(t, PaymentPending, appt.PaymentStatus)
	assert.Len(t, repo.eventsOfType(EventAppointmentRequested), 1)
}

func TestCreateInPersonRequiresAddress(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateParams{
		PatientID:   uuid.New(),
		ServiceID:   uuid.New(),
		Type:        TypeInPerson,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrAddressRequired)
}

func TestCreateTeleconsultationDropsAddress(t *testing.T) {
	svc := newTestService(newFakeRepo())

	addr := uuid.New()
	appt, err := svc.Create(context.Background(), CreateParams{
		PatientID:   uuid.New(),
		ServiceID:   uuid.New(),
		Type:        TypeTeleconsultation,
		AddressID:   &addr,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Nil(t, appt.AddressID)
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateParams{
		ServiceID:   uuid.New(),
		Type:        TypeTeleconsultation,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.Create(context.Background(), CreateParams{
		PatientID:   uuid.New(),
		Type:        TypeTeleconsultation,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestClaimAssignsDoctor(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	appt := createInPerson(t, svc, uuid.New())
	doctorID := uuid.New()

	claimed, err := svc.Claim(context.Background(), appt.ID, doctorID)
	require.NoError(t, err)

	assert.Equal(t, StatusAssigned, claimed.Status)
	require.NotNil(t, claimed.DoctorID)
	assert.Equal(t, doctorID, *claimed.DoctorID)
	require.NotNil(t, claimed.AssignedAt)
	assert.Nil(t, claimed.TeleconsultationID)
	assert.Len(t, repo.eventsOfType(EventAppointmentClaimed), 1)
}

func TestClaimRejectsSecondDoctor(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	appt := createInPerson(t, svc, uuid.New())
	first := uuid.New()
	second := uuid.New()

	_, err := svc.Claim(context.Background(), appt.ID, first)
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), appt.ID, second)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	// the first doctor stays bound
	got, err := repo.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DoctorID)
	assert.Equal(t, first, *got.DoctorID)
}

func TestClaimFailsFastWhenLockHeld(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, busyLocker{}, testConfig(), zerolog.Nop())

	appt := createInPerson(t, svc, uuid.New())

	_, err := svc.Claim(context.Background(), appt.ID, uuid.New())
	assert.ErrorIs(t, err, ErrClaimInProgress)

	got, err := repo.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingAssignment, got.Status)
	assert.Nil(t, got.DoctorID)
}

func TestClaimProvisionsTeleconsultation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	appt := createTeleconsultation(t, svc, uuid.New(), time.Now().Add(2*time.Hour))

	claimed, err := svc.Claim(context.Background(), appt.ID, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, claimed.TeleconsultationID)

	tele, err := repo.GetTeleconsultation(context.Background(), *claimed.TeleconsultationID)
	require.NoError(t, err)
	assert.Equal(t, TeleScheduled, tele.Status)
	assert.NotEmpty(t, tele.MeetingURL)
	assert.Contains(t, tele.MeetingURL, "https://meet.smilecare.local/")
	assert.Len(t, repo.eventsOfType(EventTeleconsultationScheduled), 1)
}

func TestClaimAbortsWhenProvisioningFails(t *testing.T) {
	repo := newFakeRepo()
	repo.failTeleInsert = errors.New("store unavailable")
	svc := newTestService(repo)

	appt := createTeleconsultation(t, svc, uuid.New(), time.Now().Add(2*time.Hour))

	_, err := svc.Claim(context.Background(), appt.ID, uuid.New())
	require.Error(t, err)

	// the claim did not half-apply
	got, err := repo.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingAssignment, got.Status)
	assert.Nil(t, got.DoctorID)
	assert.Nil(t, got.TeleconsultationID)
}

func TestInPersonNoTeleconsultationCreated(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	appt := createInPerson(t, svc, uuid.New())
	_, err := svc.Claim(context.Background(), appt.ID, uuid.New())
	require.NoError(t, err)

	assert.Empty(t, repo.teles)
}

func TestDoctorDrivenLifecycle(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	appt := createInPerson(t, svc, uuid.New())
	doctorID := uuid.New()

	_, err := svc.Claim(ctx, appt.ID, doctorID)
	require.NoError(t, err)

	got, err := svc.Confirm(ctx, appt.ID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	got, err = svc.Depart(ctx, appt.ID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, StatusOnTheWay, got.Status)

	got, err = svc.Arrive(ctx, appt.ID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, StatusArrived, got.Status)

	got, err = svc.Start(ctx, appt.ID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, StatusServiceStarted, got.Status)
	require.NotNil(t, got.StartedAt)

	got, err = svc.Complete(ctx, appt.ID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	// terminal: a late decline must be rejected
	_, err = svc.Decline(ctx, appt.ID, doctorID)
	assert.ErrorIs(t, err, ErrTerminalStatus)
}

func TestTransitionRejectsOtherDoctor(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	appt := createInPerson(t, svc, uuid.New())
	doctorID := uuid.New()

	_, err := svc.Claim(ctx, appt.ID, doctorID)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, appt.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotAssignedDoctor)
}

func TestCancelRequiresOwningPatient(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	patientID := uuid.New()
	appt := createInPerson(t, svc, patientID)

	_, err := svc.Cancel(ctx, appt.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotAppointmentPatient)

	got, err := svc.Cancel(ctx, appt.ID, patientID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelledByPatient, got.Status)
	require.NotNil(t, got.ClosedAt)
}

func TestRescheduleIsTerminal(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	patientID := uuid.New()
	appt := createInPerson(t, svc, patientID)

	_, err := svc.Reschedule(ctx, appt.ID, patientID)
	require.NoError(t, err)

	_, err = svc.Claim(ctx, appt.ID, uuid.New())
	require.Error(t, err)
}

func TestTeleconsultationCallWindow(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, scheduledAt time.Time) (*Service, *fakeRepo, uuid.UUID, uuid.UUID) {
		repo := newFakeRepo()
		svc := newTestService(repo)
		appt := createTeleconsultation(t, svc, uuid.New(), scheduledAt)
		doctorID := uuid.New()
		_, err := svc.Claim(ctx, appt.ID, doctorID)
		require.NoError(t, err)
		_, err = svc.Confirm(ctx, appt.ID, doctorID)
		require.NoError(t, err)
		return svc, repo, appt.ID, doctorID
	}

	t.Run("too early", func(t *testing.T) {
		svc, _, id, doctorID := setup(t, time.Now().Add(2*time.Hour))
		_, err := svc.Start(ctx, id, doctorID)
		assert.ErrorIs(t, err, ErrOutsideCallWindow)
	})

	t.Run("too late", func(t *testing.T) {
		svc, _, id, doctorID := setup(t, time.Now().Add(-3*time.Hour))
		_, err := svc.Start(ctx, id, doctorID)
		assert.ErrorIs(t, err, ErrOutsideCallWindow)
	})

	t.Run("inside window mirrors sub-entity", func(t *testing.T) {
		svc, repo, id, doctorID := setup(t, time.Now().Add(5*time.Minute))
		got, err := svc.Start(ctx, id, doctorID)
		require.NoError(t, err)
		assert.Equal(t, StatusServiceStarted, got.Status)

		require.NotNil(t, got.TeleconsultationID)
		tele, err := repo.GetTeleconsultation(ctx, *got.TeleconsultationID)
		require.NoError(t, err)
		assert.Equal(t, TeleInProgress, tele.Status)
	})
}

func TestTerminalTransitionCancelsTeleconsultation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	patientID := uuid.New()
	appt := createTeleconsultation(t, svc, patientID, time.Now().Add(time.Hour))
	doctorID := uuid.New()

	claimed, err := svc.Claim(ctx, appt.ID, doctorID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, appt.ID, patientID)
	require.NoError(t, err)

	tele, err := repo.GetTeleconsultation(ctx, *claimed.TeleconsultationID)
	require.NoError(t, err)
	assert.Equal(t, TeleCancelled, tele.Status)
}

func TestGetHydratesTeleconsultation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	appt := createTeleconsultation(t, svc, uuid.New(), time.Now().Add(time.Hour))
	_, err := svc.Claim(ctx, appt.ID, uuid.New())
	require.NoError(t, err)

	detail, err := svc.Get(ctx, appt.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Teleconsultation)
	assert.Equal(t, appt.ID, detail.Teleconsultation.AppointmentID)
}

func TestDoctorIDNilIffPendingAssignment(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	patientID := uuid.New()
	appt := createInPerson(t, svc, patientID)
	doctorID := uuid.New()

	check := func() {
		got, err := repo.GetByID(ctx, appt.ID)
		require.NoError(t, err)
		if got.Status == StatusPendingAssignment {
			assert.Nil(t, got.DoctorID)
		} else {
			assert.NotNil(t, got.DoctorID)
		}
	}

	check()
	_, err := svc.Claim(ctx, appt.ID, doctorID)
	require.NoError(t, err)
	check()
	_, err = svc.Confirm(ctx, appt.ID, doctorID)
	require.NoError(t, err)
	check()
	_, err = svc.Decline(ctx, appt.ID, doctorID)
	require.NoError(t, err)
	check()
}

func TestReminderEmitsOncePerAppointment(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	appt := createInPerson(t, svc, uuid.New())
	doctorID := uuid.New()
	_, err := svc.Claim(ctx, appt.ID, doctorID)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, appt.ID, doctorID)
	require.NoError(t, err)

	reminder := NewReminder(repo, newFakeMarker(), 24*time.Hour, zerolog.Nop())

	require.NoError(t, reminder.Run(ctx))
	require.NoError(t, reminder.Run(ctx))

	assert.Len(t, repo.eventsOfType(EventAppointmentReminderSent), 1)
}
