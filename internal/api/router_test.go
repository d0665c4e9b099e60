package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilecare/dental-scheduling/internal/appointment"
	"github.com/smilecare/dental-scheduling/internal/auth"
	"github.com/smilecare/dental-scheduling/internal/catalog"
	"github.com/smilecare/dental-scheduling/internal/clinical"
	"github.com/smilecare/dental-scheduling/internal/profile"
)

const testSecret = "router-test-secret"

type stubAppointmentService struct {
	createFn func(ctx context.Context, p appointment.CreateParams) (*appointment.Appointment, error)
	claimFn  func(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error)
	moveFn   func(ctx context.Context, id, actorID uuid.UUID) (*appointment.Appointment, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*appointment.Detail, error)
	listFn   func() ([]appointment.Appointment, error)
}

func (s *stubAppointmentService) Create(ctx context.Context, p appointment.CreateParams) (*appointment.Appointment, error) {
	return s.createFn(ctx, p)
}

func (s *stubAppointmentService) Claim(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
	return s.claimFn(ctx, id, doctorID)
}

func (s *stubAppointmentService) Confirm(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
	return s.moveFn(ctx, id, doctorID)
}

func (s *stubAppointmentService) Depart(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
	return s.moveFn(ctx, id, doctorID)
}

func (s *stubAppointmentService) Arrive(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
	return s.moveFn(ctx, id, doctorID)
}

func (s *stubAppointmentService) Start(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
	return s.moveFn(ctx, id, doctorID)
}

func (s *stubAppointmentService) Complete(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
	return s.moveFn(ctx, id, doctorID)
}

func (s *stubAppointmentService) Decline(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
	return s.moveFn(ctx, id, doctorID)
}

func (s *stubAppointmentService) Cancel(ctx context.Context, id, patientID uuid.UUID) (*appointment.Appointment, error) {
	return s.moveFn(ctx, id, patientID)
}

func (s *stubAppointmentService) Reschedule(ctx context.Context, id, patientID uuid.UUID) (*appointment.Appointment, error) {
	return s.moveFn(ctx, id, patientID)
}

func (s *stubAppointmentService) Get(ctx context.Context, id uuid.UUID) (*appointment.Detail, error) {
	return s.getFn(ctx, id)
}

func (s *stubAppointmentService) ListUnassigned(ctx context.Context, limit, offset int) ([]appointment.Appointment, error) {
	return s.listFn()
}

func (s *stubAppointmentService) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]appointment.Appointment, error) {
	return s.listFn()
}

func (s *stubAppointmentService) ListByDoctor(ctx context.Context, doctorID uuid.UUID, statuses []appointment.Status, limit, offset int) ([]appointment.Appointment, error) {
	return s.listFn()
}

type stubClinicalService struct {
	attachPrescriptionFn func(ctx context.Context, p *clinical.Prescription) (*clinical.Prescription, error)
	listPrescriptionsFn  func(ctx context.Context, patientID uuid.UUID) ([]clinical.Prescription, error)
}

func (s *stubClinicalService) AttachPrescription(ctx context.Context, p *clinical.Prescription) (*clinical.Prescription, error) {
	return s.attachPrescriptionFn(ctx, p)
}

func (s *stubClinicalService) GetPrescription(ctx context.Context, id uuid.UUID) (*clinical.Prescription, error) {
	return nil, clinical.ErrPrescriptionNotFound
}

func (s *stubClinicalService) ListPrescriptions(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]clinical.Prescription, error) {
	return s.listPrescriptionsFn(ctx, patientID)
}

func (s *stubClinicalService) AttachHealthRecord(ctx context.Context, hr *clinical.HealthRecord) (*clinical.HealthRecord, error) {
	return hr, nil
}

func (s *stubClinicalService) ListHealthRecords(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]clinical.HealthRecord, error) {
	return nil, nil
}

func (s *stubClinicalService) AttachConsultation(ctx context.Context, c *clinical.Consultation) (*clinical.Consultation, error) {
	return c, nil
}

func (s *stubClinicalService) ListConsultations(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]clinical.Consultation, error) {
	return nil, nil
}

type stubProfileService struct {
	registerFn func(ctx context.Context, p profile.RegisterParams) (*profile.Profile, error)
	approveFn  func(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

func (s *stubProfileService) Register(ctx context.Context, p profile.RegisterParams) (*profile.Profile, error) {
	return s.registerFn(ctx, p)
}

func (s *stubProfileService) Approve(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return s.approveFn(ctx, id)
}

func (s *stubProfileService) Deactivate(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return nil, profile.ErrProfileNotFound
}

func (s *stubProfileService) Get(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return &profile.Profile{ID: id, Role: profile.RolePatient, Status: profile.StatusActive}, nil
}

func (s *stubProfileService) ListByRole(ctx context.Context, role profile.Role, limit, offset int) ([]profile.Profile, error) {
	return nil, nil
}

type stubCatalogService struct {
	createServiceFn func(ctx context.Context, svc *catalog.Service) (*catalog.Service, error)
}

func (s *stubCatalogService) CreateService(ctx context.Context, svc *catalog.Service) (*catalog.Service, error) {
	return s.createServiceFn(ctx, svc)
}

func (s *stubCatalogService) UpdateService(ctx context.Context, svc *catalog.Service) (*catalog.Service, error) {
	return svc, nil
}

func (s *stubCatalogService) GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	return nil, catalog.ErrServiceNotFound
}

func (s *stubCatalogService) ListServices(ctx context.Context, includeInactive bool) ([]catalog.Service, error) {
	return []catalog.Service{{ID: uuid.New(), Name: "Teeth Cleaning", Active: true}}, nil
}

func (s *stubCatalogService) CreateOffer(ctx context.Context, o *catalog.Offer) (*catalog.Offer, error) {
	return o, nil
}

func (s *stubCatalogService) ListCurrentOffers(ctx context.Context) ([]catalog.Offer, error) {
	return nil, nil
}

type testEnv struct {
	router       http.Handler
	appointments *stubAppointmentService
	clinical     *stubClinicalService
	profiles     *stubProfileService
	catalog      *stubCatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		appointments: &stubAppointmentService{},
		clinical:     &stubClinicalService{},
		profiles:     &stubProfileService{},
		catalog:      &stubCatalogService{},
	}
	env.router = NewRouter(RouterConfig{
		Appointments: env.appointments,
		Clinical:     env.clinical,
		Profiles:     env.profiles,
		Catalog:      env.catalog,
		JWTSecret:    testSecret,
		Env:          "test",
		Version:      "test",
		Log:          zerolog.Nop(),
	})
	return env
}

func signFor(t *testing.T, id uuid.UUID, role profile.Role) string {
	t.Helper()
	token, err := auth.SignToken(id, role, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAppointmentAsPatient(t *testing.T) {
	env := newTestEnv(t)
	patientID := uuid.New()
	serviceID := uuid.New()

	env.appointments.createFn = func(ctx context.Context, p appointment.CreateParams) (*appointment.Appointment, error) {
		assert.Equal(t, patientID, p.PatientID)
		assert.Equal(t, serviceID, p.ServiceID)
		assert.Equal(t, appointment.TypeTeleconsultation, p.Type)
		return &appointment.Appointment{
			ID:        uuid.New(),
			PatientID: p.PatientID,
			ServiceID: p.ServiceID,
			Type:      p.Type,
			Status:    appointment.StatusPendingAssignment,
		}, nil
	}

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/appointments",
		signFor(t, patientID, profile.RolePatient), map[string]any{
			"service_id":       serviceID.String(),
			"appointment_type": "teleconsultation",
			"scheduled_at":     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(appointment.StatusPendingAssignment), resp.Status)
	assert.Nil(t, resp.DoctorID)
}

func TestCreateAppointmentRejectsBadBody(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/appointments",
		signFor(t, uuid.New(), profile.RolePatient), map[string]any{
			"appointment_type": "carrier_pigeon",
		})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAppointmentRequiresPatientRole(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/appointments",
		signFor(t, uuid.New(), profile.RoleDoctor), map[string]any{
			"service_id":       uuid.New().String(),
			"appointment_type": "in_person",
			"scheduled_at":     time.Now().Format(time.RFC3339),
		})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateAppointmentRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/appointments", "", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClaimReturnsTeleconsultation(t *testing.T) {
	env := newTestEnv(t)
	doctorID := uuid.New()
	apptID := uuid.New()

	appt := &appointment.Appointment{
		ID:       apptID,
		DoctorID: &doctorID,
		Type:     appointment.TypeTeleconsultation,
		Status:   appointment.StatusAssigned,
	}
	env.appointments.claimFn = func(ctx context.Context, id, claimedBy uuid.UUID) (*appointment.Appointment, error) {
		assert.Equal(t, apptID, id)
		assert.Equal(t, doctorID, claimedBy)
		return appt, nil
	}
	env.appointments.getFn = func(ctx context.Context, id uuid.UUID) (*appointment.Detail, error) {
		return &appointment.Detail{
			Appointment: *appt,
			Teleconsultation: &appointment.Teleconsultation{
				ID:         uuid.New(),
				MeetingURL: "https://meet.example.com/abc",
				Status:     appointment.TeleScheduled,
			},
		}, nil
	}

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/appointments/"+apptID.String()+"/claim",
		signFor(t, doctorID, profile.RoleDoctor), nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Teleconsultation)
	assert.Equal(t, "https://meet.example.com/abc", resp.Teleconsultation.MeetingURL)
	assert.Equal(t, string(appointment.TeleScheduled), resp.Teleconsultation.Status)
}

func TestClaimConflictMapsTo409(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.claimFn = func(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
		return nil, appointment.ErrAlreadyClaimed
	}

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/appointments/"+uuid.NewString()+"/claim",
		signFor(t, uuid.New(), profile.RoleDoctor), nil)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "already_claimed", resp.Error)
}

func TestTransitionErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid transition", appointment.ErrInvalidTransition, http.StatusConflict},
		{"terminal status", appointment.ErrTerminalStatus, http.StatusConflict},
		{"outside call window", appointment.ErrOutsideCallWindow, http.StatusConflict},
		{"wrong doctor", appointment.ErrNotAssignedDoctor, http.StatusForbidden},
		{"not found", appointment.ErrAppointmentNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.appointments.moveFn = func(ctx context.Context, id, actorID uuid.UUID) (*appointment.Appointment, error) {
				return nil, tc.err
			}

			rec := doRequest(t, env.router, http.MethodPost, "/api/v1/appointments/"+uuid.NewString()+"/start",
				signFor(t, uuid.New(), profile.RoleDoctor), nil)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCancelRequiresPatientRole(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/appointments/"+uuid.NewString()+"/cancel",
		signFor(t, uuid.New(), profile.RoleDoctor), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUnassignedRequiresDoctorRole(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.listFn = func() ([]appointment.Appointment, error) {
		return []appointment.Appointment{{ID: uuid.New(), Status: appointment.StatusPendingAssignment}}, nil
	}

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/appointments/unassigned",
		signFor(t, uuid.New(), profile.RolePatient), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, env.router, http.MethodGet, "/api/v1/appointments/unassigned",
		signFor(t, uuid.New(), profile.RoleDoctor), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestAttachPrescriptionBeforeCompletionConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.clinical.attachPrescriptionFn = func(ctx context.Context, p *clinical.Prescription) (*clinical.Prescription, error) {
		return nil, clinical.ErrAppointmentNotCompleted
	}

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/prescriptions",
		signFor(t, uuid.New(), profile.RoleDoctor), map[string]any{
			"patient_id":     uuid.NewString(),
			"appointment_id": uuid.NewString(),
			"medications": []map[string]string{
				{"name": "Amoxicillin", "dosage": "500mg"},
			},
		})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPatientCannotReadOtherPatientsPrescriptions(t *testing.T) {
	env := newTestEnv(t)
	env.clinical.listPrescriptionsFn = func(ctx context.Context, patientID uuid.UUID) ([]clinical.Prescription, error) {
		return nil, nil
	}

	otherPatient := uuid.New()
	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/patients/"+otherPatient.String()+"/prescriptions",
		signFor(t, uuid.New(), profile.RolePatient), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, env.router, http.MethodGet, "/api/v1/patients/"+otherPatient.String()+"/prescriptions",
		signFor(t, otherPatient, profile.RolePatient), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApproveProfileRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	doctorID := uuid.New()
	env.profiles.approveFn = func(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
		return &profile.Profile{ID: id, Role: profile.RoleDoctor, Status: profile.StatusActive}, nil
	}

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/profiles/"+doctorID.String()+"/approve",
		signFor(t, uuid.New(), profile.RoleDoctor), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/profiles/"+doctorID.String()+"/approve",
		signFor(t, uuid.New(), profile.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(profile.StatusActive), resp.Status)
}

func TestRegisterProfileValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/profiles",
		signFor(t, uuid.New(), profile.RolePatient), map[string]any{
			"external_id": "auth0|123",
			"name":        "Dana Doe",
			"email":       "not-an-email",
			"role":        "patient",
		})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateServiceRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.createServiceFn = func(ctx context.Context, svc *catalog.Service) (*catalog.Service, error) {
		svc.ID = uuid.New()
		return svc, nil
	}

	body := map[string]any{
		"name":             "Root Canal",
		"fee_cents":        250000,
		"duration_minutes": 90,
	}

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/services",
		signFor(t, uuid.New(), profile.RolePatient), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/services",
		signFor(t, uuid.New(), profile.RoleAdmin), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp ServiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Active)
}

func TestListServicesVisibleToAllRoles(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/services",
		signFor(t, uuid.New(), profile.RolePatient), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []ServiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Teeth Cleaning", resp[0].Name)
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
