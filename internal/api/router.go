package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/smilecare/dental-scheduling/internal/appointment"
	"github.com/smilecare/dental-scheduling/internal/auth"
	"github.com/smilecare/dental-scheduling/internal/catalog"
	"github.com/smilecare/dental-scheduling/internal/clinical"
	"github.com/smilecare/dental-scheduling/internal/metrics"
	"github.com/smilecare/dental-scheduling/internal/profile"
)

// AppointmentService is what the appointment handlers need from the domain
// layer.
type AppointmentService interface {
	Create(ctx context.Context, p appointment.CreateParams) (*appointment.Appointment, error)
	Claim(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error)
	Confirm(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error)
	Depart(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error)
	Arrive(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error)
	Start(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error)
	Complete(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error)
	Decline(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id, patientID uuid.UUID) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, id, patientID uuid.UUID) (*appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Detail, error)
	ListUnassigned(ctx context.Context, limit, offset int) ([]appointment.Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]appointment.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, statuses []appointment.Status, limit, offset int) ([]appointment.Appointment, error)
}

type ClinicalService interface {
	AttachPrescription(ctx context.Context, p *clinical.Prescription) (*clinical.Prescription, error)
	GetPrescription(ctx context.Context, id uuid.UUID) (*clinical.Prescription, error)
	ListPrescriptions(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]clinical.Prescription, error)
	AttachHealthRecord(ctx context.Context, hr *clinical.HealthRecord) (*clinical.HealthRecord, error)
	ListHealthRecords(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]clinical.HealthRecord, error)
	AttachConsultation(ctx context.Context, c *clinical.Consultation) (*clinical.Consultation, error)
	ListConsultations(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]clinical.Consultation, error)
}

type ProfileService interface {
	Register(ctx context.Context, p profile.RegisterParams) (*profile.Profile, error)
	Approve(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	Get(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	ListByRole(ctx context.Context, role profile.Role, limit, offset int) ([]profile.Profile, error)
}

type CatalogService interface {
	CreateService(ctx context.Context, svc *catalog.Service) (*catalog.Service, error)
	UpdateService(ctx context.Context, svc *catalog.Service) (*catalog.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
	ListServices(ctx context.Context, includeInactive bool) ([]catalog.Service, error)
	CreateOffer(ctx context.Context, o *catalog.Offer) (*catalog.Offer, error)
	ListCurrentOffers(ctx context.Context) ([]catalog.Offer, error)
}

type RouterConfig struct {
	Appointments AppointmentService
	Clinical     ClinicalService
	Profiles     ProfileService
	Catalog      CatalogService

	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	JWTSecret string
	Env       string
	Version   string
	Log       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Live)
	r.Get("/health/ready", health.Ready)
	r.Handle("/metrics", metrics.Handler())

	appts := NewAppointmentHandler(cfg.Appointments, cfg.Log)
	clin := NewClinicalHandler(cfg.Clinical, cfg.Log)
	profiles := NewProfileHandler(cfg.Profiles, cfg.Log)
	cat := NewCatalogHandler(cfg.Catalog, cfg.Log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret))

		// Any authenticated caller.
		r.Post("/profiles", profiles.Register)
		r.Get("/profiles/me", profiles.Me)
		r.Get("/services", cat.ListServices)
		r.Get("/services/{id}", cat.GetService)
		r.Get("/offers", cat.ListCurrentOffers)
		r.Get("/appointments/{id}", appts.Get)
		r.Get("/patients/{patientID}/prescriptions", clin.ListPrescriptions)
		r.Get("/patients/{patientID}/health-records", clin.ListHealthRecords)
		r.Get("/patients/{patientID}/consultations", clin.ListConsultations)
		r.Get("/prescriptions/{id}", clin.GetPrescription)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(profile.RolePatient))

			r.Post("/appointments", appts.Create)
			r.Get("/appointments/mine", appts.ListMine)
			r.Post("/appointments/{id}/cancel", appts.Cancel)
			r.Post("/appointments/{id}/reschedule", appts.Reschedule)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(profile.RoleDoctor))

			r.Get("/appointments/unassigned", appts.ListUnassigned)
			r.Get("/appointments/assigned", appts.ListAssigned)
			r.Post("/appointments/{id}/claim", appts.Claim)
			r.Post("/appointments/{id}/confirm", appts.Confirm)
			r.Post("/appointments/{id}/depart", appts.Depart)
			r.Post("/appointments/{id}/arrive", appts.Arrive)
			r.Post("/appointments/{id}/start", appts.Start)
			r.Post("/appointments/{id}/complete", appts.Complete)
			r.Post("/appointments/{id}/decline", appts.Decline)

			r.Post("/prescriptions", clin.AttachPrescription)
			r.Post("/health-records", clin.AttachHealthRecord)
			r.Post("/consultations", clin.AttachConsultation)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(profile.RoleAdmin, profile.RoleSuperadmin))

			r.Get("/profiles", profiles.ListByRole)
			r.Get("/profiles/{id}", profiles.Get)
			r.Post("/profiles/{id}/approve", profiles.Approve)
			r.Post("/profiles/{id}/deactivate", profiles.Deactivate)

			r.Post("/services", cat.CreateService)
			r.Put("/services/{id}", cat.UpdateService)
			r.Post("/offers", cat.CreateOffer)
		})
	})

	return r
}
