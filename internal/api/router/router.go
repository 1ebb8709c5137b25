package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medvault/patient-portal/internal/http/handlers"
	httpmiddleware "github.com/medvault/patient-portal/internal/http/middleware"
	"github.com/medvault/patient-portal/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Portal             *handlers.PortalHandler
	SessionJWTSecret   string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// WriteLimiter throttles state-changing patient requests. Nil disables it.
	WriteLimiter *httpmiddleware.RateLimiter
}

// New creates the chi router for the patient portal API.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", cfg.Portal.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(httpmiddleware.SessionJWT(cfg.SessionJWTSecret))

		writes := func(next http.Handler) http.Handler { return next }
		if cfg.WriteLimiter != nil {
			writes = httpmiddleware.RateLimit(cfg.WriteLimiter)
		}

		v1.Get("/doctors", cfg.Portal.ListDoctors)
		v1.Get("/doctors/{doctorID}/slots", cfg.Portal.ListSlots)

		v1.Route("/booking/wizards", func(wz chi.Router) {
			wz.With(writes).Post("/", cfg.Portal.CreateWizard)
			wz.Route("/{wizardID}", func(one chi.Router) {
				one.Get("/", cfg.Portal.GetWizard)
				one.Delete("/", cfg.Portal.DeleteWizard)
				one.Post("/doctor", cfg.Portal.SelectDoctor)
				one.Post("/slot", cfg.Portal.SelectSlot)
				one.Post("/notes", cfg.Portal.SetNotes)
				one.Post("/back", cfg.Portal.Back)
				one.With(writes).Post("/submit", cfg.Portal.Submit)
				one.Post("/reset", cfg.Portal.Reset)
			})
		})

		v1.Get("/appointments", cfg.Portal.ListAppointments)
		v1.Get("/appointments/{appointmentID}/reschedule-options", cfg.Portal.RescheduleOptions)
		v1.With(writes).Post("/appointments/{appointmentID}/reschedule", cfg.Portal.Reschedule)

		v1.Get("/emergency-requests", cfg.Portal.ListEmergencyRequests)
		v1.With(writes).Post("/emergency-requests", cfg.Portal.ReportEmergency)
	})

	return r
}
