package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/medvault/patient-portal/internal/booking"
	httpmiddleware "github.com/medvault/patient-portal/internal/http/middleware"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/reschedule"
	"github.com/medvault/patient-portal/pkg/logging"
)

// DoctorDirectory serves the approved-doctor list.
type DoctorDirectory interface {
	ListDoctors(ctx context.Context, sess portal.Session) ([]portal.Doctor, error)
}

// PortalBackend is the part of the MedVault API the handlers call directly.
type PortalBackend interface {
	ListAvailableSlots(ctx context.Context, sess portal.Session, doctorID int64) ([]portal.Slot, error)
	ListAppointments(ctx context.Context, sess portal.Session) ([]portal.Appointment, error)
	ListEmergencyRequests(ctx context.Context, sess portal.Session) ([]portal.EmergencyRequest, error)
	SubmitEmergencyRequest(ctx context.Context, sess portal.Session, sub portal.EmergencySubmission) (*portal.EmergencyRequest, error)
}

// PortalConfig wires a PortalHandler.
type PortalConfig struct {
	Doctors    DoctorDirectory
	Backend    PortalBackend
	Wizards    *booking.Registry
	Reschedule *reschedule.Service
	Location   *time.Location
	Now        func() time.Time
	Logger     *logging.Logger

	DoctorsPerPage      int
	AppointmentsPerPage int
	EmergencyPerPage    int
}

// PortalHandler is the patient-facing JSON API over the appointment engine.
type PortalHandler struct {
	doctors    DoctorDirectory
	backend    PortalBackend
	wizards    *booking.Registry
	reschedule *reschedule.Service
	loc        *time.Location
	now        func() time.Time
	logger     *logging.Logger

	doctorsPerPage      int
	appointmentsPerPage int
	emergencyPerPage    int
}

// NewPortalHandler creates a PortalHandler.
func NewPortalHandler(cfg PortalConfig) *PortalHandler {
	h := &PortalHandler{
		doctors:             cfg.Doctors,
		backend:             cfg.Backend,
		wizards:             cfg.Wizards,
		reschedule:          cfg.Reschedule,
		loc:                 cfg.Location,
		now:                 cfg.Now,
		logger:              cfg.Logger,
		doctorsPerPage:      cfg.DoctorsPerPage,
		appointmentsPerPage: cfg.AppointmentsPerPage,
		emergencyPerPage:    cfg.EmergencyPerPage,
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.logger == nil {
		h.logger = logging.Default()
	}
	if h.doctorsPerPage < 1 {
		h.doctorsPerPage = 8
	}
	if h.appointmentsPerPage < 1 {
		h.appointmentsPerPage = 5
	}
	if h.emergencyPerPage < 1 {
		h.emergencyPerPage = 6
	}
	return h
}

// HealthCheck reports liveness.
// GET /health
func (h *PortalHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *PortalHandler) session(w http.ResponseWriter, r *http.Request) (portal.Session, bool) {
	sess, ok := httpmiddleware.SessionFromContext(r.Context())
	if !ok {
		jsonError(w, "not signed in", http.StatusUnauthorized)
	}
	return sess, ok
}

func (h *PortalHandler) localNow() time.Time {
	return h.now().In(h.loc)
}
