package reschedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/medvault/patient-portal/internal/observability/metrics"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/slots"
	"github.com/medvault/patient-portal/pkg/logging"
)

var rescheduleTracer = otel.Tracer("medvault.internal.reschedule")

// ErrUnknownAppointment is returned when the ledger has no such appointment.
var ErrUnknownAppointment = errors.New("reschedule: appointment not found")

// Backend is the slice of the MedVault API the service needs.
type Backend interface {
	RescheduleAppointment(ctx context.Context, sess portal.Session, req portal.RescheduleRequest) (*portal.Appointment, error)
	ListAvailableSlots(ctx context.Context, sess portal.Session, doctorID int64) ([]portal.Slot, error)
}

// Ledger is the patient's local appointment state.
type Ledger interface {
	Session() portal.Session
	Get(id int64) (portal.Appointment, bool)
	Apply(id int64, fn func(*portal.Appointment)) bool
	Refresh(ctx context.Context) error
}

// ReconcileError reports that the post-reschedule re-fetch failed. The
// reschedule itself succeeded and the optimistic state stays in place.
type ReconcileError struct {
	Err error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reschedule: reconcile appointments: %v", e.Err)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

// Outcome describes a completed reschedule.
type Outcome struct {
	Appointment    portal.Appointment       `json:"appointment"`
	PreviousStatus portal.AppointmentStatus `json:"previousStatus"`
	Reconciled     bool                     `json:"reconciled"`
}

// Message is the confirmation shown after a reschedule.
func (o Outcome) Message() string {
	if o.PreviousStatus == portal.StatusApproved {
		return "Your appointment has been rescheduled. Awaiting doctor confirmation."
	}
	return "Your appointment has been rescheduled successfully!"
}

// Service executes reschedules.
type Service struct {
	backend Backend
	loc     *time.Location
	now     func() time.Time
	logger  *logging.Logger
	metrics *metrics.PortalMetrics
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records reschedule outcomes.
func WithMetrics(m *metrics.PortalMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService builds a Service. loc is the zone of zone-less backend times.
func NewService(backend Backend, loc *time.Location, logger *logging.Logger, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		backend: backend,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check evaluates the policy for appt right now.
func (s *Service) Check(appt portal.Appointment) Decision {
	return CanReschedule(appt, s.now().In(s.loc))
}

// Options lists the slots appt could move to: the doctor's available slots
// that are still in the future.
func (s *Service) Options(ctx context.Context, sess portal.Session, appt portal.Appointment) ([]portal.Slot, error) {
	if err := s.Check(appt).Err(); err != nil {
		return nil, err
	}
	available, err := s.backend.ListAvailableSlots(ctx, sess, appt.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("reschedule: load slots: %w", err)
	}
	return slots.Bookable(available, s.now(), s.loc), nil
}

// Reschedule moves appointmentID to newSlotID. Validation and policy failures
// never reach the backend. A backend failure leaves the ledger untouched.
// After success the ledger is updated optimistically, then re-fetched; a
// failing re-fetch is reported as *ReconcileError next to a valid Outcome.
func (s *Service) Reschedule(ctx context.Context, ledger Ledger, appointmentID, newSlotID int64, reason string) (*Outcome, error) {
	reason = strings.TrimSpace(reason)
	if newSlotID <= 0 {
		s.metrics.ObserveReschedule("validation")
		return nil, &portal.ValidationError{Field: "newSlotId", Message: "select a new time slot"}
	}
	if reason == "" {
		s.metrics.ObserveReschedule("validation")
		return nil, &portal.ValidationError{Field: "reason", Message: "a reason for rescheduling is required"}
	}

	appt, ok := ledger.Get(appointmentID)
	if !ok {
		return nil, ErrUnknownAppointment
	}
	if err := s.Check(appt).Err(); err != nil {
		s.metrics.ObserveReschedule("ineligible")
		return nil, err
	}

	sess := ledger.Session()
	ctx, span := rescheduleTracer.Start(ctx, "reschedule.execute")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("medvault.patient_id", sess.PatientID),
		attribute.Int64("medvault.appointment_id", appointmentID),
		attribute.Int64("medvault.slot_id", newSlotID),
	)

	req := portal.RescheduleRequest{AppointmentID: appointmentID, NewSlotID: newSlotID, Reason: reason}
	if _, err := s.backend.RescheduleAppointment(ctx, sess, req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reschedule rejected")
		s.metrics.ObserveReschedule("backend_error")
		s.logger.Warn("reschedule rejected", "patient_id", sess.PatientID, "appointment_id", appointmentID, "error", err)
		return nil, err
	}

	previous := appt.Status
	ledger.Apply(appointmentID, func(a *portal.Appointment) {
		a.RescheduleCount++
		a.RescheduleReason = reason
		a.SlotID = newSlotID
		if a.Status == portal.StatusApproved {
			a.Status = portal.StatusPending
		}
	})

	outcome := &Outcome{PreviousStatus: previous}
	refreshErr := ledger.Refresh(ctx)
	outcome.Reconciled = refreshErr == nil
	if current, ok := ledger.Get(appointmentID); ok {
		outcome.Appointment = current
	}

	s.logger.Info("appointment rescheduled",
		"patient_id", sess.PatientID,
		"appointment_id", appointmentID,
		"new_slot_id", newSlotID,
		"previous_status", previous,
		"reconciled", outcome.Reconciled,
	)

	if refreshErr != nil {
		span.RecordError(refreshErr)
		s.metrics.ObserveReschedule("reconcile_failed")
		s.logger.Warn("reschedule reconcile failed", "appointment_id", appointmentID, "error", refreshErr)
		return outcome, &ReconcileError{Err: refreshErr}
	}
	s.metrics.ObserveReschedule("success")
	return outcome, nil
}
