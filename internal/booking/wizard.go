// Package booking drives the patient booking flow: choose a doctor, pick one
// of the doctor's open slots, confirm with optional notes, submit once.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/medvault/patient-portal/internal/emergency"
	"github.com/medvault/patient-portal/internal/observability/metrics"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/pkg/logging"
)

var wizardTracer = otel.Tracer("medvault.internal.booking")

// State is a step of the booking wizard.
type State string

const (
	StateChoosingDoctor State = "choosing_doctor"
	StateSelectingSlot  State = "selecting_slot"
	StateConfirming     State = "confirming"
	StateSubmitting     State = "submitting"
	StateSuccess        State = "success"
	StateFailed         State = "failed"
)

var (
	// ErrSubmissionInFlight rejects a second submit while the first is pending.
	ErrSubmissionInFlight = errors.New("booking: submission already in flight")
	// ErrSuperseded marks a slot fetch whose doctor selection was replaced
	// before the response arrived. The response is discarded.
	ErrSuperseded = errors.New("booking: selection superseded")
)

// SlotSource loads a doctor's open slots.
type SlotSource interface {
	ListAvailableSlots(ctx context.Context, sess portal.Session, doctorID int64) ([]portal.Slot, error)
}

// Submitter creates the appointment.
type Submitter interface {
	CreateAppointment(ctx context.Context, sess portal.Session, req portal.BookingRequest) (*portal.Appointment, error)
}

// Snapshot is a point-in-time copy of a wizard.
type Snapshot struct {
	State       State               `json:"state"`
	Doctor      *portal.Doctor      `json:"doctor,omitempty"`
	Slots       []portal.Slot       `json:"slots"`
	Slot        *portal.Slot        `json:"slot,omitempty"`
	Notes       string              `json:"notes"`
	Loading     bool                `json:"loading"`
	Error       string              `json:"error,omitempty"`
	Appointment *portal.Appointment `json:"appointment,omitempty"`
}

// Wizard is one patient's booking flow. It is safe for concurrent use and
// never holds its lock across a backend call.
type Wizard struct {
	source    SlotSource
	submitter Submitter
	logger    *logging.Logger
	metrics   *metrics.PortalMetrics

	mu          sync.Mutex
	sess        portal.Session
	state       State
	generation  uint64
	doctor      *portal.Doctor
	slots       []portal.Slot
	slot        *portal.Slot
	notes       string
	loading     bool
	lastErr     error
	appointment *portal.Appointment
}

// NewWizard starts a wizard in ChoosingDoctor for the session's patient.
func NewWizard(source SlotSource, submitter Submitter, sess portal.Session, logger *logging.Logger, m *metrics.PortalMetrics) *Wizard {
	if logger == nil {
		logger = logging.Default()
	}
	return &Wizard{
		source:    source,
		submitter: submitter,
		logger:    logger.With("patient_id", sess.PatientID),
		metrics:   m,
		sess:      sess,
		state:     StateChoosingDoctor,
	}
}

// SelectDoctor picks a doctor and loads the doctor's slots. Any chosen slot
// and notes are cleared. Valid from ChoosingDoctor and SelectingSlot.
func (w *Wizard) SelectDoctor(ctx context.Context, doctor portal.Doctor) error {
	w.mu.Lock()
	if w.state != StateChoosingDoctor && w.state != StateSelectingSlot {
		state := w.state
		w.mu.Unlock()
		return fmt.Errorf("%w: select doctor while %s", portal.ErrPrecondition, state)
	}
	w.generation++
	gen := w.generation
	d := doctor
	w.doctor = &d
	w.slots = nil
	w.slot = nil
	w.notes = ""
	w.lastErr = nil
	w.loading = true
	w.transitionLocked(StateSelectingSlot)
	sess := w.sess
	w.mu.Unlock()

	slots, err := w.source.ListAvailableSlots(ctx, sess, doctor.ID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		w.logger.Debug("discarding superseded slot fetch", "doctor_id", doctor.ID)
		return ErrSuperseded
	}
	w.loading = false
	if err != nil {
		w.lastErr = err
		w.logger.Warn("slot fetch failed", "doctor_id", doctor.ID, "error", err)
		return fmt.Errorf("booking: load slots: %w", err)
	}
	if slots == nil {
		slots = []portal.Slot{}
	}
	w.slots = slots
	return nil
}

// SelectSlot chooses one of the loaded slots and moves to Confirming.
func (w *Wizard) SelectSlot(slotID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSelectingSlot || w.loading {
		return fmt.Errorf("%w: select slot while %s", portal.ErrPrecondition, w.state)
	}
	for _, s := range w.slots {
		if s.ID != slotID {
			continue
		}
		if !s.IsAvailable {
			return &portal.ValidationError{Field: "slotId", Message: "slot is no longer available"}
		}
		chosen := s
		w.slot = &chosen
		w.lastErr = nil
		w.transitionLocked(StateConfirming)
		return nil
	}
	return &portal.ValidationError{Field: "slotId", Message: "slot is not offered by the selected doctor"}
}

// SetNotes records free-text notes for the booking.
func (w *Wizard) SetNotes(notes string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateConfirming && w.state != StateFailed {
		return fmt.Errorf("%w: set notes while %s", portal.ErrPrecondition, w.state)
	}
	w.notes = notes
	return nil
}

// Back steps one screen back, dropping whatever the later screens chose.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateSelectingSlot:
		w.generation++
		w.doctor = nil
		w.slots = nil
		w.slot = nil
		w.notes = ""
		w.loading = false
		w.lastErr = nil
		w.transitionLocked(StateChoosingDoctor)
	case StateConfirming:
		w.slot = nil
		w.notes = ""
		w.transitionLocked(StateSelectingSlot)
	case StateFailed:
		w.lastErr = nil
		w.transitionLocked(StateConfirming)
	default:
		return fmt.Errorf("%w: back while %s", portal.ErrPrecondition, w.state)
	}
	return nil
}

// Submit sends the booking. The wizard enters Submitting before the call
// goes out, so a concurrent Submit fails fast with ErrSubmissionInFlight.
// On failure every selection is kept; Back returns to Confirming for a retry.
func (w *Wizard) Submit(ctx context.Context) (*portal.Appointment, error) {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if w.state != StateConfirming {
		state := w.state
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: submit while %s", portal.ErrPrecondition, state)
	}
	if w.doctor == nil || w.slot == nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: submit requires doctor and slot", portal.ErrPrecondition)
	}
	req := portal.BookingRequest{
		DoctorID:     w.doctor.ID,
		SlotID:       w.slot.ID,
		PatientNotes: strings.TrimSpace(w.notes),
	}
	sess := w.sess
	w.lastErr = nil
	w.transitionLocked(StateSubmitting)
	w.mu.Unlock()

	ctx, span := wizardTracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("medvault.patient_id", sess.PatientID),
		attribute.Int64("medvault.doctor_id", req.DoctorID),
		attribute.Int64("medvault.slot_id", req.SlotID),
	)

	appt, err := w.submitter.CreateAppointment(ctx, sess, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "booking failed")
		w.lastErr = err
		w.transitionLocked(StateFailed)
		w.logger.Warn("booking submission failed", "doctor_id", req.DoctorID, "slot_id", req.SlotID, "error", err)
		return nil, err
	}
	w.appointment = appt
	w.transitionLocked(StateSuccess)
	urgent := emergency.IsEmergency(req.PatientNotes)
	w.metrics.ObserveClassification(urgent)
	w.logger.Info("booking submitted", "doctor_id", req.DoctorID, "slot_id", req.SlotID, "emergency", urgent)
	return appt, nil
}

// BookAnother clears every selection after a successful booking.
func (w *Wizard) BookAnother() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSuccess {
		return fmt.Errorf("%w: book another while %s", portal.ErrPrecondition, w.state)
	}
	w.generation++
	w.doctor = nil
	w.slots = nil
	w.slot = nil
	w.notes = ""
	w.loading = false
	w.lastErr = nil
	w.appointment = nil
	w.transitionLocked(StateChoosingDoctor)
	return nil
}

// State returns the current step.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot copies the wizard state.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := Snapshot{
		State:   w.state,
		Slots:   append([]portal.Slot{}, w.slots...),
		Notes:   w.notes,
		Loading: w.loading,
	}
	if w.doctor != nil {
		d := *w.doctor
		snap.Doctor = &d
	}
	if w.slot != nil {
		s := *w.slot
		snap.Slot = &s
	}
	if w.appointment != nil {
		a := *w.appointment
		snap.Appointment = &a
	}
	if w.lastErr != nil {
		snap.Error = w.lastErr.Error()
	}
	return snap
}

func (w *Wizard) renewSession(sess portal.Session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if sess.PatientID == w.sess.PatientID && sess.Token != "" {
		w.sess.Token = sess.Token
	}
}

func (w *Wizard) transitionLocked(to State) {
	from := w.state
	w.state = to
	if from != to {
		w.metrics.ObserveWizardTransition(string(from), string(to))
	}
}
