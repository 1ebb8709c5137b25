package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medvault/patient-portal/internal/appointments"
	"github.com/medvault/patient-portal/internal/reschedule"
	"github.com/medvault/patient-portal/internal/slots"
)

type rescheduleRequest struct {
	NewSlotID int64  `json:"newSlotId"`
	Reason    string `json:"reason"`
}

type rescheduleResponse struct {
	*reschedule.Outcome
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

type rescheduleOptionsResponse struct {
	AppointmentID int64             `json:"appointmentId"`
	Dates         []string          `json:"dates"`
	Groups        []slots.DateGroup `json:"groups"`
	Total         int               `json:"total"`
}

// ListAppointments returns one page of regular (non-emergency) appointments
// with reschedule eligibility evaluated now.
// GET /v1/appointments?status=&page=
func (h *PortalHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ledger := appointments.NewLedger(h.backend, sess, h.logger)
	if err := ledger.Refresh(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	view := appointments.BuildRegular(ledger.All(), r.URL.Query().Get("status"), pageParam(r), h.appointmentsPerPage, h.localNow())
	writeJSON(w, http.StatusOK, view)
}

// RescheduleOptions lists the future open slots an appointment can move to.
// GET /v1/appointments/{appointmentID}/reschedule-options
func (h *PortalHandler) RescheduleOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	apptID, err := idParam(chi.URLParam(r, "appointmentID"), "appointmentID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ledger := appointments.NewLedger(h.backend, sess, h.logger)
	if err := ledger.Refresh(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	appt, found := ledger.Get(apptID)
	if !found {
		writeError(w, h.logger, reschedule.ErrUnknownAppointment)
		return
	}
	options, err := h.reschedule.Options(r.Context(), sess, appt)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	grouping := slots.GroupByDate(options, h.loc)
	writeJSON(w, http.StatusOK, rescheduleOptionsResponse{
		AppointmentID: apptID,
		Dates:         grouping.Keys(),
		Groups:        grouping.Groups,
		Total:         grouping.Count(),
	})
}

// Reschedule moves an appointment to a new slot.
// POST /v1/appointments/{appointmentID}/reschedule {"newSlotId": 12, "reason": "..."}
func (h *PortalHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	apptID, err := idParam(chi.URLParam(r, "appointmentID"), "appointmentID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req rescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ledger := appointments.NewLedger(h.backend, sess, h.logger)
	if err := ledger.Refresh(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}

	outcome, err := h.reschedule.Reschedule(r.Context(), ledger, apptID, req.NewSlotID, req.Reason)
	var reconcileErr *reschedule.ReconcileError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rescheduleResponse{Outcome: outcome, Message: outcome.Message()})
	case errors.As(err, &reconcileErr):
		writeJSON(w, http.StatusOK, rescheduleResponse{
			Outcome: outcome,
			Message: outcome.Message(),
			Warning: "Rescheduled, but the latest appointment list could not be loaded. Refresh to see current status.",
		})
	default:
		writeError(w, h.logger, err)
	}
}
