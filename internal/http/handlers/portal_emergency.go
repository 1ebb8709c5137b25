package handlers

import (
	"net/http"

	"github.com/medvault/patient-portal/internal/appointments"
	"github.com/medvault/patient-portal/internal/emergency"
	"github.com/medvault/patient-portal/internal/portal"
)

// ListEmergencyRequests returns standalone emergency reports merged with
// emergency-classified appointments.
// GET /v1/emergency-requests?status=&page=
func (h *PortalHandler) ListEmergencyRequests(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ledger := appointments.NewLedger(h.backend, sess, h.logger)
	overview, err := appointments.LoadOverview(r.Context(), ledger, h.backend)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	view := appointments.BuildEmergency(overview.Requests, overview.Appointments, r.URL.Query().Get("status"), pageParam(r), h.emergencyPerPage)
	writeJSON(w, http.StatusOK, view)
}

// ReportEmergency files a standalone emergency report.
// POST /v1/emergency-requests {"urgencyLevel","symptoms","patientNotes","contactNumber"}
func (h *PortalHandler) ReportEmergency(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var sub portal.EmergencySubmission
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, h.logger, err)
		return
	}
	filed, err := emergency.NewReporter(h.backend, sess, h.logger).Report(r.Context(), sub)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, filed)
}
