package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medvault/patient-portal/internal/booking"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/slots"
)

type wizardResponse struct {
	ID string `json:"id"`
	booking.Snapshot
	Dates  []string          `json:"dates"`
	Groups []slots.DateGroup `json:"groups"`
}

type selectDoctorRequest struct {
	DoctorID int64 `json:"doctorId"`
}

type selectSlotRequest struct {
	SlotID int64 `json:"slotId"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// CreateWizard starts a booking flow.
// POST /v1/booking/wizards
func (h *PortalHandler) CreateWizard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, wiz := h.wizards.Create(sess)
	writeJSON(w, http.StatusCreated, h.wizardView(id, wiz))
}

// GetWizard returns the current wizard state.
// GET /v1/booking/wizards/{wizardID}
func (h *PortalHandler) GetWizard(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(id string, wiz *booking.Wizard) {
		writeJSON(w, http.StatusOK, h.wizardView(id, wiz))
	})
}

// DeleteWizard abandons a booking flow.
// DELETE /v1/booking/wizards/{wizardID}
func (h *PortalHandler) DeleteWizard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.wizards.Delete(chi.URLParam(r, "wizardID"), sess)
	w.WriteHeader(http.StatusNoContent)
}

// SelectDoctor picks the doctor and loads the doctor's slots.
// POST /v1/booking/wizards/{wizardID}/doctor {"doctorId": 7}
func (h *PortalHandler) SelectDoctor(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(id string, wiz *booking.Wizard) {
		var req selectDoctorRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		sess, _ := h.session(w, r)
		doctor, err := h.findDoctor(r, sess, req.DoctorID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if err := wiz.SelectDoctor(r.Context(), doctor); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, h.wizardView(id, wiz))
	})
}

// SelectSlot picks one of the loaded slots.
// POST /v1/booking/wizards/{wizardID}/slot {"slotId": 11}
func (h *PortalHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(id string, wiz *booking.Wizard) {
		var req selectSlotRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		if err := wiz.SelectSlot(req.SlotID); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, h.wizardView(id, wiz))
	})
}

// SetNotes records the patient's notes.
// POST /v1/booking/wizards/{wizardID}/notes {"notes": "..."}
func (h *PortalHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(id string, wiz *booking.Wizard) {
		var req notesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		if err := wiz.SetNotes(req.Notes); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, h.wizardView(id, wiz))
	})
}

// Back returns to the previous step.
// POST /v1/booking/wizards/{wizardID}/back
func (h *PortalHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(id string, wiz *booking.Wizard) {
		if err := wiz.Back(); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, h.wizardView(id, wiz))
	})
}

// Submit books the confirmed selection.
// POST /v1/booking/wizards/{wizardID}/submit
func (h *PortalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(id string, wiz *booking.Wizard) {
		if _, err := wiz.Submit(r.Context()); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, h.wizardView(id, wiz))
	})
}

// Reset starts over after a successful booking.
// POST /v1/booking/wizards/{wizardID}/reset
func (h *PortalHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(id string, wiz *booking.Wizard) {
		if err := wiz.BookAnother(); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, h.wizardView(id, wiz))
	})
}

func (h *PortalHandler) withWizard(w http.ResponseWriter, r *http.Request, fn func(id string, wiz *booking.Wizard)) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "wizardID")
	wiz, err := h.wizards.Get(id, sess)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	fn(id, wiz)
}

func (h *PortalHandler) findDoctor(r *http.Request, sess portal.Session, doctorID int64) (portal.Doctor, error) {
	if doctorID <= 0 {
		return portal.Doctor{}, &portal.ValidationError{Field: "doctorId", Message: "choose a doctor"}
	}
	doctors, err := h.doctors.ListDoctors(r.Context(), sess)
	if err != nil {
		return portal.Doctor{}, err
	}
	for _, d := range doctors {
		if d.ID == doctorID {
			return d, nil
		}
	}
	return portal.Doctor{}, &portal.ValidationError{Field: "doctorId", Message: "doctor is not in the approved directory"}
}

func (h *PortalHandler) wizardView(id string, wiz *booking.Wizard) wizardResponse {
	snap := wiz.Snapshot()
	grouping := slots.GroupByDate(snap.Slots, h.loc)
	return wizardResponse{
		ID:       id,
		Snapshot: snap,
		Dates:    grouping.Keys(),
		Groups:   grouping.Groups,
	}
}
