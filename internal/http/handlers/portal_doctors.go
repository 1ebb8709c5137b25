package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medvault/patient-portal/internal/pagination"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/slots"
)

type doctorView struct {
	portal.Doctor
	DisplayName string `json:"displayName"`
}

type doctorsResponse struct {
	Page            pagination.Page[doctorView] `json:"page"`
	Pages           []pagination.Marker         `json:"pages"`
	Specializations []string                    `json:"specializations"`
}

type slotsResponse struct {
	DoctorID int64             `json:"doctorId"`
	Dates    []string          `json:"dates"`
	Groups   []slots.DateGroup `json:"groups"`
	Total    int               `json:"total"`
	Excluded int               `json:"excluded"`
}

// ListDoctors returns one page of the filtered doctor directory.
// GET /v1/doctors?specialization=&q=&page=
func (h *PortalHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	all, err := h.doctors.ListDoctors(r.Context(), sess)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	filtered := slots.FilterDoctors(all, strings.TrimSpace(q.Get("specialization")), q.Get("q"))
	views := make([]doctorView, 0, len(filtered))
	for _, d := range filtered {
		views = append(views, doctorView{Doctor: d, DisplayName: d.DisplayName()})
	}

	page := pagination.Paginate(views, h.doctorsPerPage, pageParam(r))
	writeJSON(w, http.StatusOK, doctorsResponse{
		Page:            page,
		Pages:           pagination.PageNumbers(page.CurrentPage, page.TotalPages),
		Specializations: slots.Specializations(all),
	})
}

// ListSlots returns a doctor's slots grouped by local calendar date.
// GET /v1/doctors/{doctorID}/slots?date=
func (h *PortalHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	doctorID, err := idParam(chi.URLParam(r, "doctorID"), "doctorID")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	list, err := h.backend.ListAvailableSlots(r.Context(), sess, doctorID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	grouping := slots.GroupByDate(list, h.loc)
	for _, pe := range grouping.Excluded {
		h.logger.Warn("slot excluded from grouping", "doctor_id", doctorID, "field", pe.Field, "value", pe.Value)
	}
	writeJSON(w, http.StatusOK, slotsResponse{
		DoctorID: doctorID,
		Dates:    grouping.Keys(),
		Groups:   grouping.Filter(r.URL.Query().Get("date")),
		Total:    grouping.Count(),
		Excluded: len(grouping.Excluded),
	})
}
