package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/medvault/patient-portal/internal/booking"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/reschedule"
	"github.com/medvault/patient-portal/pkg/logging"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps the engine's error taxonomy onto HTTP statuses. Backend
// messages are passed through verbatim.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	var (
		ve *portal.ValidationError
		ee *portal.EligibilityError
		se *portal.ServerError
		ne *portal.NetworkError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.As(err, &ee):
		writeJSON(w, http.StatusConflict, errorResponse{Error: ee.Error(), Reason: ee.Reason})
	case errors.Is(err, booking.ErrWizardNotFound), errors.Is(err, reschedule.ErrUnknownAppointment):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrSubmissionInFlight), errors.Is(err, booking.ErrSuperseded), errors.Is(err, portal.ErrPrecondition):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.As(err, &se):
		switch {
		case se.Unauthorized():
			jsonError(w, se.Message, http.StatusUnauthorized)
		case se.Status >= 400 && se.Status < 600:
			jsonError(w, se.Message, se.Status)
		default:
			jsonError(w, se.Message, http.StatusBadGateway)
		}
	case errors.As(err, &ne):
		logger.Warn("medvault backend unreachable", "op", ne.Op, "error", ne.Err)
		jsonError(w, ne.Error(), http.StatusBadGateway)
	default:
		logger.Error("portal request failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &portal.ValidationError{Message: "request body is required"}
		}
		return &portal.ValidationError{Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	return nil
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("page")))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func idParam(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &portal.ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return id, nil
}
