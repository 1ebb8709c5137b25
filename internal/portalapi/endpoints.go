package portalapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/medvault/patient-portal/internal/portal"
)

// ListDoctors returns the approved-doctor directory.
func (c *Client) ListDoctors(ctx context.Context, sess portal.Session) ([]portal.Doctor, error) {
	var doctors []portal.Doctor
	err := c.do(ctx, sess, request{op: "list_doctors", method: http.MethodGet, path: "/api/patient/doctors/approved"}, &doctors)
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

// ListAvailableSlots returns the open slots of one doctor.
func (c *Client) ListAvailableSlots(ctx context.Context, sess portal.Session, doctorID int64) ([]portal.Slot, error) {
	var slots []portal.Slot
	path := fmt.Sprintf("/api/patient/doctors/%d/available-slots", doctorID)
	if err := c.do(ctx, sess, request{op: "list_slots", method: http.MethodGet, path: path}, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// CreateAppointment books req for the session's patient.
func (c *Client) CreateAppointment(ctx context.Context, sess portal.Session, req portal.BookingRequest) (*portal.Appointment, error) {
	var appt portal.Appointment
	path := fmt.Sprintf("/api/patient/appointments/%d", sess.PatientID)
	if err := c.do(ctx, sess, request{op: "create_appointment", method: http.MethodPost, path: path, body: req}, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// ListAppointments returns every appointment of the session's patient.
func (c *Client) ListAppointments(ctx context.Context, sess portal.Session) ([]portal.Appointment, error) {
	var appts []portal.Appointment
	path := fmt.Sprintf("/api/patient/appointments/%d", sess.PatientID)
	if err := c.do(ctx, sess, request{op: "list_appointments", method: http.MethodGet, path: path}, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// ListEmergencyRequests returns the patient's standalone emergency reports.
// A 404 means the patient has none.
func (c *Client) ListEmergencyRequests(ctx context.Context, sess portal.Session) ([]portal.EmergencyRequest, error) {
	reqs := []portal.EmergencyRequest{}
	path := fmt.Sprintf("/api/patient/emergency-requests/%d", sess.PatientID)
	if err := c.do(ctx, sess, request{op: "list_emergency_requests", method: http.MethodGet, path: path, notFoundEmpty: true}, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// RescheduleAppointment moves an appointment to a new slot.
func (c *Client) RescheduleAppointment(ctx context.Context, sess portal.Session, req portal.RescheduleRequest) (*portal.Appointment, error) {
	var appt portal.Appointment
	path := fmt.Sprintf("/api/patient/reschedule-appointment/%d", sess.PatientID)
	if err := c.do(ctx, sess, request{op: "reschedule_appointment", method: http.MethodPost, path: path, body: req}, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// SubmitEmergencyRequest files a standalone emergency report.
func (c *Client) SubmitEmergencyRequest(ctx context.Context, sess portal.Session, sub portal.EmergencySubmission) (*portal.EmergencyRequest, error) {
	var out portal.EmergencyRequest
	path := fmt.Sprintf("/api/patient/emergency-request/%d", sess.PatientID)
	if err := c.do(ctx, sess, request{op: "submit_emergency_request", method: http.MethodPost, path: path, body: sub}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
