// Package portal holds the data contracts the appointment engine shares with
// the MedVault backend, plus the error taxonomy every engine package reports.
package portal

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus is the backend lifecycle status of a booking.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusApproved  AppointmentStatus = "APPROVED"
	StatusRejected  AppointmentStatus = "REJECTED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// Availability reports whether a slot can still be booked.
type Availability string

const (
	Available Availability = "Available"
	Booked    Availability = "Booked"
)

// Session identifies the signed-in patient. It is passed explicitly to every
// component that acts on the patient's behalf.
type Session struct {
	PatientID int64
	Token     string
}

// Valid reports whether the session carries a patient identity.
func (s Session) Valid() bool {
	return s.PatientID > 0
}

// Doctor is read-only reference data from the approved-doctor directory.
type Doctor struct {
	ID                int64   `json:"id"`
	FirstName         string  `json:"firstName"`
	LastName          string  `json:"lastName"`
	Specialization    string  `json:"specialization"`
	YearsOfExperience int     `json:"yearsOfExperience"`
	ConsultationFees  float64 `json:"consultationFees,omitempty"`
	Qualification     string  `json:"qualification,omitempty"`
	LanguagesSpoken   string  `json:"languagesSpoken,omitempty"`
	ContactNumber     string  `json:"contactNumber,omitempty"`
	Email             string  `json:"email,omitempty"`
}

// DisplayName renders "Dr. First Last" without doubling an existing prefix.
func (d Doctor) DisplayName() string {
	return FormatDoctorName(strings.TrimSpace(d.FirstName + " " + d.LastName))
}

// FormatDoctorName normalizes a free-form doctor name to a single "Dr. " prefix.
func FormatDoctorName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Doctor Name Unavailable"
	}
	for {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "dr.") {
			break
		}
		name = strings.TrimSpace(name[len("dr."):])
	}
	return "Dr. " + name
}

// Slot is a bookable time window owned by exactly one doctor. Times are kept
// in their wire form and parsed on demand so one malformed record cannot
// poison a whole listing.
type Slot struct {
	ID              int64  `json:"id"`
	DoctorID        int64  `json:"doctorId"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	IsAvailable     bool   `json:"isAvailable"`
	Duration        int    `json:"duration,omitempty"`
	AppointmentType string `json:"appointmentType,omitempty"`
}

// Availability maps the wire flag onto Available/Booked.
func (s Slot) Availability() Availability {
	if s.IsAvailable {
		return Available
	}
	return Booked
}

// Start parses the slot start time, interpreting zone-less values in loc.
func (s Slot) Start(loc *time.Location) (time.Time, error) {
	return ParseTimestamp("startTime", s.StartTime, loc)
}

// End parses the slot end time, interpreting zone-less values in loc.
func (s Slot) End(loc *time.Location) (time.Time, error) {
	return ParseTimestamp("endTime", s.EndTime, loc)
}

// Appointment is a booking as returned by the backend. Start/end are
// denormalized from the referenced slot for display.
type Appointment struct {
	ID                   int64             `json:"id"`
	PatientID            int64             `json:"patientId"`
	DoctorID             int64             `json:"doctorId"`
	DoctorName           string            `json:"doctorName,omitempty"`
	Specialization       string            `json:"specialization,omitempty"`
	SlotID               int64             `json:"slotId"`
	Status               AppointmentStatus `json:"status"`
	PatientNotes         string            `json:"patientNotes,omitempty"`
	RescheduleCount      int               `json:"rescheduleCount"`
	RescheduleReason     string            `json:"rescheduleReason,omitempty"`
	RejectionReason      string            `json:"rejectionReason,omitempty"`
	CreatedAt            string            `json:"createdAt,omitempty"`
	AppointmentStartTime string            `json:"appointmentStartTime,omitempty"`
	AppointmentEndTime   string            `json:"appointmentEndTime,omitempty"`
}

// StartAt parses the appointment start time.
func (a Appointment) StartAt(loc *time.Location) (time.Time, error) {
	if strings.EqualFold(strings.TrimSpace(a.AppointmentStartTime), "not scheduled") {
		return time.Time{}, &ParseError{Field: "appointmentStartTime", Value: a.AppointmentStartTime, Err: fmt.Errorf("appointment not scheduled")}
	}
	return ParseTimestamp("appointmentStartTime", a.AppointmentStartTime, loc)
}

// EmergencyRequestStatus is the lifecycle status of a standalone emergency report.
type EmergencyRequestStatus string

const (
	EmergencyPending  EmergencyRequestStatus = "PENDING"
	EmergencyApproved EmergencyRequestStatus = "APPROVED"
	EmergencyRejected EmergencyRequestStatus = "REJECTED"
)

// EmergencyRequest is a standalone emergency report, or an appointment shown
// in the emergency bucket (DoctorName set).
type EmergencyRequest struct {
	ID              int64                  `json:"id"`
	PatientID       int64                  `json:"patientId"`
	DoctorName      string                 `json:"doctorName,omitempty"`
	CreatedAt       string                 `json:"createdAt,omitempty"`
	Status          EmergencyRequestStatus `json:"status"`
	UrgencyLevel    string                 `json:"urgencyLevel,omitempty"`
	Symptoms        string                 `json:"symptoms,omitempty"`
	PatientNotes    string                 `json:"patientNotes,omitempty"`
	ContactNumber   string                 `json:"contactNumber,omitempty"`
	DoctorResponse  string                 `json:"doctorResponse,omitempty"`
	RejectionReason string                 `json:"rejectionReason,omitempty"`
}

// NoteLabel is the display label of a classified note segment.
type NoteLabel string

const (
	LabelEmergency       NoteLabel = "Emergency"
	LabelAdditionalNotes NoteLabel = "Additional Notes"
	LabelPatientNotes    NoteLabel = "Patient Notes"
)

// NoteKind tags a classified note segment for rendering.
type NoteKind string

const (
	KindEmergency      NoteKind = "emergency"
	KindNotes          NoteKind = "notes"
	KindEmergencyEmpty NoteKind = "emergency-empty"
	KindNotesEmpty     NoteKind = "notes-empty"
)

// ClassifiedNote is one labeled segment of a patient's free-text notes.
type ClassifiedNote struct {
	Label   NoteLabel `json:"label"`
	Content string    `json:"content"`
	Kind    NoteKind  `json:"type"`
}

// BookingRequest is the single payload the booking wizard submits.
type BookingRequest struct {
	DoctorID     int64  `json:"doctorId"`
	SlotID       int64  `json:"slotId"`
	PatientNotes string `json:"patientNotes"`
}

// RescheduleRequest moves an appointment onto a new slot.
type RescheduleRequest struct {
	AppointmentID int64  `json:"appointmentId"`
	NewSlotID     int64  `json:"newSlotId"`
	Reason        string `json:"reason"`
}

// EmergencySubmission is a standalone emergency report filed by a patient.
type EmergencySubmission struct {
	UrgencyLevel  string `json:"urgencyLevel"`
	Symptoms      string `json:"symptoms"`
	PatientNotes  string `json:"patientNotes,omitempty"`
	ContactNumber string `json:"contactNumber"`
}

var emptySentinels = map[string]struct{}{
	"null":          {},
	"undefined":     {},
	"n/a":           {},
	"not available": {},
	"nothing":       {},
}

// HasContent reports whether s carries meaningful text: non-blank and not one
// of the placeholder values legacy clients stored in place of nothing.
func HasContent(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	_, sentinel := emptySentinels[strings.ToLower(trimmed)]
	return !sentinel
}
