package emergency

import (
	"github.com/medvault/patient-portal/internal/portal"
)

// StatusAll is the status filter value that keeps every entry.
const StatusAll = "ALL"

// Source tells where an emergency list entry came from.
type Source string

const (
	SourceRequest     Source = "request"
	SourceAppointment Source = "appointment"
)

// Entry is one row of the patient's emergency list: either a standalone
// emergency report or an appointment whose notes classify as an emergency.
type Entry struct {
	Source   Source                  `json:"source"`
	Request  portal.EmergencyRequest `json:"request"`
	Segments []portal.ClassifiedNote `json:"segments"`
}

// Split partitions appointments into the regular and emergency buckets,
// preserving order. Stored statuses are not touched.
func Split(appointments []portal.Appointment) (regular, urgent []portal.Appointment) {
	regular = make([]portal.Appointment, 0, len(appointments))
	urgent = make([]portal.Appointment, 0)
	for _, appt := range appointments {
		if IsEmergency(appt.PatientNotes) {
			urgent = append(urgent, appt)
			continue
		}
		regular = append(regular, appt)
	}
	return regular, urgent
}

// Combine lists standalone requests first, followed by every appointment
// whose notes classify as an emergency. Appointment entries always carry a
// doctor name, which is how the two kinds are told apart.
func Combine(requests []portal.EmergencyRequest, appointments []portal.Appointment) []Entry {
	entries := make([]Entry, 0, len(requests))
	for _, req := range requests {
		notes := req.PatientNotes
		if !portal.HasContent(notes) {
			notes = req.Symptoms
		}
		entries = append(entries, Entry{
			Source:   SourceRequest,
			Request:  req,
			Segments: Segments(notes),
		})
	}
	for _, appt := range appointments {
		if !IsEmergency(appt.PatientNotes) {
			continue
		}
		entries = append(entries, Entry{
			Source: SourceAppointment,
			Request: portal.EmergencyRequest{
				ID:              appt.ID,
				PatientID:       appt.PatientID,
				DoctorName:      portal.FormatDoctorName(appt.DoctorName),
				CreatedAt:       appt.CreatedAt,
				Status:          portal.EmergencyRequestStatus(appt.Status),
				PatientNotes:    appt.PatientNotes,
				RejectionReason: appt.RejectionReason,
			},
			Segments: Segments(appt.PatientNotes),
		})
	}
	return entries
}

// FilterByStatus keeps entries with the given status; StatusAll or an empty
// status keeps everything.
func FilterByStatus(entries []Entry, status string) []Entry {
	if status == "" || status == StatusAll {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if string(e.Request.Status) == status {
			out = append(out, e)
		}
	}
	return out
}
