package emergency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medvault/patient-portal/internal/portal"
)

func TestSplit(t *testing.T) {
	appts := []portal.Appointment{
		{ID: 1, PatientNotes: "routine follow-up", Status: portal.StatusApproved},
		{ID: 2, PatientNotes: "EMERGENCY: chest pain", Status: portal.StatusPending},
		{ID: 3, Status: portal.StatusCompleted},
		{ID: 4, PatientNotes: "bleeding gums", Status: portal.StatusApproved},
	}
	regular, urgent := Split(appts)

	assert.Equal(t, []int64{1, 3}, apptIDs(regular))
	assert.Equal(t, []int64{2, 4}, apptIDs(urgent))
	assert.Equal(t, portal.StatusPending, urgent[0].Status, "status must not change")
}

func TestCombineAndFilter(t *testing.T) {
	requests := []portal.EmergencyRequest{
		{ID: 10, Status: portal.EmergencyPending, Symptoms: "high fever", UrgencyLevel: "HIGH"},
		{ID: 11, Status: portal.EmergencyRejected, PatientNotes: "Notes: resolved"},
	}
	appts := []portal.Appointment{
		{ID: 1, PatientNotes: "routine"},
		{ID: 2, PatientNotes: "EMERGENCY: chest pain", Status: portal.StatusApproved, DoctorName: "Asha Rao"},
		{ID: 3, PatientNotes: "accident", Status: portal.StatusPending},
	}

	entries := Combine(requests, appts)
	require.Len(t, entries, 4)

	assert.Equal(t, SourceRequest, entries[0].Source)
	assert.Empty(t, entries[0].Request.DoctorName)
	assert.Equal(t, "high fever", entries[0].Segments[0].Content)

	assert.Equal(t, SourceAppointment, entries[2].Source)
	assert.Equal(t, "Dr. Asha Rao", entries[2].Request.DoctorName)
	assert.Equal(t, portal.EmergencyApproved, entries[2].Request.Status)
	assert.Equal(t, "Doctor Name Unavailable", entries[3].Request.DoctorName)

	assert.Len(t, FilterByStatus(entries, StatusAll), 4)
	approved := FilterByStatus(entries, "APPROVED")
	require.Len(t, approved, 1)
	assert.Equal(t, int64(2), approved[0].Request.ID)
	assert.Len(t, FilterByStatus(entries, "PENDING"), 2)
	assert.Empty(t, FilterByStatus(entries, "COMPLETED"))
}

func apptIDs(appts []portal.Appointment) []int64 {
	out := []int64{}
	for _, a := range appts {
		out = append(out, a.ID)
	}
	return out
}
