package appointments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medvault/patient-portal/internal/emergency"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/reschedule"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(offset time.Duration) string {
	return now.Add(offset).Format("2006-01-02T15:04:05")
}

func fixture() []portal.Appointment {
	return []portal.Appointment{
		{ID: 1, Status: portal.StatusApproved, DoctorName: "Dr. Ann Lee", AppointmentStartTime: at(48 * time.Hour), PatientNotes: "Notes: follow-up"},
		{ID: 2, Status: portal.StatusApproved, DoctorName: "Bob Ray", AppointmentStartTime: at(10 * time.Hour)},
		{ID: 3, Status: portal.StatusPending, DoctorName: "Cy", AppointmentStartTime: at(5 * time.Hour), PatientNotes: "EMERGENCY: chest pain"},
		{ID: 4, Status: portal.StatusRejected, AppointmentStartTime: at(5 * time.Hour)},
		{ID: 5, Status: portal.StatusPending, AppointmentStartTime: at(-time.Hour), PatientNotes: "severe pain in knee"},
	}
}

func TestBuildRegular(t *testing.T) {
	view := BuildRegular(fixture(), "all", 1, 5, now)

	require.Len(t, view.Page.Items, 3)
	assert.Equal(t, 3, view.Counts[StatusAll])
	assert.Equal(t, 2, view.Counts["APPROVED"])
	assert.Equal(t, 1, view.Counts["REJECTED"])

	first := view.Page.Items[0]
	assert.Equal(t, "Dr. Ann Lee", first.DoctorDisplayName)
	assert.True(t, first.Reschedule.Eligible)
	assert.Empty(t, first.RescheduleMessage)
	require.Len(t, first.Notes, 1)
	assert.Equal(t, portal.LabelAdditionalNotes, first.Notes[0].Label)

	second := view.Page.Items[1]
	assert.Equal(t, "Dr. Bob Ray", second.DoctorDisplayName)
	assert.Equal(t, reschedule.ReasonLessThan24Hours, second.Reschedule.Reason)
	assert.NotEmpty(t, second.RescheduleMessage)
	assert.Nil(t, second.Notes)
}

func TestBuildRegular_StatusFilterAndPaging(t *testing.T) {
	view := BuildRegular(fixture(), "APPROVED", 1, 1, now)
	assert.Equal(t, 2, view.Page.TotalPages)
	require.Len(t, view.Page.Items, 1)
	assert.Equal(t, int64(1), view.Page.Items[0].ID)
	assert.Len(t, view.Pages, 2)

	view = BuildRegular(fixture(), "COMPLETED", 3, 5, now)
	assert.Empty(t, view.Page.Items)
	assert.Equal(t, 1, view.Page.CurrentPage)
	assert.Nil(t, view.Pages)
}

func TestBuildEmergency(t *testing.T) {
	requests := []portal.EmergencyRequest{
		{ID: 10, Status: portal.EmergencyPending, Symptoms: "high fever"},
		{ID: 11, Status: portal.EmergencyRejected, Symptoms: "rash"},
	}
	view := BuildEmergency(requests, fixture(), "", 1, 6)

	assert.Equal(t, 4, view.Counts[StatusAll])
	assert.Equal(t, 3, view.Counts["PENDING"])
	require.Len(t, view.Page.Items, 4)
	assert.Equal(t, emergency.SourceRequest, view.Page.Items[0].Source)
	assert.Equal(t, emergency.SourceAppointment, view.Page.Items[2].Source)
	assert.Equal(t, "Dr. Cy", view.Page.Items[2].Request.DoctorName)

	view = BuildEmergency(requests, fixture(), "rejected", 1, 6)
	require.Len(t, view.Page.Items, 1)
	assert.Equal(t, int64(11), view.Page.Items[0].Request.ID)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusAll, NormalizeStatus("  "))
	assert.Equal(t, "PENDING", NormalizeStatus(" pending "))
}
