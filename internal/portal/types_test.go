package portal

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasContent(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"null", false},
		{"UNDEFINED", false},
		{" N/A ", false},
		{"Not Available", false},
		{"nothing", false},
		{"nothing serious", true},
		{"chest pain", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasContent(tt.in), "HasContent(%q)", tt.in)
	}
}

func TestFormatDoctorName(t *testing.T) {
	assert.Equal(t, "Dr. Asha Rao", FormatDoctorName("Asha Rao"))
	assert.Equal(t, "Dr. Asha Rao", FormatDoctorName("Dr. Asha Rao"))
	assert.Equal(t, "Dr. Asha Rao", FormatDoctorName("dr. Dr.Asha Rao"))
	assert.Equal(t, "Dr. Drake Mallard", FormatDoctorName("Drake Mallard"))
	assert.Equal(t, "Doctor Name Unavailable", FormatDoctorName("  "))
	assert.Equal(t, "Dr. Asha Rao", Doctor{FirstName: "Asha", LastName: "Rao"}.DisplayName())
}

func TestParseTimestamp(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	got, err := ParseTimestamp("startTime", "2026-03-02T09:30:00", ist)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 30, 0, 0, ist), got)

	got, err = ParseTimestamp("startTime", "2026-03-02T09:30:00.123", ist)
	require.NoError(t, err)
	assert.Equal(t, 123*int(time.Millisecond), got.Nanosecond())

	got, err = ParseTimestamp("startTime", "2026-03-02T04:00:00Z", ist)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Minute())

	_, err = ParseTimestamp("startTime", "next tuesday", ist)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "startTime", pe.Field)
	assert.Equal(t, "next tuesday", pe.Value)

	_, err = ParseTimestamp("startTime", "", nil)
	require.ErrorAs(t, err, &pe)
}

func TestAppointmentStartAtNotScheduled(t *testing.T) {
	_, err := Appointment{AppointmentStartTime: "Not scheduled"}.StartAt(time.UTC)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestSlotAvailability(t *testing.T) {
	assert.Equal(t, Available, Slot{IsAvailable: true}.Availability())
	assert.Equal(t, Booked, Slot{}.Availability())
}

func TestServerErrorUnauthorized(t *testing.T) {
	err := error(&ServerError{Op: "list appointments", Status: http.StatusUnauthorized, Message: "Session expired"})
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Session expired", err.Error())
	assert.False(t, IsUnauthorized(&ServerError{Status: http.StatusConflict}))
	assert.False(t, IsUnauthorized(errors.New("boom")))
}

func TestNetworkErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{Op: "list doctors", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list doctors")
}

func TestSessionValid(t *testing.T) {
	assert.False(t, Session{}.Valid())
	assert.True(t, Session{PatientID: 7}.Valid())
}
