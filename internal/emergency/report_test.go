package emergency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medvault/patient-portal/internal/portal"
)

type stubFiler struct {
	calls []portal.EmergencySubmission
	err   error
}

func (s *stubFiler) SubmitEmergencyRequest(_ context.Context, sess portal.Session, sub portal.EmergencySubmission) (*portal.EmergencyRequest, error) {
	s.calls = append(s.calls, sub)
	if s.err != nil {
		return nil, s.err
	}
	return &portal.EmergencyRequest{ID: 99, PatientID: sess.PatientID, Status: portal.EmergencyPending, UrgencyLevel: sub.UrgencyLevel, Symptoms: sub.Symptoms}, nil
}

func TestReporterDefaultsUrgency(t *testing.T) {
	filer := &stubFiler{}
	r := NewReporter(filer, portal.Session{PatientID: 7}, nil)

	req, err := r.Report(context.Background(), portal.EmergencySubmission{Symptoms: "  chest pain ", ContactNumber: " 98450 12345 "})
	require.NoError(t, err)
	assert.Equal(t, int64(99), req.ID)
	require.Len(t, filer.calls, 1)
	assert.Equal(t, UrgencyMedium, filer.calls[0].UrgencyLevel)
	assert.Equal(t, "chest pain", filer.calls[0].Symptoms)
	assert.Equal(t, "98450 12345", filer.calls[0].ContactNumber)
}

func TestReporterValidation(t *testing.T) {
	tests := []struct {
		name  string
		sub   portal.EmergencySubmission
		field string
	}{
		{"missing symptoms", portal.EmergencySubmission{ContactNumber: "1"}, "symptoms"},
		{"missing contact", portal.EmergencySubmission{Symptoms: "pain"}, "contactNumber"},
		{"bad urgency", portal.EmergencySubmission{Symptoms: "pain", ContactNumber: "1", UrgencyLevel: "extreme"}, "urgencyLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filer := &stubFiler{}
			_, err := NewReporter(filer, portal.Session{PatientID: 7}, nil).Report(context.Background(), tt.sub)
			var ve *portal.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, filer.calls, "validation failures must not reach the backend")
		})
	}
}

func TestReporterPassesServerErrorThrough(t *testing.T) {
	serverErr := &portal.ServerError{Status: 500, Message: "Emergency desk unavailable"}
	filer := &stubFiler{err: serverErr}
	_, err := NewReporter(filer, portal.Session{PatientID: 7}, nil).Report(context.Background(), portal.EmergencySubmission{Symptoms: "pain", ContactNumber: "1", UrgencyLevel: "high"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, serverErr))
	assert.Equal(t, "Emergency desk unavailable", err.Error())
	assert.Equal(t, UrgencyHigh, filer.calls[0].UrgencyLevel)
}

func TestReporterRequiresSession(t *testing.T) {
	_, err := NewReporter(&stubFiler{}, portal.Session{}, nil).Report(context.Background(), portal.EmergencySubmission{})
	assert.ErrorIs(t, err, portal.ErrPrecondition)
}
