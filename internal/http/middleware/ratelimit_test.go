package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/medvault/patient-portal/internal/portal"
)

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(60, 2)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	clock = clock.Add(time.Second)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	assert.Equal(t, 2, rl.Evict(clock.Add(time.Minute)))
}

func TestRateLimit_KeysByPatient(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	h := RateLimit(rl)(okHandler(nil))

	send := func(patientID int64) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/booking/wizards", nil)
		req = req.WithContext(WithSession(context.Background(), portal.Session{PatientID: patientID}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(1))
	assert.Equal(t, http.StatusTooManyRequests, send(1))
	assert.Equal(t, http.StatusOK, send(2))
}
