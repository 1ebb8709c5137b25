package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medvault/patient-portal/internal/booking"
	"github.com/medvault/patient-portal/internal/http/handlers"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/portalapi"
	"github.com/medvault/patient-portal/internal/reschedule"
	"github.com/medvault/patient-portal/pkg/logging"
)

const (
	testSecret = "portal-secret"
	wireLayout = "2006-01-02T15:04:05"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeMedVault mimics the backend REST API in memory.
type fakeMedVault struct {
	mu           sync.Mutex
	doctors      []portal.Doctor
	slots        map[int64][]portal.Slot
	appointments []portal.Appointment
	bookings     []portal.BookingRequest
	reschedules  []portal.RescheduleRequest
	emergencies  []portal.EmergencySubmission
}

func newFakeMedVault() *fakeMedVault {
	return &fakeMedVault{
		doctors: []portal.Doctor{
			{ID: 1, FirstName: "Ann", LastName: "Lee", Specialization: "Cardiology"},
			{ID: 2, FirstName: "Bob", LastName: "Ray", Specialization: "Dermatology"},
		},
		slots: map[int64][]portal.Slot{
			1: {
				{ID: 11, DoctorID: 1, StartTime: testNow.Add(48 * time.Hour).Format(wireLayout), EndTime: testNow.Add(49 * time.Hour).Format(wireLayout), IsAvailable: true},
				{ID: 12, DoctorID: 1, StartTime: testNow.Add(72 * time.Hour).Format(wireLayout), EndTime: testNow.Add(73 * time.Hour).Format(wireLayout), IsAvailable: true},
				{ID: 13, DoctorID: 1, StartTime: testNow.Add(-2 * time.Hour).Format(wireLayout), IsAvailable: true},
			},
		},
		appointments: []portal.Appointment{
			{ID: 100, PatientID: 42, DoctorID: 1, DoctorName: "Ann Lee", SlotID: 9, Status: portal.StatusApproved, AppointmentStartTime: testNow.Add(30 * time.Hour).Format(wireLayout)},
			{ID: 101, PatientID: 42, DoctorID: 1, DoctorName: "Ann Lee", SlotID: 8, Status: portal.StatusApproved, AppointmentStartTime: testNow.Add(10 * time.Hour).Format(wireLayout)},
			{ID: 102, PatientID: 42, DoctorID: 1, DoctorName: "Dr. Ann Lee", SlotID: 7, Status: portal.StatusPending, PatientNotes: "EMERGENCY: chest pain | Notes: since last night", AppointmentStartTime: testNow.Add(5 * time.Hour).Format(wireLayout)},
		},
	}
}

func (f *fakeMedVault) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	reply := func(v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/api/patient/doctors/approved":
		reply(f.doctors)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/available-slots"):
		var id int64
		_, _ = fmt.Sscanf(path, "/api/patient/doctors/%d/available-slots", &id)
		reply(f.slots[id])
	case r.Method == http.MethodGet && path == "/api/patient/appointments/42":
		reply(f.appointments)
	case r.Method == http.MethodPost && path == "/api/patient/appointments/42":
		var req portal.BookingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.bookings = append(f.bookings, req)
		appt := portal.Appointment{ID: 200, PatientID: 42, DoctorID: req.DoctorID, SlotID: req.SlotID, Status: portal.StatusPending, PatientNotes: req.PatientNotes}
		w.WriteHeader(http.StatusCreated)
		reply(appt)
	case r.Method == http.MethodPost && path == "/api/patient/reschedule-appointment/42":
		var req portal.RescheduleRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.reschedules = append(f.reschedules, req)
		for i := range f.appointments {
			if f.appointments[i].ID == req.AppointmentID {
				f.appointments[i].Status = portal.StatusPending
				f.appointments[i].RescheduleCount++
				f.appointments[i].RescheduleReason = req.Reason
				f.appointments[i].SlotID = req.NewSlotID
				reply(f.appointments[i])
				return
			}
		}
		w.WriteHeader(http.StatusBadRequest)
		reply(map[string]string{"error": "Appointment not found"})
	case r.Method == http.MethodGet && path == "/api/patient/emergency-requests/42":
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPost && path == "/api/patient/emergency-request/42":
		var sub portal.EmergencySubmission
		_ = json.NewDecoder(r.Body).Decode(&sub)
		f.emergencies = append(f.emergencies, sub)
		w.WriteHeader(http.StatusCreated)
		reply(portal.EmergencyRequest{ID: 300, PatientID: 42, Status: portal.EmergencyPending, UrgencyLevel: sub.UrgencyLevel, Symptoms: sub.Symptoms})
	default:
		w.WriteHeader(http.StatusNotFound)
		reply(map[string]string{"error": "no route " + path})
	}
}

type testEnv struct {
	router  http.Handler
	backend *fakeMedVault
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.NewWithWriter("error", &bytes.Buffer{})
	backend := newFakeMedVault()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := portalapi.NewClient(srv.URL, logger)
	clock := func() time.Time { return testNow }
	wizards := booking.NewRegistry(func(sess portal.Session) *booking.Wizard {
		return booking.NewWizard(client, client, sess, logger, nil)
	}, time.Hour, logger)

	portalHandler := handlers.NewPortalHandler(handlers.PortalConfig{
		Doctors:    client,
		Backend:    client,
		Wizards:    wizards,
		Reschedule: reschedule.NewService(client, time.UTC, logger, reschedule.WithClock(clock)),
		Location:   time.UTC,
		Now:        clock,
		Logger:     logger,
	})

	claims := jwt.RegisteredClaims{Subject: "42", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &testEnv{
		router: New(&Config{
			Logger:           logger,
			Portal:           portalHandler,
			SessionJWTSecret: testSecret,
		}),
		backend: backend,
		token:   token,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &out)
	}
	return rr, out
}

func TestRouterHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestRouterRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/doctors", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouterDoctorsAndSlots(t *testing.T) {
	env := newTestEnv(t)

	rr, body := env.do(t, http.MethodGet, "/v1/doctors?specialization=Cardiology", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := body["page"].(map[string]any)
	items := page["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Dr. Ann Lee", items[0].(map[string]any)["displayName"])
	assert.Equal(t, []any{"All", "Cardiology", "Dermatology"}, body["specializations"])

	rr, body = env.do(t, http.MethodGet, "/v1/doctors/1/slots", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(3), body["total"])
	assert.Len(t, body["dates"], 3)

	rr, _ = env.do(t, http.MethodGet, "/v1/doctors/abc/slots", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouterBookingFlow(t *testing.T) {
	env := newTestEnv(t)

	rr, body := env.do(t, http.MethodPost, "/v1/booking/wizards", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := body["id"].(string)
	assert.Equal(t, string(booking.StateChoosingDoctor), body["state"])
	base := "/v1/booking/wizards/" + id

	rr, _ = env.do(t, http.MethodPost, base+"/doctor", map[string]any{"doctorId": 99})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, body = env.do(t, http.MethodPost, base+"/doctor", map[string]any{"doctorId": 1})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, string(booking.StateSelectingSlot), body["state"])
	assert.Len(t, body["slots"], 3)

	rr, _ = env.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, body = env.do(t, http.MethodPost, base+"/slot", map[string]any{"slotId": 11})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, string(booking.StateConfirming), body["state"])

	rr, _ = env.do(t, http.MethodPost, base+"/notes", map[string]any{"notes": "Notes: first visit"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr, body = env.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, string(booking.StateSuccess), body["state"])
	require.NotNil(t, body["appointment"])

	env.backend.mu.Lock()
	require.Len(t, env.backend.bookings, 1)
	assert.Equal(t, portal.BookingRequest{DoctorID: 1, SlotID: 11, PatientNotes: "Notes: first visit"}, env.backend.bookings[0])
	env.backend.mu.Unlock()

	rr, body = env.do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, string(booking.StateChoosingDoctor), body["state"])

	rr, _ = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr, _ = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouterAppointmentsAndReschedule(t *testing.T) {
	env := newTestEnv(t)

	rr, body := env.do(t, http.MethodGet, "/v1/appointments", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	items := body["page"].(map[string]any)["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, true, first["reschedule"].(map[string]any)["eligible"])
	second := items[1].(map[string]any)
	assert.Equal(t, string(reschedule.ReasonLessThan24Hours), second["reschedule"].(map[string]any)["reason"])

	rr, body = env.do(t, http.MethodGet, "/v1/appointments/100/reschedule-options", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), body["total"])

	rr, body = env.do(t, http.MethodPost, "/v1/appointments/101/reschedule", map[string]any{"newSlotId": 12, "reason": "travel"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, string(reschedule.ReasonLessThan24Hours), body["reason"])

	rr, body = env.do(t, http.MethodPost, "/v1/appointments/100/reschedule", map[string]any{"newSlotId": 12, "reason": " "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "reason", body["field"])

	rr, body = env.do(t, http.MethodPost, "/v1/appointments/100/reschedule", map[string]any{"newSlotId": 12, "reason": "travel"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["reconciled"])
	assert.Contains(t, body["message"], "Awaiting doctor confirmation")
	appt := body["appointment"].(map[string]any)
	assert.Equal(t, "PENDING", appt["status"])
	assert.Equal(t, float64(1), appt["rescheduleCount"])

	rr, _ = env.do(t, http.MethodPost, "/v1/appointments/100/reschedule", map[string]any{"newSlotId": 11, "reason": "again"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, _ = env.do(t, http.MethodPost, "/v1/appointments/999/reschedule", map[string]any{"newSlotId": 11, "reason": "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	env.backend.mu.Lock()
	assert.Len(t, env.backend.reschedules, 1)
	env.backend.mu.Unlock()
}

func TestRouterEmergencyRequests(t *testing.T) {
	env := newTestEnv(t)

	rr, body := env.do(t, http.MethodGet, "/v1/emergency-requests", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	items := body["page"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	entry := items[0].(map[string]any)
	assert.Equal(t, "appointment", entry["source"])
	segments := entry["segments"].([]any)
	require.Len(t, segments, 2)
	assert.Equal(t, "Emergency", segments[0].(map[string]any)["label"])
	assert.Equal(t, "chest pain", segments[0].(map[string]any)["content"])

	rr, body = env.do(t, http.MethodPost, "/v1/emergency-requests", map[string]any{"symptoms": "", "contactNumber": "555"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "symptoms", body["field"])

	rr, body = env.do(t, http.MethodPost, "/v1/emergency-requests", map[string]any{"symptoms": "high fever", "contactNumber": "555"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "MEDIUM", body["urgencyLevel"])
}
