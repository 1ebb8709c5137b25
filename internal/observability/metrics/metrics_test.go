package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPortalMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPortalMetrics(reg)
	m.ObserveBackend("list_doctors", "success", 0.2)
	m.ObserveBackend("list_doctors", "server_error", 0.1)
	m.ObserveWizardTransition("confirming", "submitting")
	m.ObserveReschedule("success")
	m.ObserveClassification(true)
	m.ObserveClassification(false)
	m.ObserveDoctorCache(true)

	if got := testutil.ToFloat64(m.backendRequests.WithLabelValues("list_doctors", "success")); got != 1 {
		t.Fatalf("backend success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.classifications.WithLabelValues("emergency")); got != 1 {
		t.Fatalf("emergency classifications = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.doctorCache.WithLabelValues("hit")); got != 1 {
		t.Fatalf("cache hits = %v, want 1", got)
	}
}

func TestPortalMetricsNilSafe(t *testing.T) {
	var m *PortalMetrics
	m.ObserveBackend("op", "success", 0.1)
	m.ObserveWizardTransition("a", "b")
	m.ObserveReschedule("validation")
	m.ObserveClassification(true)
	m.ObserveDoctorCache(false)
}
