package metrics

import "github.com/prometheus/client_golang/prometheus"

// PortalMetrics exposes counters/histograms for the appointment engine.
type PortalMetrics struct {
	backendRequests    *prometheus.CounterVec
	backendLatency     *prometheus.HistogramVec
	wizardTransitions  *prometheus.CounterVec
	rescheduleOutcomes *prometheus.CounterVec
	classifications    *prometheus.CounterVec
	doctorCache        *prometheus.CounterVec
}

func NewPortalMetrics(reg prometheus.Registerer) *PortalMetrics {
	m := &PortalMetrics{
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medvault",
			Subsystem: "portal",
			Name:      "backend_requests_total",
			Help:      "Total MedVault backend calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medvault",
			Subsystem: "portal",
			Name:      "backend_request_seconds",
			Help:      "Latency of MedVault backend calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		wizardTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medvault",
			Subsystem: "booking",
			Name:      "wizard_transitions_total",
			Help:      "Booking wizard state transitions",
		}, []string{"from", "to"}),
		rescheduleOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medvault",
			Subsystem: "reschedule",
			Name:      "attempts_total",
			Help:      "Reschedule attempts by outcome",
		}, []string{"outcome"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medvault",
			Subsystem: "notes",
			Name:      "classifications_total",
			Help:      "Patient note classifications by bucket",
		}, []string{"bucket"}),
		doctorCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medvault",
			Subsystem: "portal",
			Name:      "doctor_cache_lookups_total",
			Help:      "Doctor directory cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.backendRequests, m.backendLatency, m.wizardTransitions, m.rescheduleOutcomes, m.classifications, m.doctorCache)
	return m
}

// ObserveBackend records one backend call.
func (m *PortalMetrics) ObserveBackend(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(operation, outcome).Inc()
	m.backendLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *PortalMetrics) ObserveWizardTransition(from, to string) {
	if m == nil {
		return
	}
	m.wizardTransitions.WithLabelValues(from, to).Inc()
}

func (m *PortalMetrics) ObserveReschedule(outcome string) {
	if m == nil {
		return
	}
	m.rescheduleOutcomes.WithLabelValues(outcome).Inc()
}

func (m *PortalMetrics) ObserveClassification(emergency bool) {
	if m == nil {
		return
	}
	bucket := "regular"
	if emergency {
		bucket = "emergency"
	}
	m.classifications.WithLabelValues(bucket).Inc()
}

func (m *PortalMetrics) ObserveDoctorCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.doctorCache.WithLabelValues(result).Inc()
}
