package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the sovereignty gate.
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	SessionsOpened  prometheus.Counter
	SessionsExpired prometheus.Counter
	EndpointLatency *prometheus.HistogramVec

	// Consent metrics
	ConsentChanges    *prometheus.CounterVec
	RevocationNotices *prometheus.CounterVec

	// Gate metrics
	HarmScans         *prometheus.CounterVec
	HarmTriggers      *prometheus.CounterVec
	HarmConfirmations *prometheus.CounterVec
	ChatOutcomes      *prometheus.CounterVec

	// Upstream metrics
	ActiveStreams        prometheus.Gauge
	StreamDuration       prometheus.Histogram
	FirstFragmentLatency prometheus.Histogram
	CircuitTransitions   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction never collides.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "witchmart_sessions_opened_total",
			Help: "Total number of session contexts created",
		}),
		SessionsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "witchmart_sessions_expired_total",
			Help: "Total number of expired session contexts swept by cleanup",
		}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "witchmart_endpoint_latency_seconds",
			Help:    "Latency of non-streaming endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ConsentChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "witchmart_consent_changes_total",
			Help: "Consent grants and revocations, labeled by action",
		}, []string{"action"}),
		RevocationNotices: f.NewCounterVec(prometheus.CounterOpts{
			Name: "witchmart_revocation_notices_total",
			Help: "Revocation notifications sent to the remote endpoint, labeled by outcome",
		}, []string{"outcome"}),
		HarmScans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "witchmart_harm_scans_total",
			Help: "Harm trigger scans, labeled by source and result",
		}, []string{"source", "result"}),
		HarmTriggers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "witchmart_harm_triggers_total",
			Help: "Trigger words matched by flagged scans, labeled by source and trigger",
		}, []string{"source", "trigger"}),
		HarmConfirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "witchmart_harm_confirmations_total",
			Help: "Harm confirmation steps, labeled by step",
		}, []string{"step"}),
		ChatOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "witchmart_chat_outcomes_total",
			Help: "Terminal outcomes of chat submissions, labeled by outcome",
		}, []string{"outcome"}),
		ActiveStreams: f.NewGauge(prometheus.GaugeOpts{
			Name: "witchmart_chat_active_streams",
			Help: "Chat replies currently streaming from the upstream service",
		}),
		StreamDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "witchmart_chat_stream_duration_seconds",
			Help:    "Time from opening the upstream stream to its terminal frame",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}),
		FirstFragmentLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "witchmart_chat_first_fragment_seconds",
			Help:    "Time from opening the upstream stream to the first content fragment",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		CircuitTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "witchmart_upstream_circuit_transitions_total",
			Help: "Upstream circuit breaker transitions, labeled by new state",
		}, []string{"state"}),
	}
}

func (m *Metrics) IncrementSessionsOpened() {
	if m == nil {
		return
	}
	m.SessionsOpened.Inc()
}

func (m *Metrics) AddSessionsExpired(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.SessionsExpired.Add(float64(count))
}

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

// IncrementConsentChange counts a grant or revoke ("granted" / "revoked").
func (m *Metrics) IncrementConsentChange(action string) {
	if m == nil {
		return
	}
	m.ConsentChanges.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementRevocationNotice(outcome string) {
	if m == nil {
		return
	}
	m.RevocationNotices.WithLabelValues(outcome).Inc()
}

// IncrementHarmScan counts one scan from "chat" or "form".
func (m *Metrics) IncrementHarmScan(source string, triggered bool) {
	if m == nil {
		return
	}
	result := "clean"
	if triggered {
		result = "triggered"
	}
	m.HarmScans.WithLabelValues(source, result).Inc()
}

// IncrementHarmTriggers counts each matched trigger word once. The label set
// is bounded by the fixed trigger list.
func (m *Metrics) IncrementHarmTriggers(source string, triggers []string) {
	if m == nil {
		return
	}
	for _, t := range triggers {
		m.HarmTriggers.WithLabelValues(source, t).Inc()
	}
}

func (m *Metrics) IncrementHarmConfirmation(step string) {
	if m == nil {
		return
	}
	m.HarmConfirmations.WithLabelValues(step).Inc()
}

func (m *Metrics) IncrementChatOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ChatOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StreamStarted() {
	if m == nil {
		return
	}
	m.ActiveStreams.Inc()
}

func (m *Metrics) StreamFinished(durationSeconds float64) {
	if m == nil {
		return
	}
	m.ActiveStreams.Dec()
	m.StreamDuration.Observe(durationSeconds)
}

func (m *Metrics) ObserveFirstFragment(durationSeconds float64) {
	if m == nil {
		return
	}
	m.FirstFragmentLatency.Observe(durationSeconds)
}

func (m *Metrics) IncrementCircuitTransition(state string) {
	if m == nil {
		return
	}
	m.CircuitTransitions.WithLabelValues(state).Inc()
}
