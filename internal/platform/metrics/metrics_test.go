package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordsOnIsolatedRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementHarmScan("chat", true)
	m.IncrementHarmScan("chat", true)
	m.IncrementHarmScan("form", false)
	m.IncrementHarmTriggers("chat", []string{"weapon", "illegal"})
	m.IncrementHarmTriggers("form", []string{"weapon"})
	m.IncrementHarmTriggers("form", nil)
	m.IncrementConsentChange("granted")
	m.StreamStarted()
	m.StreamStarted()
	m.StreamFinished(1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HarmScans.WithLabelValues("chat", "triggered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HarmScans.WithLabelValues("form", "clean")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HarmTriggers.WithLabelValues("chat", "illegal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HarmTriggers.WithLabelValues("form", "weapon")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.HarmTriggers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsentChanges.WithLabelValues("granted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveStreams))
}

func TestMetrics_RepeatedConstruction(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementSessionsOpened()
		m.IncrementChatOutcome("completed")
		m.IncrementHarmTriggers("chat", []string{"kill"})
		m.StreamFinished(2)
		m.ObserveEndpointLatency("/api/consent", 0.1)
	})
}
