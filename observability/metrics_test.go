package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := NewMetrics()

	m.RecordComparison("http", OutcomeOK, 1.5)
	m.RecordComparison("http", OutcomeOK, 2)
	m.RecordComparison("discord", OutcomeRejected, 0)
	m.RecordASR("whisper", 0.8, false)
	m.RecordASR("turbo", 1.2, true)
	m.RecordVerdict("moderate", 12.5)
	m.RecordPublish("comparisons", PublishOutcomeLogged)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("http", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("discord", OutcomeRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ASRErrors.WithLabelValues("whisper")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ASRErrors.WithLabelValues("turbo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerdictTiers.WithLabelValues("moderate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("comparisons", PublishOutcomeLogged)))
}

func TestInstancesDoNotCollide(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordVerdict("low", 1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.VerdictTiers.WithLabelValues("low")))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordVerdict("significant", 50)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `yuzu_verdict_tiers_total{tier="significant"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
