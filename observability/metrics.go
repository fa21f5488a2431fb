// Package observability holds the Prometheus collectors for comparison runs.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yuzu"

const (
	OutcomeOK            = "ok"
	OutcomePartial       = "partial"
	OutcomeFailed        = "failed"
	OutcomeRejected      = "rejected"
	PublishOutcomeOK     = "ok"
	PublishOutcomeFailed = "failed"
	PublishOutcomeLogged = "logged"
)

type Metrics struct {
	registry *prometheus.Registry

	ComparisonsTotal   *prometheus.CounterVec
	ComparisonDuration prometheus.Histogram
	AudioDuration      prometheus.Histogram

	ASRLatency *prometheus.HistogramVec
	ASRErrors  *prometheus.CounterVec

	CharacterErrorRate prometheus.Histogram
	VerdictTiers       *prometheus.CounterVec

	EventsPublished *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry, so tests and
// multiple instances never collide on the global one.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ComparisonsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Comparison runs by outcome",
		}, []string{"source", "outcome"}),
		ComparisonDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comparison_duration_seconds",
			Help:      "Wall time of a full comparison run",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		AudioDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audio_duration_seconds",
			Help:      "Duration of compared audio",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		ASRLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asr_latency_seconds",
			Help:      "Speech recognition latency per model",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"model"}),
		ASRErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asr_errors_total",
			Help:      "Failed speech recognition calls per model",
		}, []string{"model"}),

		CharacterErrorRate: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "character_error_rate_percent",
			Help:      "Character error rate between the two transcriptions",
			Buckets:   []float64{1, 5, 10, 20, 35, 50, 75, 100, 200},
		}),
		VerdictTiers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdict_tiers_total",
			Help:      "Comparisons per error rate tier",
		}, []string{"tier"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Comparison events handed to the publisher",
		}, []string{"topic", "outcome"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordComparison(source, outcome string, seconds float64) {
	m.ComparisonsTotal.WithLabelValues(source, outcome).Inc()
	if outcome != OutcomeRejected {
		m.ComparisonDuration.Observe(seconds)
	}
}

func (m *Metrics) RecordAudio(seconds float64) {
	m.AudioDuration.Observe(seconds)
}

func (m *Metrics) RecordASR(model string, seconds float64, failed bool) {
	m.ASRLatency.WithLabelValues(model).Observe(seconds)
	if failed {
		m.ASRErrors.WithLabelValues(model).Inc()
	}
}

func (m *Metrics) RecordVerdict(tier string, cer float64) {
	m.CharacterErrorRate.Observe(cer)
	m.VerdictTiers.WithLabelValues(tier).Inc()
}

func (m *Metrics) RecordPublish(topic, outcome string) {
	m.EventsPublished.WithLabelValues(topic, outcome).Inc()
}
