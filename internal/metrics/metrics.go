package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	generated      *prometheus.CounterVec
	failures       *prometheus.CounterVec
	downloads      *prometheus.CounterVec
	evictions      *prometheus.CounterVec
	cacheEntries   prometheus.Gauge
	renderDuration prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg means the default
// prometheus registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	m := Metrics{
		generated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_generated_total", namespace),
			Help: "Dynamic payment codes generated, by rewrite mode",
		}, []string{"mode"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_generate_failures_total", namespace),
			Help: "Rejected or failed generate requests, by error code",
		}, []string{"code"}),
		downloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_downloads_total", namespace),
			Help: "Artifact download attempts, by result",
		}, []string{"result"}),
		evictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_cache_evictions_total", namespace),
			Help: "Artifacts removed from the cache, by reason",
		}, []string{"reason"}),
		cacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_cache_entries", namespace),
			Help: "Artifacts currently held in the cache",
		}),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_render_duration_seconds", namespace),
			Help:    "Time spent rendering QR images and receipts",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	return &m
}

func (m *Metrics) IncGenerated(mode string) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncFailure(code string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(code).Inc()
}

func (m *Metrics) IncDownload(result string) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(result).Inc()
}

func (m *Metrics) IncEviction(reason string) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}
