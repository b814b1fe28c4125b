package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks outbox delivery.
type Metrics struct {
	Published       *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec
	BreakerOpen     prometheus.Gauge
	BatchDuration   prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_portal_outbox_published_total",
			Help: "Outbox entries delivered to the broker",
		}, []string{"sink"}),
		PublishFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_portal_outbox_publish_failures_total",
			Help: "Failed outbox delivery attempts",
		}, []string{"sink"}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hr_portal_outbox_breaker_open",
			Help: "1 while the relay circuit breaker is open",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hr_portal_outbox_batch_duration_seconds",
			Help:    "Time to deliver one outbox batch",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) published(sink string, n int) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(sink).Add(float64(n))
}

func (m *Metrics) failed(sink string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) breakerState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

func (m *Metrics) observeBatch(seconds float64) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(seconds)
}
