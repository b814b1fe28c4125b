package blob

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for blob storage.
type Metrics struct {
	BytesWritten     prometheus.Counter
	OperationLatency *prometheus.HistogramVec
	Retries          *prometheus.CounterVec
	Rejected         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		BytesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hr_portal_blob_bytes_written_total",
			Help: "Total bytes committed to blob storage",
		}),
		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hr_portal_blob_operation_duration_seconds",
			Help:    "Latency of blob storage operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "result"}),
		Retries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_portal_blob_retries_total",
			Help: "Backend calls retried after a storage failure",
		}, []string{"op"}),
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_portal_blob_rejected_total",
			Help: "Uploads rejected before commit",
		}, []string{"reason"}),
	}
}

func (m *Metrics) observe(op string, err error, seconds float64) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OperationLatency.WithLabelValues(op, result).Observe(seconds)
}

func (m *Metrics) incRetry(op string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(op).Inc()
}

func (m *Metrics) incRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) addBytes(n int64) {
	if m == nil {
		return
	}
	m.BytesWritten.Add(float64(n))
}
