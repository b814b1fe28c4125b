package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the application lifecycle.
type Metrics struct {
	Submissions     *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	GateRejections  *prometheus.CounterVec
	DocumentsStored *prometheus.CounterVec
	OrphanedBlobs   prometheus.Counter
}

// New creates and registers all lifecycle metrics.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_portal_application_submissions_total",
			Help: "Application submissions by outcome",
		}, []string{"result"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_portal_application_transitions_total",
			Help: "Status transitions applied",
		}, []string{"from", "to"}),
		GateRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_portal_application_gate_rejections_total",
			Help: "Document writes refused because the slot was closed",
		}, []string{"slot", "status"}),
		DocumentsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_portal_application_documents_stored_total",
			Help: "Documents attached to applications by slot",
		}, []string{"slot"}),
		OrphanedBlobs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hr_portal_application_orphaned_blobs_total",
			Help: "Blobs that could not be deleted after a failed or superseding write",
		}),
	}
}

func (m *Metrics) IncSubmission(result string) {
	m.Submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) IncTransition(from, to string) {
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncGateRejection(slot, status string) {
	m.GateRejections.WithLabelValues(slot, status).Inc()
}

func (m *Metrics) IncDocumentsStored(slot string, n int) {
	m.DocumentsStored.WithLabelValues(slot).Add(float64(n))
}

func (m *Metrics) IncOrphanedBlobs() {
	m.OrphanedBlobs.Inc()
}
