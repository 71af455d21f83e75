package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document module.
type Metrics struct {
	Uploads           *prometheus.CounterVec
	Deletes           prometheus.Counter
	ReconcileFailures prometheus.Counter
	UploadDuration    prometheus.Histogram
}

// New creates a Metrics instance with all document module metrics registered.
func New() *Metrics {
	return &Metrics{
		Uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fidelis_document_uploads_total",
			Help: "Total successful document uploads by type",
		}, []string{"type"}),
		Deletes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fidelis_document_deletes_total",
			Help: "Total document soft-deletions",
		}),
		ReconcileFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fidelis_document_reconcile_item_failures_total",
			Help: "Per-item failures absorbed during document reconciliation",
		}),
		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fidelis_document_upload_duration_seconds",
			Help:    "Duration of document uploads including object storage",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
