package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the bond module.
type Metrics struct {
	Operations      *prometheus.CounterVec
	OperationErrors *prometheus.CounterVec
	StatusDerived   *prometheus.CounterVec
	ImportRows      *prometheus.CounterVec
	ListDuration    prometheus.Histogram
}

// New creates a Metrics instance with all bond module metrics registered.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fidelis_bond_operations_total",
			Help: "Total bond lifecycle operations by kind",
		}, []string{"op"}),
		OperationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fidelis_bond_operation_errors_total",
			Help: "Failed bond lifecycle operations by kind",
		}, []string{"op"}),
		StatusDerived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fidelis_bond_status_derived_total",
			Help: "Derived bond statuses by value",
		}, []string{"status"}),
		ImportRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fidelis_bond_import_rows_total",
			Help: "Bulk import rows by outcome",
		}, []string{"outcome"}),
		ListDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fidelis_bond_list_duration_seconds",
			Help:    "Duration of bond list queries including status derivation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}
