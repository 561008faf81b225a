// Package metrics declares the Prometheus collectors fed by the storage
// engine. They register on the default registry so an embedding process can
// expose them with promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// DocumentOps counts document operations by kind and outcome.
	DocumentOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vellum_document_ops_total",
			Help: "Total number of document operations",
		},
		[]string{"op", "status"},
	)
	// WriteDuration is the latency of a durable document write, lock wait included.
	WriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vellum_document_write_seconds",
			Help:    "Durable document write latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	// IDsGenerated counts identifiers accepted into the id pool.
	IDsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vellum_ids_generated_total",
			Help: "Total number of identifiers added to the id pool",
		},
	)
	// IDCollisions counts candidates re-rolled because they already existed.
	IDCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vellum_id_collisions_total",
			Help: "Total number of identifier candidates rejected as duplicates",
		},
	)
)

// ObserveOp records the outcome of a document operation.
func ObserveOp(op string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	DocumentOps.WithLabelValues(op, status).Inc()
}

// ObserveWrite records a write's outcome and latency.
func ObserveWrite(start time.Time, err error) {
	ObserveOp("write", err)
	WriteDuration.Observe(time.Since(start).Seconds())
}
