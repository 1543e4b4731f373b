// Package metrics provides Prometheus metrics for backend operations.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry holds every virtualpath metric
var Registry = prometheus.NewRegistry()

var (
	backendOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "virtualpath_backend_operations_total",
			Help: "Total backend primitive calls",
		},
		[]string{"backend", "operation", "status"},
	)

	backendOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "virtualpath_backend_operation_duration_seconds",
			Help:    "Backend primitive call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	listingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "virtualpath_listing_cache_total",
			Help: "Directory listing lookups, by whether the cache was already filled",
		},
		[]string{"result"},
	)

	transferBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "virtualpath_transfer_bytes_total",
			Help: "Bytes moved by copy/move, by native or read+write fallback path",
		},
		[]string{"mode"},
	)
)

func init() {
	Registry.MustRegister(backendOperationsTotal, backendOperationDuration, listingCacheTotal, transferBytesTotal)
}

// RecordBackendOperation records one backend primitive call
func RecordBackendOperation(backend, operation string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	backendOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	backendOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordCacheHit records a listing served from a filled cache
func RecordCacheHit() {
	listingCacheTotal.WithLabelValues("hit").Inc()
}

// RecordCacheFill records a listing fetched from the backend
func RecordCacheFill() {
	listingCacheTotal.WithLabelValues("fill").Inc()
}

// RecordTransfer records bytes copied; native is false for the read+write fallback
func RecordTransfer(bytes int64, native bool) {
	mode := "native"
	if !native {
		mode = "fallback"
	}
	transferBytesTotal.WithLabelValues(mode).Add(float64(bytes))
}

// BackendOperations returns the current count for a backend/operation/status triple
func BackendOperations(backend, operation, status string) prometheus.Counter {
	return backendOperationsTotal.WithLabelValues(backend, operation, status)
}

// CacheLookups returns the listing cache counter for "hit" or "fill"
func CacheLookups(result string) prometheus.Counter {
	return listingCacheTotal.WithLabelValues(result)
}

// Write dumps all metrics in the Prometheus text format
func Write(w io.Writer) error {
	families, err := Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
