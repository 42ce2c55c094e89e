package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dagfs/pkg/snapshot"
)

// snapshotMetrics is the Prometheus implementation of the snapshot.Metrics
// interface.
//
// This implementation collects metrics about snapshot store operations
// including:
//   - Operation counts (save, load, list, delete)
//   - Operation latency
//   - Document bytes saved and loaded
//   - Error rates
type snapshotMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
}

// NewSnapshotMetrics creates a new Prometheus-backed snapshot.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes snapshot.Instrument to return the store unwrapped.
//
// This implements the snapshot.Metrics interface from pkg/snapshot/metrics.go.
func NewSnapshotMetrics() snapshot.Metrics {
	if !IsEnabled() {
		return nil // snapshot.Instrument leaves the store unwrapped
	}

	reg := GetRegistry()

	return &snapshotMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagfs_snapshot_operations_total",
				Help: "Total number of snapshot store operations by operation type and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dagfs_snapshot_operation_duration_seconds",
				Help: "Duration of snapshot store operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.25,  // 250ms
					0.5,   // 500ms
					1.0,   // 1s
					2.5,   // 2.5s
					5.0,   // 5s
					10.0,  // 10s
				},
			},
			[]string{"operation"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagfs_snapshot_bytes_total",
				Help: "Total document bytes moved by snapshot save and load operations",
			},
			[]string{"operation"}, // save or load
		),
		errorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagfs_snapshot_errors_total",
				Help: "Total number of snapshot store operation errors by operation type",
			},
			[]string{"operation"},
		),
	}
}

// ObserveOperation implements snapshot.Metrics.ObserveOperation
func (m *snapshotMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		m.errorsTotal.WithLabelValues(operation).Inc()
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBytes implements snapshot.Metrics.RecordBytes
func (m *snapshotMetrics) RecordBytes(operation string, bytes int64) {
	m.bytesTotal.WithLabelValues(operation).Add(float64(bytes))
}
