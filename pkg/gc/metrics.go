// Package gc provides background garbage collection for orphaned nodes.
//
// This file contains metrics-related types and implementations for
// observability of collection runs.
package gc

// Metrics provides observability for garbage collection runs.
//
// Implementations can use this interface to collect metrics about run
// frequency, duration, and the size of the reachable and orphaned sets.
// This is optional - if not provided, metrics collection is skipped.
//
// Example implementations:
//   - Prometheus metrics
//   - StatsD metrics
//   - In-memory counters for testing
type Metrics interface {
	// ObserveRun records a completed collection run with its outcome.
	// Dry runs are recorded with DeletedCount zero.
	ObserveRun(stats *Stats, dryRun bool, err error)
}

// noopMetrics is a default no-op metrics implementation
type noopMetrics struct{}

func (noopMetrics) ObserveRun(stats *Stats, dryRun bool, err error) {}
