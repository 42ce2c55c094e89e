// Package snapshot defines the storage interface for persisted filesystem
// images.
//
// This file contains metrics-related types and implementations for
// observability of snapshot store operations.
package snapshot

import (
	"context"
	"time"
)

// Metrics provides observability for snapshot store operations.
//
// Implementations can use this interface to collect metrics about store
// operations, latency, throughput, and errors. This is optional - if not
// provided, metrics collection is skipped.
//
// Example implementations:
//   - Prometheus metrics
//   - StatsD metrics
//   - In-memory counters for testing
type Metrics interface {
	// ObserveOperation records a store operation with its duration and outcome
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records document bytes moved by save and load operations
	RecordBytes(operation string, bytes int64)
}

// noopMetrics is a default no-op metrics implementation
type noopMetrics struct{}

func (noopMetrics) ObserveOperation(operation string, duration time.Duration, err error) {}
func (noopMetrics) RecordBytes(operation string, bytes int64)                            {}

// Instrument wraps a store so that every operation is timed and counted.
//
// A nil metrics value returns the store unwrapped, so callers can pass
// through whatever their metrics constructor returned without checking.
//
// Parameters:
//   - store: Store to instrument
//   - metrics: Observability sink (nil disables instrumentation)
//
// Returns the instrumented store.
func Instrument(store Store, metrics Metrics) Store {
	if metrics == nil {
		return store
	}
	return &instrumentedStore{store: store, metrics: metrics}
}

// instrumentedStore decorates a Store with operation metrics.
//
// Failed operations are observed but their byte counts are not recorded,
// so byte totals only reflect documents that actually moved.
type instrumentedStore struct {
	store   Store
	metrics Metrics
}

func (s *instrumentedStore) Save(ctx context.Context, name string, data []byte) error {
	start := time.Now()
	err := s.store.Save(ctx, name, data)
	s.metrics.ObserveOperation("save", time.Since(start), err)
	if err == nil {
		s.metrics.RecordBytes("save", int64(len(data)))
	}
	return err
}

func (s *instrumentedStore) Load(ctx context.Context, name string) ([]byte, error) {
	start := time.Now()
	data, err := s.store.Load(ctx, name)
	s.metrics.ObserveOperation("load", time.Since(start), err)
	if err == nil {
		s.metrics.RecordBytes("load", int64(len(data)))
	}
	return data, err
}

func (s *instrumentedStore) List(ctx context.Context) ([]Info, error) {
	start := time.Now()
	infos, err := s.store.List(ctx)
	s.metrics.ObserveOperation("list", time.Since(start), err)
	return infos, err
}

func (s *instrumentedStore) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := s.store.Delete(ctx, name)
	s.metrics.ObserveOperation("delete", time.Since(start), err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.store.Close()
}
