// Package gc provides background garbage collection for orphaned nodes.
//
// Copy-on-write stranding is the normal mode of operation, not an
// accident: every write rebuilds the ancestor chain and leaves the
// previous chain behind, every overwrite leaves the previous file
// version behind, and soft deletion leaves whole subtrees behind. The
// collector periodically sweeps the node store down to the set still
// referenced by the live path index.
package gc

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dagfs/internal/logger"
	"github.com/marmos91/dagfs/pkg/vfs"
)

// Collector runs periodic reachability sweeps over a filesystem.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	fs      *vfs.FileSystem
	config  Config
	metrics Metrics
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether garbage collection is active (default: true)
	Enabled bool

	// Interval is how often to run garbage collection (default: 1h)
	Interval time.Duration

	// DryRun mode logs what would be deleted without actually deleting
	// (default: false)
	DryRun bool
}

// NewCollector creates a new garbage collector for fs.
//
// The collector is initialized but not started. Call Start() to begin
// background collection.
//
// Parameters:
//   - fs: Filesystem to sweep
//   - config: Collector configuration
//   - metrics: Run observability (nil disables metrics collection)
func NewCollector(fs *vfs.FileSystem, config Config, metrics Metrics) *Collector {
	if config.Interval == 0 {
		config.Interval = time.Hour
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &Collector{
		fs:      fs,
		config:  config,
		metrics: metrics,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins background garbage collection.
//
// This starts a goroutine that runs collection at the configured
// interval until Stop() is called.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	logger.Info("Starting garbage collector: interval=%s dry_run=%v",
		c.config.Interval, c.config.DryRun)

	go c.worker()
}

// Stop stops the garbage collector and waits for it to finish.
//
// Safe to call multiple times only when Start actually ran; callers
// should pair one Stop with one Start.
//
// Returns an error if ctx expires before the worker winds down.
func (c *Collector) Stop(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	logger.Info("Stopping garbage collector...")
	close(c.stopCh)

	select {
	case <-c.doneCh:
		logger.Info("Garbage collector stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow triggers an immediate collection run and blocks until it
// completes. Useful for tests, startup cleanup, and manual triggers.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running garbage collection (manual trigger)...")
	return c.collect(ctx)
}

// worker is the background goroutine that runs periodic collection.
func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	logger.Info("Garbage collector worker started")

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			logger.Info("Garbage collector worker stopping...")
			return
		}
	}
}

// collect performs a single collection run.
//
// The reachable set is the value set of the live path index, which
// indexes every level of every visible path; nodes outside it are
// orphaned and swept in one pass.
func (c *Collector) collect(ctx context.Context) (stats *Stats, err error) {
	stats = &Stats{StartTime: time.Now()}
	defer func() { c.metrics.ObserveRun(stats, c.config.DryRun, err) }()

	if err := ctx.Err(); err != nil {
		stats.EndTime = time.Now()
		return stats, err
	}

	stats.StoredCount = uint64(c.fs.NodeCount())

	orphaned := c.fs.Orphans()
	stats.OrphanedCount = uint64(len(orphaned))
	stats.LiveCount = stats.StoredCount - stats.OrphanedCount

	if len(orphaned) == 0 {
		logger.Info("GC: no orphaned nodes found")
		stats.EndTime = time.Now()
		return stats, nil
	}

	if c.config.DryRun {
		logger.Info("GC: DRY RUN - would delete %d nodes:", stats.OrphanedCount)
		for i, h := range orphaned {
			if i >= 10 {
				logger.Info("  ... and %d more", len(orphaned)-10)
				break
			}
			logger.Info("  - %s", h)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	stats.DeletedCount = uint64(c.fs.Purge())
	stats.EndTime = time.Now()

	logger.Info("GC: completed - deleted %d nodes, duration=%s",
		stats.DeletedCount, stats.Duration())

	return stats, nil
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime     time.Time // When collection started
	EndTime       time.Time // When collection ended
	StoredCount   uint64    // Nodes in the store before the run
	LiveCount     uint64    // Nodes referenced by the live path index
	OrphanedCount uint64    // Unreferenced nodes found
	DeletedCount  uint64    // Nodes actually deleted (zero on dry run)
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("stored=%d live=%d orphaned=%d deleted=%d duration=%s",
		s.StoredCount, s.LiveCount, s.OrphanedCount, s.DeletedCount, s.Duration())
}
