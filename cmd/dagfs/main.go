package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/marmos91/dagfs/internal/logger"
	"github.com/marmos91/dagfs/pkg/config"
	"github.com/marmos91/dagfs/pkg/gc"
	"github.com/marmos91/dagfs/pkg/metrics"
	"github.com/marmos91/dagfs/pkg/snapshot"
	"github.com/marmos91/dagfs/pkg/vfs"
)

const version = "0.1.0"

// saveSnapshot serializes fs and writes it to the store under name.
func saveSnapshot(ctx context.Context, fs *vfs.FileSystem, store snapshot.Store, name string) error {
	data, err := fs.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize filesystem: %w", err)
	}

	if err := store.Save(ctx, name, data); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", name, err)
	}

	logger.Debug("Snapshot %s saved (%d bytes)", name, len(data))
	return nil
}

// autosaveWorker periodically saves the filesystem until stopCh closes.
func autosaveWorker(fs *vfs.FileSystem, store snapshot.Store, name string, interval time.Duration, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Autosave worker started: name=%s interval=%s", name, interval)

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			err := saveSnapshot(ctx, fs, store, name)
			cancel()

			if err != nil {
				logger.Error("Autosave failed: %v", err)
			} else {
				logger.Info("Autosave completed: %s", name)
			}

		case <-stopCh:
			logger.Info("Autosave worker stopping...")
			return
		}
	}
}

func main() {
	// Runtime configuration flags
	configPath := flag.String("config", "", "Path to config file (default: search "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR); overrides the configured level")
	daemon := flag.Bool("daemon", false, "Keep running with autosave and garbage collection until interrupted")

	// One-shot operation flags
	seedFlag := flag.Bool("seed", false, "Seed the baseline /etc and /dev layout on a fresh filesystem")
	loadName := flag.String("load", "", "Restore the named snapshot before doing anything else")
	saveName := flag.String("save", "", "Save the filesystem under the given snapshot name")
	exportDir := flag.String("export", "", "Export the filesystem tree into the given host directory")
	preservePerms := flag.Bool("preserve-permissions", false, "Apply stored modes (and uid/gid when root) during -export")
	purgeFlag := flag.Bool("purge", false, "Run garbage collection once")

	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("dagfs %s\n", version)
		return
	}

	oneShot := *seedFlag || *loadName != "" || *saveName != "" || *exportDir != "" || *purgeFlag
	if !oneShot && !*daemon {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -daemon or one of -seed, -load, -save, -export, -purge")
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure logger; the flag wins over the config file
	level := cfg.Logging.Level
	if *logLevel != "" {
		level = strings.ToUpper(*logLevel)
	}
	logger.SetLevel(level)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("dagfs - content-addressed virtual filesystem")
	logger.Info("Log level set to: %s", level)

	// Initialize metrics before any component constructs its instruments
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics collection enabled")
	}

	// The snapshot store is only opened when an operation needs it, so
	// store-less invocations (such as -export) run without its backing
	// directory or credentials.
	var store snapshot.Store
	if *loadName != "" || *saveName != "" || *daemon {
		store, err = config.CreateSnapshotStore(ctx, &cfg.Snapshot.Store)
		if err != nil {
			log.Fatalf("Failed to create snapshot store: %v", err)
		}
		store = snapshot.Instrument(store, metrics.NewSnapshotMetrics())
		defer func() { _ = store.Close() }()
	}

	// Create or restore the filesystem
	var fs *vfs.FileSystem
	restored := false
	if *loadName != "" {
		data, err := store.Load(ctx, *loadName)
		if err != nil {
			log.Fatalf("Failed to load snapshot %s: %v", *loadName, err)
		}

		fs, err = vfs.FromJSON(data)
		if err != nil {
			log.Fatalf("Failed to restore snapshot %s: %v", *loadName, err)
		}

		restored = true
		logger.Info("Restored snapshot %s: %d nodes, %d paths", *loadName, fs.NodeCount(), fs.PathCount())
	} else {
		fs = vfs.New()
		logger.Info("Created empty filesystem")
	}

	// Seed the baseline layout on a fresh filesystem only; a restored
	// snapshot already carries whatever layout it was saved with
	if !restored && (*seedFlag || cfg.Seed.Enabled) {
		if err := fs.Seed(); err != nil {
			log.Fatalf("Failed to seed filesystem: %v", err)
		}
		logger.Info("Baseline /etc and /dev layout seeded")
	}

	gcMetrics := metrics.NewGCMetrics()

	// One-shot garbage collection
	if *purgeFlag {
		c := gc.NewCollector(fs, gc.Config{Enabled: true, DryRun: cfg.GC.DryRun}, gcMetrics)
		stats, err := c.RunNow(ctx)
		if err != nil {
			log.Fatalf("Garbage collection failed: %v", err)
		}
		logger.Info("Garbage collection: %s", stats.Summary())
	}

	// One-shot host export
	if *exportDir != "" {
		count, err := fs.Export(*exportDir, *preservePerms)
		if err != nil {
			log.Fatalf("Failed to export filesystem: %v", err)
		}
		logger.Info("Exported %d entries to %s", count, *exportDir)
	}

	// One-shot snapshot save
	if *saveName != "" {
		if err := saveSnapshot(ctx, fs, store, *saveName); err != nil {
			log.Fatalf("Failed to save snapshot: %v", err)
		}
		logger.Info("Snapshot saved: %s", *saveName)
	}

	if !*daemon {
		logger.Info("Done")
		return
	}

	// ========================================================================
	// Daemon mode
	// ========================================================================

	logger.Info("Daemon configuration:")
	logger.Info("  Snapshot store: %s", cfg.Snapshot.Store.Type)
	logger.Info("  Snapshot name: %s", cfg.Snapshot.Name)
	if cfg.Snapshot.AutosaveInterval > 0 {
		logger.Info("  Autosave interval: %v", cfg.Snapshot.AutosaveInterval)
	} else {
		logger.Info("  Autosave: disabled")
	}
	logger.Info("  GC enabled: %v (interval: %v, dry_run: %v)", cfg.GC.Enabled, cfg.GC.Interval, cfg.GC.DryRun)
	logger.Info("  Shutdown timeout: %v", cfg.Server.ShutdownTimeout)
	if cfg.Metrics.Enabled {
		logger.Info("  Metrics port: %d", cfg.Metrics.Port)
	}

	// Start metrics server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start background garbage collection
	collector := gc.NewCollector(fs, gc.Config{
		Enabled:  cfg.GC.Enabled,
		Interval: cfg.GC.Interval,
		DryRun:   cfg.GC.DryRun,
	}, gcMetrics)
	collector.Start()

	// Start autosave worker
	autosaveStop := make(chan struct{})
	autosaveDone := make(chan struct{})
	if cfg.Snapshot.AutosaveInterval > 0 {
		go autosaveWorker(fs, store, cfg.Snapshot.Name, cfg.Snapshot.AutosaveInterval, autosaveStop, autosaveDone)
	} else {
		close(autosaveDone)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("dagfs is running. Press Ctrl+C to stop.")
	<-sigChan

	logger.Info("Shutdown signal received, initiating graceful shutdown...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop the autosave worker before the final save so the two never race
	close(autosaveStop)
	<-autosaveDone

	if err := collector.Stop(shutdownCtx); err != nil {
		logger.Error("Garbage collector shutdown error: %v", err)
	}

	// Final save so a restart can pick up where this run left off
	if err := saveSnapshot(shutdownCtx, fs, store, cfg.Snapshot.Name); err != nil {
		logger.Error("Final snapshot save failed: %v", err)
	} else {
		logger.Info("Final snapshot saved: %s", cfg.Snapshot.Name)
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error: %v", err)
		}
	}

	logger.Info("dagfs stopped gracefully")
}
