package e2e

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/dagfs/pkg/config"
	"github.com/marmos91/dagfs/pkg/gc"
	snapshotFs "github.com/marmos91/dagfs/pkg/snapshot/fs"
	"github.com/marmos91/dagfs/pkg/vfs"
)

// TestLifecycle_SnapshotRestartAndPurge runs the flow the daemon drives:
// build state, save it, restart, restore, collect garbage, and keep reading.
func TestLifecycle_SnapshotRestartAndPurge(t *testing.T) {
	ctx := context.Background()
	storeDir := t.TempDir()

	store, err := snapshotFs.NewFSSnapshotStore(ctx, storeDir)
	if err != nil {
		t.Fatalf("Failed to create snapshot store: %v", err)
	}

	// Build a filesystem with some history: overwrites and a removal
	// leave orphaned nodes behind for the collector
	fs := vfs.New()
	if err := fs.Seed(); err != nil {
		t.Fatalf("Failed to seed filesystem: %v", err)
	}
	if !fs.Mkdir("/projects") {
		t.Fatal("Failed to create /projects")
	}
	if !fs.Write("/projects/notes.txt", []byte("draft")) {
		t.Fatal("Failed to write notes.txt")
	}
	if !fs.Write("/projects/notes.txt", []byte("final notes")) {
		t.Fatal("Failed to overwrite notes.txt")
	}
	if !fs.Write("/projects/scratch.txt", []byte("temporary")) {
		t.Fatal("Failed to write scratch.txt")
	}
	if !fs.Remove("/projects/scratch.txt") {
		t.Fatal("Failed to remove scratch.txt")
	}

	// Append through a handle; the commit cascades like any write
	f, err := fs.Open("/projects/notes.txt", vfs.ModeAppend)
	if err != nil {
		t.Fatalf("Failed to open notes.txt: %v", err)
	}
	if _, err := f.Write([]byte(", appended")); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close handle: %v", err)
	}

	data, err := fs.ToJSON()
	if err != nil {
		t.Fatalf("Failed to serialize filesystem: %v", err)
	}
	if err := store.Save(ctx, "state", data); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	// Simulate a restart: reopen the store over the same directory
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}
	store, err = snapshotFs.NewFSSnapshotStore(ctx, storeDir)
	if err != nil {
		t.Fatalf("Failed to reopen snapshot store: %v", err)
	}
	defer func() { _ = store.Close() }()

	raw, err := store.Load(ctx, "state")
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	restored, err := vfs.FromJSON(raw)
	if err != nil {
		t.Fatalf("Failed to restore filesystem: %v", err)
	}

	content, ok := restored.Read("/projects/notes.txt")
	if !ok {
		t.Fatal("Expected notes.txt to survive the round trip")
	}
	if string(content) != "final notes, appended" {
		t.Errorf("Expected 'final notes, appended', got %q", content)
	}
	if restored.Exists("/projects/scratch.txt") {
		t.Error("Expected scratch.txt to stay removed after restore")
	}

	// The restored filesystem carries the orphaned history; collect it
	collector := gc.NewCollector(restored, gc.Config{Enabled: true}, nil)
	stats, err := collector.RunNow(ctx)
	if err != nil {
		t.Fatalf("Garbage collection failed: %v", err)
	}
	if stats.DeletedCount == 0 {
		t.Error("Expected the collector to delete orphaned nodes")
	}

	// Everything live is still readable after the purge
	content, ok = restored.Read("/projects/notes.txt")
	if !ok || string(content) != "final notes, appended" {
		t.Errorf("Expected notes.txt intact after purge, got %q (ok=%v)", content, ok)
	}
	if _, ok := restored.Read("/etc/passwd"); !ok {
		t.Error("Expected /etc/passwd readable after purge")
	}

	// A second run has nothing left to do
	stats, err = collector.RunNow(ctx)
	if err != nil {
		t.Fatalf("Second garbage collection failed: %v", err)
	}
	if stats.OrphanedCount != 0 {
		t.Errorf("Expected no orphans on the second run, got %d", stats.OrphanedCount)
	}
}

// TestLifecycle_ExportAfterRestore saves, restores, and materializes the
// tree on the host filesystem.
func TestLifecycle_ExportAfterRestore(t *testing.T) {
	ctx := context.Background()

	store, err := snapshotFs.NewFSSnapshotStore(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create snapshot store: %v", err)
	}
	defer func() { _ = store.Close() }()

	fs := vfs.New()
	if err := fs.Seed(); err != nil {
		t.Fatalf("Failed to seed filesystem: %v", err)
	}
	if !fs.Mkdir("/srv") {
		t.Fatal("Failed to create /srv")
	}
	if !fs.Write("/srv/index.html", []byte("<html>hello</html>")) {
		t.Fatal("Failed to write index.html")
	}

	data, err := fs.ToJSON()
	if err != nil {
		t.Fatalf("Failed to serialize filesystem: %v", err)
	}
	if err := store.Save(ctx, "site", data); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	raw, err := store.Load(ctx, "site")
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	restored, err := vfs.FromJSON(raw)
	if err != nil {
		t.Fatalf("Failed to restore filesystem: %v", err)
	}

	exportDir := t.TempDir()
	count, err := restored.Export(exportDir, false)
	if err != nil {
		t.Fatalf("Failed to export filesystem: %v", err)
	}
	if count == 0 {
		t.Fatal("Expected export to create entries")
	}

	got, err := os.ReadFile(filepath.Join(exportDir, "srv", "index.html"))
	if err != nil {
		t.Fatalf("Failed to read exported index.html: %v", err)
	}
	if string(got) != "<html>hello</html>" {
		t.Errorf("Exported index.html content mismatch: %q", got)
	}

	passwd, err := os.ReadFile(filepath.Join(exportDir, "etc", "passwd"))
	if err != nil {
		t.Fatalf("Failed to read exported passwd: %v", err)
	}
	if !bytes.Contains(passwd, []byte("alice:x:1001:1001")) {
		t.Errorf("Exported passwd missing seeded user: %q", passwd)
	}

	// Devices cannot be materialized without privileges
	if _, err := os.Stat(filepath.Join(exportDir, "dev", "null")); !os.IsNotExist(err) {
		t.Error("Expected device files to be skipped during export")
	}
}

// TestLifecycle_ConfigDrivenStore drives snapshot persistence through the
// configuration layer the way cmd/dagfs does.
func TestLifecycle_ConfigDrivenStore(t *testing.T) {
	ctx := context.Background()
	storeDir := t.TempDir()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := fmt.Sprintf(`
logging:
  level: "ERROR"

snapshot:
  name: "nightly"
  store:
    type: "filesystem"
    filesystem:
      path: %q
`, storeDir)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	store, err := config.CreateSnapshotStore(ctx, &cfg.Snapshot.Store)
	if err != nil {
		t.Fatalf("Failed to create snapshot store: %v", err)
	}
	defer func() { _ = store.Close() }()

	fs := vfs.New()
	if !fs.Write("/release", []byte("v1")) {
		t.Fatal("Failed to write /release")
	}
	data, err := fs.ToJSON()
	if err != nil {
		t.Fatalf("Failed to serialize filesystem: %v", err)
	}
	if err := store.Save(ctx, cfg.Snapshot.Name, data); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list snapshots: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "nightly" {
		t.Fatalf("Expected a single snapshot 'nightly', got %+v", infos)
	}

	// The snapshot lands where the config pointed
	if _, err := os.Stat(filepath.Join(storeDir, "nightly.json")); err != nil {
		t.Errorf("Expected nightly.json under the configured path: %v", err)
	}
}
