// Package fs provides a snapshot store backed by a local directory.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marmos91/dagfs/pkg/snapshot"
)

// snapshotExt is appended to snapshot names to form file names.
const snapshotExt = ".json"

// FSSnapshotStore implements snapshot.Store using the local filesystem.
//
// Each snapshot is stored as a single file named "<name>.json" inside the
// base directory. Saves write to a temporary file first and rename it into
// place, so a concurrent reader observes either the previous document or the
// new one, never a partial write.
//
// Thread Safety:
// The underlying filesystem operations are thread-safe at the OS level, and
// the rename-based save keeps documents consistent under concurrent access.
// Concurrent saves to the same name are last-writer-wins.
type FSSnapshotStore struct {
	basePath string
}

// NewFSSnapshotStore creates a new filesystem-based snapshot store.
//
// This initializes the store by creating the base directory if it doesn't
// exist. Snapshots can hold the full filesystem image, including its virtual
// credential files, so the directory is created with permissions 0700 and
// snapshot files are written with 0600.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - basePath: Directory for storing snapshot files
//
// Returns:
//   - *FSSnapshotStore: Initialized store
//   - error: Returns error if directory creation fails or context is cancelled
func NewFSSnapshotStore(ctx context.Context, basePath string) (*FSSnapshotStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FSSnapshotStore{basePath: basePath}, nil
}

// filePath returns the full path for a given snapshot name.
func (s *FSSnapshotStore) filePath(name string) string {
	return filepath.Join(s.basePath, name+snapshotExt)
}

// Save persists a snapshot document under the given name.
//
// The document is written to a temporary file in the base directory and then
// renamed to its final name. The rename stays on one filesystem, so an
// existing snapshot with the same name is replaced atomically.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Snapshot name (must satisfy snapshot.ValidateName)
//   - data: Serialized filesystem document
//
// Returns:
//   - error: snapshot.ErrInvalidName for bad names, or filesystem/context errors
func (s *FSSnapshotStore) Save(ctx context.Context, name string, data []byte) error {
	// ========================================================================
	// Step 1: Validate inputs and check context
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := snapshot.ValidateName(name); err != nil {
		return err
	}

	// ========================================================================
	// Step 2: Write the document to a temporary file
	// ========================================================================

	tmp, err := os.CreateTemp(s.basePath, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot %s: %w", name, err)
	}

	// CreateTemp uses 0600, which is the mode snapshot files keep

	// ========================================================================
	// Step 3: Rename the temporary file into place
	// ========================================================================

	if err := os.Rename(tmpPath, s.filePath(name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish snapshot %s: %w", name, err)
	}

	return nil
}

// Load retrieves the snapshot document stored under the given name.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Snapshot name to load
//
// Returns:
//   - []byte: The stored document
//   - error: snapshot.ErrSnapshotNotFound if no such file exists,
//     snapshot.ErrInvalidName for bad names, or filesystem/context errors
func (s *FSSnapshotStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := snapshot.ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot %s: %w", name, snapshot.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}

	return data, nil
}

// List returns metadata for every snapshot file in the base directory,
// sorted by name.
//
// Files without the snapshot extension (including in-flight temporary files)
// are ignored. A file deleted between the directory scan and its stat call is
// skipped rather than reported as an error.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//
// Returns:
//   - []snapshot.Info: One entry per snapshot file, sorted by name
//   - error: Filesystem or context errors
func (s *FSSnapshotStore) List(ctx context.Context) ([]snapshot.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var infos []snapshot.Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat snapshot %s: %w", entry.Name(), err)
		}

		infos = append(infos, snapshot.Info{
			Name:    strings.TrimSuffix(entry.Name(), snapshotExt),
			Size:    uint64(fi.Size()),
			ModTime: fi.ModTime(),
		})
	}

	// ReadDir sorts by file name; trimming the extension can change the
	// relative order of names that contain dots, so sort again.
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos, nil
}

// Delete removes the snapshot file for the given name.
//
// Deleting a snapshot that does not exist is a no-op.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Snapshot name to delete
//
// Returns:
//   - error: snapshot.ErrInvalidName for bad names, or filesystem/context errors
func (s *FSSnapshotStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := snapshot.ValidateName(name); err != nil {
		return err
	}

	if err := os.Remove(s.filePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
	}

	return nil
}

// Close releases resources held by the store. The filesystem store holds
// none, so Close always succeeds.
func (s *FSSnapshotStore) Close() error {
	return nil
}
