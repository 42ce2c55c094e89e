// Package snapshot defines the storage interface for persisted filesystem
// images.
//
// A snapshot is the serialized form of a complete filesystem (nodes, path
// index, and deletion set) as produced by vfs.FileSystem.ToJSON. The snapshot
// store manages named copies of these documents so a filesystem can be saved,
// listed, and restored across process restarts.
//
// The store treats snapshot documents as opaque byte blobs. It does NOT:
//   - Parse or validate the document contents → handled by vfs.FromJSON
//   - Deduplicate nodes across snapshots → each snapshot is self-contained
//   - Enforce retention policies → callers decide what to keep
//
// Implementations exist for the local filesystem, BadgerDB, and S3. All of
// them satisfy the same contract, tested by the shared suite in the testing
// subpackage.
package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// Store Interface
// ============================================================================

// Store persists named snapshot documents.
//
// Names identify snapshots within a store. They are chosen by the caller
// (for example "nightly" or "pre-upgrade") and must satisfy ValidateName so
// that every backend can use them directly as file names or object keys.
//
// Saving under an existing name overwrites the previous document. Loading or
// listing never mutates the store.
//
// Thread Safety:
// Implementations must be safe for concurrent use. Concurrent saves to the
// same name are last-writer-wins; a concurrent load observes either the old
// or the new document, never a mix.
//
// Usage:
//
//	data, err := fs.ToJSON()
//	if err != nil {
//	    return err
//	}
//	if err := store.Save(ctx, "nightly", data); err != nil {
//	    return err
//	}
type Store interface {
	// Save persists a snapshot document under the given name.
	//
	// An existing snapshot with the same name is replaced atomically:
	// a concurrent Load returns either the old or the new document.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - name: Snapshot name (must satisfy ValidateName)
	//   - data: Serialized filesystem document
	//
	// Returns:
	//   - error: ErrInvalidName for bad names, or storage/context errors
	Save(ctx context.Context, name string, data []byte) error

	// Load retrieves the snapshot document stored under the given name.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - name: Snapshot name to load
	//
	// Returns:
	//   - []byte: The stored document
	//   - error: ErrSnapshotNotFound if no such snapshot exists,
	//     ErrInvalidName for bad names, or storage/context errors
	Load(ctx context.Context, name string) ([]byte, error)

	// List returns metadata for every snapshot in the store, sorted by name.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//
	// Returns:
	//   - []Info: One entry per snapshot, sorted by Name; empty if none
	//   - error: Storage or context errors
	List(ctx context.Context) ([]Info, error)

	// Delete removes the snapshot stored under the given name.
	//
	// Deleting a snapshot that does not exist is not an error, making the
	// operation idempotent.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - name: Snapshot name to delete
	//
	// Returns:
	//   - error: ErrInvalidName for bad names, or storage/context errors
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	//
	// After Close, the behavior of other methods is undefined.
	//
	// Returns:
	//   - error: Errors from releasing underlying resources
	Close() error
}

// Info describes a stored snapshot.
type Info struct {
	// Name is the caller-chosen snapshot name.
	Name string

	// Size is the document size in bytes. Backends that keep large values
	// in a log may report an approximate size.
	Size uint64

	// ModTime is when the snapshot was last saved. Backends that do not
	// record timestamps report the zero time.
	ModTime time.Time
}

// ============================================================================
// Name Validation
// ============================================================================

// ValidateName reports whether a snapshot name is usable by every backend.
//
// Names become file names on disk and object keys in S3, so they must be
// non-empty, free of path separators, and must not be a relative-path
// component.
//
// Parameters:
//   - name: Candidate snapshot name
//
// Returns:
//   - error: ErrInvalidName (wrapped with the offending name) if the name
//     cannot be used, nil otherwise
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty name: %w", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("name %q: %w", name, ErrInvalidName)
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("name %q contains a path separator: %w", name, ErrInvalidName)
	}
	return nil
}
