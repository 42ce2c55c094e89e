package snapshot

import "errors"

// ============================================================================
// Standard Snapshot Store Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all snapshot store implementations. Callers should check for them
// with errors.Is rather than comparing messages.
//
// Error Wrapping:
// Implementations wrap these errors with additional context:
//
//	if !exists {
//	    return fmt.Errorf("snapshot %s: %w", name, snapshot.ErrSnapshotNotFound)
//	}

var (
	// ErrSnapshotNotFound indicates the requested snapshot does not exist.
	//
	// This error is returned when:
	//   - Load() called with a name that was never saved
	//   - Load() called with a name that has been deleted
	//
	// Delete() does NOT return this error; deleting a missing snapshot is
	// a no-op.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidName indicates the snapshot name cannot be used as a
	// storage key.
	//
	// This error is returned when:
	//   - The name is empty
	//   - The name contains a path separator
	//   - The name is "." or ".."
	//
	// See ValidateName for the exact rules.
	ErrInvalidName = errors.New("invalid snapshot name")
)
