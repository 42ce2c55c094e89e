// Package vfs implements the filesystem engine: a path index over an
// in-memory content-addressable node store, with copy-on-write updates
// that cascade from a changed leaf up to the root, soft deletion,
// reachability-based garbage collection, and JSON serialization with
// round-trip fidelity.
package vfs

import "errors"

// FSError represents a contract violation: misuse of the engine rather
// than an expected filesystem-state outcome.
//
// Expected state failures (missing path, invalid parent, already-exists,
// type mismatch) are reported as boolean/optional results from the
// operations themselves, never as errors; callers branch on them
// routinely. FSError is reserved for the loud tier: reading a handle not
// opened for reading, opening a directory, malformed persisted state,
// and similar programmer errors.
type FSError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the filesystem path related to the error (if applicable)
	Path string
}

// Error implements the error interface.
func (e *FSError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a contract violation.
type ErrorCode int

const (
	// ErrIsDirectory indicates a file operation was attempted on a directory
	// (opening a directory for I/O).
	ErrIsDirectory ErrorCode = iota

	// ErrNotReadable indicates a read on a handle opened without read capability.
	ErrNotReadable

	// ErrNotWritable indicates a write on a handle opened without write capability.
	ErrNotWritable

	// ErrInvalidArgument indicates invalid parameters were provided.
	// Examples: unknown open mode, seek to a negative position.
	ErrInvalidArgument

	// ErrBadState indicates malformed or structurally incomplete persisted
	// state (unparseable document, missing required top-level fields).
	ErrBadState
)

// IsCode reports whether err is an *FSError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var fsErr *FSError
	return errors.As(err, &fsErr) && fsErr.Code == code
}
