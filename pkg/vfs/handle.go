package vfs

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/marmos91/dagfs/internal/logger"
	"github.com/marmos91/dagfs/pkg/dag"
)

// OpenMode selects how a file handle may be used.
type OpenMode int

const (
	// ModeRead opens an existing file for reading.
	ModeRead OpenMode = iota
	// ModeWrite opens for writing; a write at position zero replaces the
	// content. Missing files are created empty.
	ModeWrite
	// ModeAppend opens for writing positioned at the end. Missing files
	// are created empty.
	ModeAppend
	// ModeReadWrite opens an existing file for both reading and writing.
	ModeReadWrite
)

func (m OpenMode) String() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeWrite:
		return "w"
	case ModeAppend:
		return "a"
	case ModeReadWrite:
		return "r+"
	default:
		return "invalid"
	}
}

func (m OpenMode) valid() bool {
	return m >= ModeRead && m <= ModeReadWrite
}

// CanRead reports whether handles opened with m accept reads.
func (m OpenMode) CanRead() bool {
	return m == ModeRead || m == ModeReadWrite
}

// CanWrite reports whether handles opened with m accept writes.
func (m OpenMode) CanWrite() bool {
	return m == ModeWrite || m == ModeAppend || m == ModeReadWrite
}

// File is an open handle on a regular file or device.
//
// Regular-file handles work on a private copy of the content taken at
// open time and publish it back through the filesystem on Close, and
// then only if at least one write happened. Readers holding older
// handles are unaffected: they keep their own copies.
//
// Device handles pass reads and writes straight through to the device
// and never publish anything.
//
// A handle belongs to the goroutine that opened it and is not safe for
// shared use. After the first Close the working copy is abandoned;
// later writes are never committed.
type File struct {
	fs   *FileSystem
	id   uuid.UUID
	path string
	mode OpenMode

	device   dag.DeviceKind
	isDevice bool

	buf     []byte
	pos     int64
	written bool
	closed  bool
}

// Open returns a handle on the entry at p.
//
// A missing path is an error only in spirit: with ModeWrite or
// ModeAppend the file is created empty and immediately visible, with
// the other modes Open returns (nil, nil). Opening a directory fails
// with an ErrIsDirectory error in every mode.
func (fs *FileSystem) Open(p string, mode OpenMode) (*File, error) {
	if !mode.valid() {
		return nil, &FSError{Code: ErrInvalidArgument, Message: fmt.Sprintf("invalid open mode %d", mode), Path: p}
	}

	if mode.CanWrite() && mode != ModeReadWrite {
		fs.mu.Lock()
		defer fs.mu.Unlock()
	} else {
		fs.mu.RLock()
		defer fs.mu.RUnlock()
	}

	p = normalizePath(p)
	h, ok := fs.resolveLocked(p)
	var node dag.Node
	if ok {
		node = fs.nodes[h]
	}

	if node == nil {
		// ModeWrite and ModeAppend create the file on the spot, so it is
		// visible before the handle is closed. A stale index entry whose
		// node is gone counts as missing and gets repaired the same way.
		if mode != ModeWrite && mode != ModeAppend {
			return nil, nil
		}
		if !fs.writeLocked(p, nil, dag.Now()) {
			return nil, nil
		}
		h, _ = fs.resolveLocked(p)
		node = fs.nodes[h]
	}

	f := &File{fs: fs, id: uuid.New(), path: p, mode: mode}
	switch n := node.(type) {
	case *dag.DirNode:
		return nil, &FSError{Code: ErrIsDirectory, Message: "is a directory", Path: p}
	case *dag.DeviceNode:
		f.isDevice = true
		f.device = n.Device()
	case *dag.FileNode:
		f.buf = n.Content()
		if mode == ModeAppend {
			f.pos = int64(len(f.buf))
		}
	}

	logger.Debug("opened %s mode=%s handle=%s", p, mode, f.id)
	return f, nil
}

// ID returns the unique identifier of this handle.
func (f *File) ID() uuid.UUID { return f.id }

// Path returns the normalized path the handle was opened on.
func (f *File) Path() string { return f.path }

// Mode returns the open mode.
func (f *File) Mode() OpenMode { return f.mode }

// Read returns up to n bytes from the current position and advances it.
// n < 0 means the rest of the content. At end of content it returns an
// empty slice. Device handles read from the device instead; n < 0 asks
// the device for its default size.
func (f *File) Read(n int) ([]byte, error) {
	if !f.mode.CanRead() {
		return nil, &FSError{Code: ErrNotReadable, Message: fmt.Sprintf("not opened for reading (mode %s)", f.mode), Path: f.path}
	}
	if f.isDevice {
		b, err := f.device.Read(n)
		if err != nil {
			return nil, &FSError{Code: ErrBadState, Message: err.Error(), Path: f.path}
		}
		return b, nil
	}

	if f.pos >= int64(len(f.buf)) {
		return []byte{}, nil
	}
	rest := int64(len(f.buf)) - f.pos
	if n < 0 || int64(n) > rest {
		n = int(rest)
	}
	out := make([]byte, n)
	copy(out, f.buf[f.pos:])
	f.pos += int64(n)
	return out, nil
}

// Write stores p at the current position and advances it. In ModeWrite
// a write at position zero replaces the whole content. Writing past the
// end zero-fills the gap. Device handles write to the device instead.
// Nothing is visible to the filesystem until Close.
func (f *File) Write(p []byte) (int, error) {
	if !f.mode.CanWrite() {
		return 0, &FSError{Code: ErrNotWritable, Message: fmt.Sprintf("not opened for writing (mode %s)", f.mode), Path: f.path}
	}
	if f.isDevice {
		n, err := f.device.Write(p)
		if err != nil {
			return 0, &FSError{Code: ErrBadState, Message: err.Error(), Path: f.path}
		}
		return n, nil
	}

	if f.mode == ModeWrite && f.pos == 0 {
		f.buf = append([]byte(nil), p...)
		f.pos = int64(len(p))
	} else {
		end := f.pos + int64(len(p))
		if end > int64(len(f.buf)) {
			grown := make([]byte, end)
			copy(grown, f.buf)
			f.buf = grown
		}
		copy(f.buf[f.pos:end], p)
		f.pos = end
	}
	f.written = true
	return len(p), nil
}

// Seek repositions the cursor following io.Seeker whence semantics.
// Seeking past the end is allowed; the gap zero-fills on the next
// write. Device handles have no cursor; Seek returns 0. A resulting
// negative position is an ErrInvalidArgument error.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.isDevice {
		return 0, nil
	}

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = int64(len(f.buf)) + offset
	default:
		return 0, &FSError{Code: ErrInvalidArgument, Message: fmt.Sprintf("invalid seek whence %d", whence), Path: f.path}
	}
	if abs < 0 {
		return 0, &FSError{Code: ErrInvalidArgument, Message: fmt.Sprintf("negative seek position %d", abs), Path: f.path}
	}
	f.pos = abs
	return abs, nil
}

// Close commits the working copy back to the filesystem if any write
// happened on this handle, refreshing the file's mtime and rebuilding
// the ancestor chain. Handles without writes, and device handles,
// commit nothing. Closing an already closed handle is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.isDevice || !f.written {
		return nil
	}
	if !f.fs.WriteMTime(f.path, f.buf, dag.Now()) {
		return fmt.Errorf("commit %s: path no longer writable", f.path)
	}
	logger.Debug("closed %s handle=%s committed %d bytes", f.path, f.id, len(f.buf))
	return nil
}
