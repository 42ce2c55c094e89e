package vfs

import (
	"sort"
	"sync"

	"github.com/marmos91/dagfs/internal/logger"
	"github.com/marmos91/dagfs/pkg/dag"
)

// FileSystem is an in-memory filesystem whose storage layer is a
// content-addressed DAG of immutable nodes.
//
// Three structures make up the full state:
//
//   - nodes: hash to node, the content-addressed store. Nodes are never
//     mutated in place; every change inserts new nodes and leaves the
//     old ones behind until Purge collects them.
//   - paths: absolute path to hash, the live-view index. A path is
//     visible if and only if it has an index entry.
//   - deleted: the set of soft-deleted paths. Entries keep their nodes
//     out of sight without touching the store.
//
// Because a directory's identity is the hash of its entry table, any
// change to a child changes the parent's hash, and so on up to the
// root. Every mutation therefore rebuilds the whole ancestor chain and
// refreshes the index entry at each level.
//
// All exported methods are safe for concurrent use. Mutations take the
// write lock; queries take the read lock. File handles returned by Open
// carry private working copies and are not synchronized; each handle
// belongs to the goroutine that opened it.
type FileSystem struct {
	mu      sync.RWMutex
	nodes   map[string]dag.Node
	paths   *pathIndex
	deleted map[string]struct{}
}

// New returns a filesystem containing a single empty root directory.
func New() *FileSystem {
	fs := &FileSystem{
		nodes:   make(map[string]dag.Node),
		paths:   newPathIndex(),
		deleted: make(map[string]struct{}),
	}

	root := dag.NewDir(nil, dag.DefaultDirMode, dag.DefaultUID, dag.DefaultGID, dag.Now())
	fs.paths.set("/", fs.addNodeLocked(root))
	return fs
}

// addNodeLocked stores n under its content hash and returns the hash.
// Identical nodes deduplicate to a single entry.
func (fs *FileSystem) addNodeLocked(n dag.Node) string {
	h := dag.Hash(n)
	if _, ok := fs.nodes[h]; !ok {
		fs.nodes[h] = n
	}
	return h
}

// resolveLocked maps a normalized path to its node hash, honoring the
// soft-delete mask.
func (fs *FileSystem) resolveLocked(p string) (string, bool) {
	if _, dead := fs.deleted[p]; dead {
		return "", false
	}
	return fs.paths.get(p)
}

// dirAtLocked returns the directory node indexed at p, if any.
func (fs *FileSystem) dirAtLocked(p string) (*dag.DirNode, bool) {
	h, ok := fs.resolveLocked(p)
	if !ok {
		return nil, false
	}
	dir, ok := fs.nodes[h].(*dag.DirNode)
	return dir, ok
}

// cascadeLocked rebuilds the ancestor chain after the entry name under
// parent changed to hash (or, when removeEntry is set, disappeared).
// Each level gets a fresh directory node, a fresh hash, and a refreshed
// index entry; the loop stops after rebuilding the root. Removal applies
// at the lowest level only, the levels above always relink.
func (fs *FileSystem) cascadeLocked(parent, name, hash string, removeEntry bool) {
	for {
		dir, ok := fs.dirAtLocked(parent)
		if !ok {
			return
		}

		var next *dag.DirNode
		if removeEntry {
			next = dir.WithoutChild(name)
			removeEntry = false
		} else {
			next = dir.WithChild(name, hash)
		}

		newHash := fs.addNodeLocked(next)
		fs.paths.set(parent, newHash)

		if parent == "/" {
			return
		}
		hash = newHash
		parent, name, _ = splitParent(parent)
	}
}

// Resolve returns the node hash a path currently points at.
func (fs *FileSystem) Resolve(p string) (string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.resolveLocked(normalizePath(p))
}

// Exists reports whether a path is currently visible.
func (fs *FileSystem) Exists(p string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.resolveLocked(normalizePath(p))
	return ok
}

// Mkdir creates an empty directory at p. It reports false if p already
// exists, is the root, or its parent is missing or not a directory.
// Creation is not recursive.
func (fs *FileSystem) Mkdir(p string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = normalizePath(p)
	if _, exists := fs.resolveLocked(p); exists {
		return false
	}
	parent, name, ok := splitParent(p)
	if !ok {
		return false
	}
	if _, ok := fs.dirAtLocked(parent); !ok {
		return false
	}

	dir := dag.NewDir(nil, dag.DefaultDirMode, dag.DefaultUID, dag.DefaultGID, dag.Now())
	h := fs.addNodeLocked(dir)
	fs.paths.set(p, h)
	delete(fs.deleted, p)
	fs.cascadeLocked(parent, name, h, false)
	return true
}

// Write stores data as a regular file at p, replacing any existing file
// or device there. It reports false if p is a directory or its parent
// is missing or not a directory.
func (fs *FileSystem) Write(p string, data []byte) bool {
	return fs.WriteMTime(p, data, dag.Now())
}

// WriteMTime is Write with an explicit modification time. Writing the
// same content with the same mtime produces the same node hash, so
// repeated identical writes deduplicate in the store.
func (fs *FileSystem) WriteMTime(p string, data []byte, mtime float64) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.writeLocked(normalizePath(p), data, mtime)
}

func (fs *FileSystem) writeLocked(p string, data []byte, mtime float64) bool {
	if h, ok := fs.resolveLocked(p); ok {
		if _, isDir := fs.nodes[h].(*dag.DirNode); isDir {
			return false
		}
	}
	parent, name, ok := splitParent(p)
	if !ok {
		return false
	}
	if _, ok := fs.dirAtLocked(parent); !ok {
		return false
	}

	file := dag.NewFile(data, dag.DefaultFileMode, dag.DefaultUID, dag.DefaultGID, mtime)
	h := fs.addNodeLocked(file)
	fs.paths.set(p, h)
	delete(fs.deleted, p)
	fs.cascadeLocked(parent, name, h, false)
	return true
}

// Mknod creates a device node of the given kind at p. It reports false
// if the kind is unknown, p already exists, or the parent is missing or
// not a directory.
func (fs *FileSystem) Mknod(p string, kind dag.DeviceKind) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !kind.Valid() {
		return false
	}
	p = normalizePath(p)
	if _, exists := fs.resolveLocked(p); exists {
		return false
	}
	parent, name, ok := splitParent(p)
	if !ok {
		return false
	}
	if _, ok := fs.dirAtLocked(parent); !ok {
		return false
	}

	dev := dag.NewDevice(kind, dag.DefaultDeviceMode, dag.DeviceUID, dag.DeviceGID, dag.Now())
	h := fs.addNodeLocked(dev)
	fs.paths.set(p, h)
	delete(fs.deleted, p)
	fs.cascadeLocked(parent, name, h, false)
	return true
}

// Remove soft-deletes the entry at p. The path and every indexed
// descendant lose their index entries and join the deleted set; their
// nodes stay in the store until Purge. The parent chain is rebuilt
// without the entry. Removing the root or a missing path reports false.
func (fs *FileSystem) Remove(p string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = normalizePath(p)
	if p == "/" {
		return false
	}
	if _, ok := fs.resolveLocked(p); !ok {
		return false
	}

	subtree := fs.paths.subtree(p)
	for _, sub := range subtree {
		fs.paths.delete(sub)
		fs.deleted[sub] = struct{}{}
	}
	fs.paths.delete(p)
	fs.deleted[p] = struct{}{}

	parent, name, _ := splitParent(p)
	fs.cascadeLocked(parent, name, "", true)

	if len(subtree) > 0 {
		logger.Debug("removed %s and %d descendant paths", p, len(subtree))
	}
	return true
}

// List returns the sorted entry names of the directory at p.
func (fs *FileSystem) List(p string) ([]string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	dir, ok := fs.dirAtLocked(normalizePath(p))
	if !ok {
		return nil, false
	}
	return dir.EntryNames(), true
}

// Read returns the content of the file at p. Reading a device returns
// one default-sized read from it. Directories, missing paths, and
// malformed device entries report false; use Open for the error detail.
func (fs *FileSystem) Read(p string) ([]byte, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	h, ok := fs.resolveLocked(normalizePath(p))
	if !ok {
		return nil, false
	}
	switch n := fs.nodes[h].(type) {
	case *dag.FileNode:
		return n.Content(), true
	case *dag.DeviceNode:
		b, err := n.Device().Read(dag.DefaultReadSize)
		if err != nil {
			logger.Error("read %s: %v", p, err)
			return nil, false
		}
		return b, true
	default:
		return nil, false
	}
}

// Info describes a visible filesystem entry.
type Info struct {
	Kind  dag.Kind
	Mode  uint32
	UID   uint32
	GID   uint32
	MTime float64
	Size  int
	Hash  string
}

// Stat returns metadata for the entry at p. Size is the content length
// for files and zero otherwise.
func (fs *FileSystem) Stat(p string) (Info, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	h, ok := fs.resolveLocked(normalizePath(p))
	if !ok {
		return Info{}, false
	}
	node, ok := fs.nodes[h]
	if !ok {
		logger.Warn("stat %s: node %s missing from store", p, h)
		return Info{}, false
	}

	meta := node.Meta()
	info := Info{
		Kind:  node.Kind(),
		Mode:  meta.Mode,
		UID:   meta.UID,
		GID:   meta.GID,
		MTime: meta.MTime,
		Hash:  h,
	}
	if f, ok := node.(*dag.FileNode); ok {
		info.Size = f.Size()
	}
	return info, true
}

// NodeCount returns the number of nodes in the store, live or orphaned.
func (fs *FileSystem) NodeCount() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.nodes)
}

// PathCount returns the number of live index entries, the root included.
func (fs *FileSystem) PathCount() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.paths.len()
}

// Deleted returns the soft-deleted paths in sorted order.
func (fs *FileSystem) Deleted() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make([]string, 0, len(fs.deleted))
	for p := range fs.deleted {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
