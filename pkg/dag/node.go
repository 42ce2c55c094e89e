// Package dag defines the immutable node model of the filesystem DAG.
//
// Every filesystem object is one of three closed variants: FileNode,
// DirNode, or DeviceNode. Nodes are immutable once constructed and are
// identified by a deterministic content address (see Hash). Directories
// reference children by hash only, so the resulting structure is acyclic
// by construction: a directory can only point at nodes that already
// existed when it was built.
package dag

import "sort"

// Kind identifies a node variant.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindDevice
)

// String returns the variant tag used in serialized records.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindDevice:
		return "device"
	default:
		return "unknown"
	}
}

// Meta holds the metadata common to all node variants.
//
// MTime is Unix seconds as a float64 (fractional part preserved). It is
// part of the hash preimage: two nodes with identical data but different
// mtimes are distinct nodes, while an explicitly pinned identical mtime
// makes byte-identical writes collapse onto one stored node.
type Meta struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	MTime float64
}

// Node is the closed set of filesystem node variants.
//
// Consumers dispatch with a type switch over *FileNode, *DirNode and
// *DeviceNode; the unexported method keeps the set closed.
type Node interface {
	Meta() Meta
	Kind() Kind

	isNode()
}

// FileNode is a regular file: immutable content bytes plus metadata.
type FileNode struct {
	meta    Meta
	content []byte
}

// NewFile builds a file node. The content slice is copied.
func NewFile(content []byte, mode, uid, gid uint32, mtime float64) *FileNode {
	c := make([]byte, len(content))
	copy(c, content)
	return &FileNode{
		meta:    Meta{Mode: mode, UID: uid, GID: gid, MTime: mtime},
		content: c,
	}
}

func (f *FileNode) Meta() Meta { return f.meta }
func (f *FileNode) Kind() Kind { return KindFile }
func (f *FileNode) isNode()    {}

// Content returns a copy of the file's bytes. The node's own buffer is
// never handed out: mutating the returned slice cannot corrupt the store.
func (f *FileNode) Content() []byte {
	c := make([]byte, len(f.content))
	copy(c, f.content)
	return c
}

// Size returns the content length in bytes.
func (f *FileNode) Size() int { return len(f.content) }

// DirNode is a directory: a mapping from entry name to child hash plus
// metadata. A DirNode is never mutated in place; WithChild and
// WithoutChild return new values.
type DirNode struct {
	meta     Meta
	children map[string]string
}

// NewDir builds a directory node. The children map is copied; nil means
// empty.
func NewDir(children map[string]string, mode, uid, gid uint32, mtime float64) *DirNode {
	c := make(map[string]string, len(children))
	for name, hash := range children {
		c[name] = hash
	}
	return &DirNode{
		meta:     Meta{Mode: mode, UID: uid, GID: gid, MTime: mtime},
		children: c,
	}
}

func (d *DirNode) Meta() Meta { return d.meta }
func (d *DirNode) Kind() Kind { return KindDir }
func (d *DirNode) isNode()    {}

// Child returns the hash of the named entry.
func (d *DirNode) Child(name string) (string, bool) {
	hash, ok := d.children[name]
	return hash, ok
}

// Entries returns a copy of the name-to-hash mapping.
func (d *DirNode) Entries() map[string]string {
	c := make(map[string]string, len(d.children))
	for name, hash := range d.children {
		c[name] = hash
	}
	return c
}

// EntryNames returns the entry names in alphabetical order.
func (d *DirNode) EntryNames() []string {
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (d *DirNode) Len() int { return len(d.children) }

// WithChild returns a new DirNode equal to d plus (or replacing) the
// named entry. Mode and ownership carry over; the mtime is refreshed,
// matching a real directory whose entry table just changed.
func (d *DirNode) WithChild(name, hash string) *DirNode {
	c := make(map[string]string, len(d.children)+1)
	for n, h := range d.children {
		c[n] = h
	}
	c[name] = hash
	meta := d.meta
	meta.MTime = Now()
	return &DirNode{meta: meta, children: c}
}

// WithoutChild returns a new DirNode equal to d minus the named entry,
// with a refreshed mtime. Removing an absent name still returns a new
// value.
func (d *DirNode) WithoutChild(name string) *DirNode {
	c := make(map[string]string, len(d.children))
	for n, h := range d.children {
		if n != name {
			c[n] = h
		}
	}
	meta := d.meta
	meta.MTime = Now()
	return &DirNode{meta: meta, children: c}
}

// DeviceNode is a virtual character device identified by its kind.
// Device I/O semantics live on DeviceKind; the node only anchors the
// device in the tree.
type DeviceNode struct {
	meta Meta
	kind DeviceKind
}

// NewDevice builds a device node.
func NewDevice(kind DeviceKind, mode, uid, gid uint32, mtime float64) *DeviceNode {
	return &DeviceNode{
		meta: Meta{Mode: mode, UID: uid, GID: gid, MTime: mtime},
		kind: kind,
	}
}

func (d *DeviceNode) Meta() Meta { return d.meta }
func (d *DeviceNode) Kind() Kind { return KindDevice }
func (d *DeviceNode) isNode()    {}

// Device returns the device kind.
func (d *DeviceNode) Device() DeviceKind { return d.kind }
