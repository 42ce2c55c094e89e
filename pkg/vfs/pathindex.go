package vfs

import (
	"path"
	"strings"

	"github.com/armon/go-radix"
)

// pathIndex maps absolute normalized paths to node hashes using a
// compressed radix tree: O(k) lookups, ordered walks (parents always
// precede their children), and cheap prefix scans for subtree removal.
//
// The index carries no lock of its own; the owning FileSystem serializes
// access through its RWMutex.
type pathIndex struct {
	tree *radix.Tree
}

func newPathIndex() *pathIndex {
	return &pathIndex{tree: radix.New()}
}

func (ix *pathIndex) get(p string) (string, bool) {
	v, ok := ix.tree.Get(p)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (ix *pathIndex) set(p, hash string) {
	ix.tree.Insert(p, hash)
}

func (ix *pathIndex) delete(p string) bool {
	_, ok := ix.tree.Delete(p)
	return ok
}

// subtree returns every indexed path strictly below p, in walk order.
func (ix *pathIndex) subtree(p string) []string {
	prefix := p
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var paths []string
	ix.tree.WalkPrefix(prefix, func(key string, _ interface{}) bool {
		paths = append(paths, key)
		return false
	})
	return paths
}

func (ix *pathIndex) len() int {
	return ix.tree.Len()
}

// walk visits every (path, hash) pair in lexicographic path order.
// Returning true from fn stops the walk.
func (ix *pathIndex) walk(fn func(p, hash string) bool) {
	ix.tree.Walk(func(key string, v interface{}) bool {
		return fn(key, v.(string))
	})
}

// values returns the set of hashes currently referenced by the index:
// the reachable set for garbage collection. The index holds one entry
// per live path at every level, so no child traversal is needed.
func (ix *pathIndex) values() map[string]struct{} {
	set := make(map[string]struct{}, ix.tree.Len())
	ix.tree.Walk(func(_ string, v interface{}) bool {
		set[v.(string)] = struct{}{}
		return false
	})
	return set
}

// snapshot returns a copy of the full path-to-hash mapping.
func (ix *pathIndex) snapshot() map[string]string {
	m := make(map[string]string, ix.tree.Len())
	ix.tree.Walk(func(key string, v interface{}) bool {
		m[key] = v.(string)
		return false
	})
	return m
}

// normalizePath cleans a path for index use. Relative paths are left
// relative: they simply never resolve, because no parent of theirs is
// ever indexed.
func normalizePath(p string) string {
	return path.Clean(p)
}

// splitParent returns the parent path and entry name of p.
// The root has no parent: ok is false.
func splitParent(p string) (parent, name string, ok bool) {
	if p == "/" {
		return "", "", false
	}
	return path.Dir(p), path.Base(p), true
}
