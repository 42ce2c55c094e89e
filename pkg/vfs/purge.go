package vfs

import (
	"sort"

	"github.com/marmos91/dagfs/internal/logger"
)

// Purge removes every node not referenced by the live path index and
// clears the soft-deleted set. The index holds an entry for every level
// of every visible path, so its value set is exactly the reachable set;
// no graph traversal is needed. Purge returns the number of nodes
// removed and is idempotent: a second call with no mutations in between
// removes nothing.
func (fs *FileSystem) Purge() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	live := fs.paths.values()
	removed := 0
	for h := range fs.nodes {
		if _, ok := live[h]; !ok {
			delete(fs.nodes, h)
			removed++
		}
	}
	fs.deleted = make(map[string]struct{})

	if removed > 0 {
		logger.Debug("purged %d orphaned nodes, %d remain", removed, len(fs.nodes))
	}
	return removed
}

// Orphans returns the hashes Purge would remove, sorted, without
// removing anything.
func (fs *FileSystem) Orphans() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	live := fs.paths.values()
	var orphans []string
	for h := range fs.nodes {
		if _, ok := live[h]; !ok {
			orphans = append(orphans, h)
		}
	}
	sort.Strings(orphans)
	return orphans
}
