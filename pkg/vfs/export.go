package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dagfs/internal/logger"
	"github.com/marmos91/dagfs/pkg/dag"
)

// Export materializes the live tree under target on the host
// filesystem and returns the number of entries written. Directories are
// created before their contents (the index walks parents first). Device
// entries are skipped: they have no portable host representation.
//
// With preservePermissions the stored permission bits are applied to
// each exported entry; otherwise files get 0644 and directories 0755.
// Stored ownership is applied to files only when running as root.
// The first host error aborts the export.
func (fs *FileSystem) Export(target string, preservePermissions bool) (int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err := os.MkdirAll(target, 0o755); err != nil {
		return 0, fmt.Errorf("create export target: %w", err)
	}

	type entry struct {
		path string
		hash string
	}
	var entries []entry
	fs.paths.walk(func(p, h string) bool {
		entries = append(entries, entry{path: p, hash: h})
		return false
	})

	asRoot := os.Geteuid() == 0
	exported := 0
	for _, e := range entries {
		if e.path == "/" {
			continue
		}
		if _, dead := fs.deleted[e.path]; dead {
			continue
		}
		node, ok := fs.nodes[e.hash]
		if !ok {
			logger.Warn("export: path %s references missing node %s, skipping", e.path, e.hash)
			continue
		}

		real := filepath.Join(target, filepath.FromSlash(strings.TrimPrefix(e.path, "/")))
		switch n := node.(type) {
		case *dag.DirNode:
			if err := os.MkdirAll(real, 0o755); err != nil {
				return exported, fmt.Errorf("export %s: %w", e.path, err)
			}
			if preservePermissions {
				if err := os.Chmod(real, os.FileMode(n.Meta().Mode&0o777)); err != nil {
					return exported, fmt.Errorf("export %s: %w", e.path, err)
				}
			}
			exported++

		case *dag.FileNode:
			if err := os.MkdirAll(filepath.Dir(real), 0o755); err != nil {
				return exported, fmt.Errorf("export %s: %w", e.path, err)
			}
			if err := os.WriteFile(real, n.Content(), 0o644); err != nil {
				return exported, fmt.Errorf("export %s: %w", e.path, err)
			}
			meta := n.Meta()
			if preservePermissions {
				if err := os.Chmod(real, os.FileMode(meta.Mode&0o777)); err != nil {
					return exported, fmt.Errorf("export %s: %w", e.path, err)
				}
			}
			if asRoot {
				if err := os.Chown(real, int(meta.UID), int(meta.GID)); err != nil {
					logger.Warn("export %s: chown: %v", e.path, err)
				}
			}
			exported++

		case *dag.DeviceNode:
			logger.Debug("export: skipping device %s", e.path)
		}
	}

	logger.Info("exported %d entries to %s", exported, target)
	return exported, nil
}
