package vfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/marmos91/dagfs/internal/logger"
	"github.com/marmos91/dagfs/pkg/dag"
)

// document is the serialized form of a FileSystem: the full node store
// keyed by hash, the live path index, and the soft-deleted path set.
type document struct {
	Nodes   map[string]dag.Record `json:"nodes"`
	Paths   map[string]string     `json:"paths"`
	Deleted []string              `json:"deleted"`
}

// ToJSON serializes the complete filesystem state, orphaned nodes
// included. The output is deterministic for a given state: maps
// marshal with sorted keys and the deleted set is sorted.
func (fs *FileSystem) ToJSON() ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	doc := document{
		Nodes:   make(map[string]dag.Record, len(fs.nodes)),
		Paths:   fs.paths.snapshot(),
		Deleted: make([]string, 0, len(fs.deleted)),
	}
	for h, n := range fs.nodes {
		doc.Nodes[h] = dag.Encode(n)
	}
	for p := range fs.deleted {
		doc.Deleted = append(doc.Deleted, p)
	}
	sort.Strings(doc.Deleted)

	return json.MarshalIndent(doc, "", "  ")
}

// FromJSON reconstructs a filesystem from a serialized document.
//
// Unparseable JSON and records that decode to garbage fail loudly. A
// document without a nodes or paths section fails with ErrBadState. Two
// defects degrade instead of failing: records of an unknown variant are
// skipped with a warning, and path entries referencing a missing node
// are kept but warned about; such paths stay visible to Exists while
// reads on them report absence. Node keys are trusted as stored, they
// are not recomputed.
func FromJSON(data []byte) (*FileSystem, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse filesystem document: %w", err)
	}
	if doc.Nodes == nil {
		return nil, &FSError{Code: ErrBadState, Message: "document has no nodes section"}
	}
	if doc.Paths == nil {
		return nil, &FSError{Code: ErrBadState, Message: "document has no paths section"}
	}

	fs := &FileSystem{
		nodes:   make(map[string]dag.Node, len(doc.Nodes)),
		paths:   newPathIndex(),
		deleted: make(map[string]struct{}, len(doc.Deleted)),
	}
	for h, rec := range doc.Nodes {
		n, err := rec.Node()
		if err != nil {
			if errors.Is(err, dag.ErrUnknownVariant) {
				logger.Warn("skipping node %s: %v", h, err)
				continue
			}
			return nil, fmt.Errorf("decode node %s: %w", h, err)
		}
		fs.nodes[h] = n
	}
	for p, h := range doc.Paths {
		if _, ok := fs.nodes[h]; !ok {
			logger.Warn("path %s references missing node %s", p, h)
		}
		fs.paths.set(p, h)
	}
	for _, p := range doc.Deleted {
		fs.deleted[p] = struct{}{}
	}

	logger.Debug("loaded filesystem: %d nodes, %d paths, %d deleted",
		len(fs.nodes), fs.paths.len(), len(fs.deleted))
	return fs, nil
}
