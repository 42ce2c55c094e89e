package dag

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash computes the content address of a node: lowercase-hex SHA-256 over
// the node's canonical record serialized as JSON.
//
// The encoding is deterministic (fixed field order, map keys sorted by
// the JSON encoder), so hashing is pure: any two nodes with bit-identical
// variant data and metadata, mtime included, hash identically. That is
// what makes deduplication implicit: two paths that receive the same
// bytes with the same pinned mtime collapse onto one stored node.
func Hash(n Node) string {
	rec := Encode(n)
	b, _ := json.Marshal(rec)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
