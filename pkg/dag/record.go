package dag

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrUnknownVariant reports a serialized record whose type tag matches no
// known node variant. Deserialization skips such records instead of
// failing; see the engine's FromJSON.
var ErrUnknownVariant = errors.New("unknown node variant")

// Record is the canonical serialized form of a node: the value stored
// under the node's hash in a persisted document, and also the hash
// preimage (see Hash). Field names match the persisted-state layout.
//
// Exactly one of the per-variant fields is populated:
//   - Content (base64, present even when empty) for files
//   - Children for directories (omitted when the directory is empty)
//   - DeviceType for devices
type Record struct {
	Type       string            `json:"type"`
	Mode       uint32            `json:"mode"`
	UID        uint32            `json:"uid"`
	GID        uint32            `json:"gid"`
	MTime      float64           `json:"mtime"`
	Content    *string           `json:"content,omitempty"`
	Children   map[string]string `json:"children,omitempty"`
	DeviceType string            `json:"device_type,omitempty"`
}

// Encode converts a node into its canonical record.
func Encode(n Node) Record {
	m := n.Meta()
	r := Record{
		Type:  n.Kind().String(),
		Mode:  m.Mode,
		UID:   m.UID,
		GID:   m.GID,
		MTime: m.MTime,
	}

	switch v := n.(type) {
	case *FileNode:
		s := base64.StdEncoding.EncodeToString(v.content)
		r.Content = &s
	case *DirNode:
		r.Children = v.Entries()
	case *DeviceNode:
		r.DeviceType = string(v.kind)
	}

	return r
}

// Node reconstructs the node a record describes. An unrecognized type tag
// returns ErrUnknownVariant; a file record with undecodable content is a
// malformed-state error.
func (r Record) Node() (Node, error) {
	switch r.Type {
	case "file":
		var content []byte
		if r.Content != nil {
			b, err := base64.StdEncoding.DecodeString(*r.Content)
			if err != nil {
				return nil, fmt.Errorf("decode file content: %w", err)
			}
			content = b
		}
		return NewFile(content, r.Mode, r.UID, r.GID, r.MTime), nil
	case "dir":
		return NewDir(r.Children, r.Mode, r.UID, r.GID, r.MTime), nil
	case "device":
		return NewDevice(DeviceKind(r.DeviceType), r.Mode, r.UID, r.GID, r.MTime), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, r.Type)
	}
}
