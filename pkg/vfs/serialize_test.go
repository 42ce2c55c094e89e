package vfs

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dagfs/pkg/dag"
)

func TestToJSON(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		fs := New()
		require.NoError(t, fs.Seed())
		require.True(t, fs.WriteMTime("/etc/motd", []byte("welcome"), 99.5))

		a, err := fs.ToJSON()
		require.NoError(t, err)
		b, err := fs.ToJSON()
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("DocumentShape", func(t *testing.T) {
		fs := New()
		require.NoError(t, fs.Seed())

		data, err := fs.ToJSON()
		require.NoError(t, err)

		var doc struct {
			Nodes   map[string]map[string]any `json:"nodes"`
			Paths   map[string]string         `json:"paths"`
			Deleted []string                  `json:"deleted"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))

		rootHash, ok := doc.Paths["/"]
		require.True(t, ok)
		root := doc.Nodes[rootHash]
		require.NotNil(t, root)
		assert.Equal(t, "dir", root["type"])
		assert.Contains(t, root["children"], "etc")

		passwdHash := doc.Paths["/etc/passwd"]
		passwd := doc.Nodes[passwdHash]
		require.NotNil(t, passwd)
		assert.Equal(t, "file", passwd["type"])
		raw, err := base64.StdEncoding.DecodeString(passwd["content"].(string))
		require.NoError(t, err)
		assert.Contains(t, string(raw), "alice:x:1001")

		nullHash := doc.Paths["/dev/null"]
		null := doc.Nodes[nullHash]
		require.NotNil(t, null)
		assert.Equal(t, "device", null["type"])
		assert.Equal(t, "null", null["device_type"])

		assert.Empty(t, doc.Deleted)
	})

	t.Run("IncludesOrphans", func(t *testing.T) {
		fs := New()
		require.True(t, fs.WriteMTime("/f", []byte("v1"), 1.0))
		require.True(t, fs.WriteMTime("/f", []byte("v2"), 2.0))

		data, err := fs.ToJSON()
		require.NoError(t, err)

		var doc struct {
			Nodes map[string]json.RawMessage `json:"nodes"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, fs.NodeCount(), len(doc.Nodes), "orphaned versions serialize too")
		assert.Greater(t, len(doc.Nodes), 2)
	})
}

func TestRoundTrip(t *testing.T) {
	orig := New()
	require.NoError(t, orig.Seed())
	require.True(t, orig.WriteMTime("/etc/motd", []byte("welcome"), 99.5))
	require.True(t, orig.Mkdir("/home"))
	require.True(t, orig.Write("/home/note", []byte("remember")))
	require.True(t, orig.Write("/doomed", []byte("gone soon")))
	require.True(t, orig.Remove("/doomed"))

	data, err := orig.ToJSON()
	require.NoError(t, err)

	loaded, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, orig.NodeCount(), loaded.NodeCount())
	assert.Equal(t, orig.paths.snapshot(), loaded.paths.snapshot())
	assert.Equal(t, orig.Deleted(), loaded.Deleted())

	content, ok := loaded.Read("/etc/motd")
	require.True(t, ok)
	assert.Equal(t, []byte("welcome"), content)

	names, ok := loaded.List("/etc")
	require.True(t, ok)
	assert.Equal(t, []string{"group", "motd", "passwd"}, names)

	info, ok := loaded.Stat("/dev/null")
	require.True(t, ok)
	assert.Equal(t, dag.KindDevice, info.Kind)

	zeros, ok := loaded.Read("/dev/zero")
	require.True(t, ok)
	assert.Equal(t, make([]byte, dag.DefaultReadSize), zeros)

	assert.False(t, loaded.Exists("/doomed"), "tombstones survive the round trip")

	requireTreeInvariant(t, loaded)

	again, err := loaded.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, data, again, "reserializing a loaded filesystem reproduces the document")
}

func TestFromJSON(t *testing.T) {
	t.Run("MalformedJSON", func(t *testing.T) {
		fs, err := FromJSON([]byte("{not json"))
		assert.Nil(t, fs)
		assert.Error(t, err)
	})

	t.Run("MissingNodesSection", func(t *testing.T) {
		fs, err := FromJSON([]byte(`{"paths": {}}`))
		assert.Nil(t, fs)
		assert.True(t, IsCode(err, ErrBadState))
	})

	t.Run("MissingPathsSection", func(t *testing.T) {
		fs, err := FromJSON([]byte(`{"nodes": {}}`))
		assert.Nil(t, fs)
		assert.True(t, IsCode(err, ErrBadState))
	})

	t.Run("EmptySectionsLoad", func(t *testing.T) {
		fs, err := FromJSON([]byte(`{"nodes": {}, "paths": {}}`))
		require.NoError(t, err)
		require.NotNil(t, fs)
		assert.Equal(t, 0, fs.NodeCount())
		assert.False(t, fs.Exists("/"))
	})

	t.Run("UnknownVariantSkipped", func(t *testing.T) {
		doc := `{
			"nodes": {
				"cafe": {"type": "symlink", "mode": 511, "uid": 0, "gid": 0, "mtime": 1.5}
			},
			"paths": {"/link": "cafe"},
			"deleted": []
		}`

		fs, err := FromJSON([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, 0, fs.NodeCount())

		assert.True(t, fs.Exists("/link"), "the index entry survives")
		_, ok := fs.Read("/link")
		assert.False(t, ok, "reads on the skipped node report absence")
		_, ok = fs.Stat("/link")
		assert.False(t, ok)
	})

	t.Run("CorruptContentFails", func(t *testing.T) {
		doc := `{
			"nodes": {
				"beef": {"type": "file", "mode": 33188, "uid": 1000, "gid": 1000, "mtime": 1.0, "content": "!!!not-base64!!!"}
			},
			"paths": {}
		}`

		fs, err := FromJSON([]byte(doc))
		assert.Nil(t, fs)
		assert.ErrorContains(t, err, "decode node")
	})

	t.Run("DanglingPathDegrades", func(t *testing.T) {
		doc := `{"nodes": {}, "paths": {"/ghost": "beef"}, "deleted": []}`

		fs, err := FromJSON([]byte(doc))
		require.NoError(t, err)

		assert.True(t, fs.Exists("/ghost"))
		_, ok := fs.Read("/ghost")
		assert.False(t, ok)
		_, ok = fs.Stat("/ghost")
		assert.False(t, ok)
		_, ok = fs.List("/ghost")
		assert.False(t, ok)
	})

	t.Run("HashKeysTrusted", func(t *testing.T) {
		doc := `{
			"nodes": {
				"not-a-real-digest": {"type": "file", "mode": 33188, "uid": 1000, "gid": 1000, "mtime": 5, "content": "aGk="}
			},
			"paths": {"/x": "not-a-real-digest"},
			"deleted": []
		}`

		fs, err := FromJSON([]byte(doc))
		require.NoError(t, err)

		content, ok := fs.Read("/x")
		require.True(t, ok)
		assert.Equal(t, []byte("hi"), content, "stored keys are not recomputed on load")
	})

	t.Run("DeletedRestored", func(t *testing.T) {
		doc := `{"nodes": {}, "paths": {}, "deleted": ["/a", "/b"]}`

		fs, err := FromJSON([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, []string{"/a", "/b"}, fs.Deleted())
	})
}
