package vfs

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurge(t *testing.T) {
	t.Run("CollectsStrandedVersions", func(t *testing.T) {
		fs := New()
		require.True(t, fs.WriteMTime("/f", []byte("v1"), 1.0))
		require.True(t, fs.WriteMTime("/f", []byte("v2"), 2.0))

		// The first write strands the empty root, the second strands the
		// first file version and the first rebuilt root.
		assert.Equal(t, 5, fs.NodeCount())

		removed := fs.Purge()
		assert.Equal(t, 3, removed)
		assert.Equal(t, 2, fs.NodeCount())

		content, ok := fs.Read("/f")
		require.True(t, ok)
		assert.Equal(t, []byte("v2"), content)
		requireTreeInvariant(t, fs)
	})

	t.Run("Idempotent", func(t *testing.T) {
		fs := New()
		require.True(t, fs.Write("/f", []byte("x")))
		require.True(t, fs.Write("/f", []byte("y")))

		fs.Purge()
		assert.Equal(t, 0, fs.Purge(), "second purge with no mutations finds nothing")
	})

	t.Run("StoreMatchesLiveSet", func(t *testing.T) {
		fs := New()
		require.True(t, fs.Mkdir("/d"))
		require.True(t, fs.Mkdir("/d/sub"))
		require.True(t, fs.Write("/d/sub/f", []byte("deep")))
		require.True(t, fs.Remove("/d"))

		fs.Purge()

		assert.Equal(t, len(fs.paths.values()), fs.NodeCount(),
			"after purge the store holds exactly the index's value set")
	})

	t.Run("ClearsDeletedSet", func(t *testing.T) {
		fs := New()
		require.True(t, fs.Write("/keep", []byte("k")))
		require.True(t, fs.Write("/drop", []byte("d")))
		require.True(t, fs.Remove("/drop"))
		require.NotEmpty(t, fs.Deleted())

		fs.Purge()

		assert.Empty(t, fs.Deleted())
		assert.False(t, fs.Exists("/drop"), "purging the tombstone does not resurrect the path")
		assert.True(t, fs.Exists("/keep"))
	})

	t.Run("FreshFilesystemHasNoGarbage", func(t *testing.T) {
		fs := New()
		assert.Equal(t, 0, fs.Purge())
		assert.Equal(t, 1, fs.NodeCount())
		assert.True(t, fs.Exists("/"))
	})
}

func TestOrphans(t *testing.T) {
	t.Run("PreviewsWithoutRemoving", func(t *testing.T) {
		fs := New()
		require.True(t, fs.WriteMTime("/f", []byte("v1"), 1.0))
		require.True(t, fs.WriteMTime("/f", []byte("v2"), 2.0))

		orphans := fs.Orphans()
		assert.Len(t, orphans, 3)
		assert.Equal(t, 5, fs.NodeCount(), "listing orphans must not collect them")

		assert.Equal(t, len(orphans), fs.Purge())
	})

	t.Run("Sorted", func(t *testing.T) {
		fs := New()
		for i, content := range []string{"a", "b", "c", "d"} {
			require.True(t, fs.WriteMTime("/f", []byte(content), float64(i)))
		}

		orphans := fs.Orphans()
		require.NotEmpty(t, orphans)
		assert.True(t, sort.StringsAreSorted(orphans))
	})

	t.Run("EmptyWhenClean", func(t *testing.T) {
		fs := New()
		assert.Empty(t, fs.Orphans())
	})
}
