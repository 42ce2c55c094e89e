package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dagfs/pkg/vfs"
)

// RunRoundTripTests executes full save-and-restore tests against a live
// filesystem. These verify that a store-agnostic consumer can persist a
// filesystem image and reconstruct an equivalent filesystem from it.
func (suite *StoreTestSuite) RunRoundTripTests(t *testing.T) {
	t.Run("SaveAndRestore", suite.testSaveAndRestore)
	t.Run("RestoreLatestOfMany", suite.testRestoreLatestOfMany)
}

func (suite *StoreTestSuite) testSaveAndRestore(t *testing.T) {
	store := suite.NewStore(t)

	fs := vfs.New()
	require.NoError(t, fs.Seed())
	require.True(t, fs.Write("/etc/motd", []byte("welcome\n")))
	require.True(t, fs.Mkdir("/home"))
	require.True(t, fs.Write("/home/scratch.txt", []byte("x")))
	require.True(t, fs.Remove("/home/scratch.txt"))

	data, err := fs.ToJSON()
	require.NoError(t, err)
	mustSave(t, store, "checkpoint", data)

	loaded := mustLoad(t, store, "checkpoint")
	restored, err := vfs.FromJSON(loaded)
	require.NoError(t, err)

	assert.Equal(t, fs.NodeCount(), restored.NodeCount())
	assert.Equal(t, fs.PathCount(), restored.PathCount())
	assert.Equal(t, fs.Deleted(), restored.Deleted())

	motd, ok := restored.Read("/etc/motd")
	require.True(t, ok)
	assert.Equal(t, []byte("welcome\n"), motd)
}

func (suite *StoreTestSuite) testRestoreLatestOfMany(t *testing.T) {
	store := suite.NewStore(t)

	fs := vfs.New()
	require.True(t, fs.Write("/version", []byte("one")))

	first, err := fs.ToJSON()
	require.NoError(t, err)
	mustSave(t, store, "state", first)

	require.True(t, fs.Write("/version", []byte("two")))

	second, err := fs.ToJSON()
	require.NoError(t, err)
	mustSave(t, store, "state", second)

	restored, err := vfs.FromJSON(mustLoad(t, store, "state"))
	require.NoError(t, err)

	content, ok := restored.Read("/version")
	require.True(t, ok)
	assert.Equal(t, []byte("two"), content)
}
