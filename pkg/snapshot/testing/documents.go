package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dagfs/pkg/snapshot"
)

// RunDocumentTests executes all document-level store operation tests.
func (suite *StoreTestSuite) RunDocumentTests(t *testing.T) {
	t.Run("SaveAndLoad", suite.testSaveAndLoad)
	t.Run("Save_Overwrite", suite.testSaveOverwrite)
	t.Run("Save_InvalidName", suite.testSaveInvalidName)
	t.Run("Load_NotFound", suite.testLoadNotFound)
	t.Run("List_Empty", suite.testListEmpty)
	t.Run("List_SortedWithSizes", suite.testListSortedWithSizes)
	t.Run("Delete_Success", suite.testDeleteSuccess)
	t.Run("Delete_Idempotent", suite.testDeleteIdempotent)
	t.Run("LargeDocument", suite.testLargeDocument)
}

func (suite *StoreTestSuite) testSaveAndLoad(t *testing.T) {
	store := suite.NewStore(t)

	testData := []byte(`{"nodes": {}, "paths": {}, "deleted": []}`)
	mustSave(t, store, "basic", testData)

	loaded := mustLoad(t, store, "basic")
	assert.Equal(t, testData, loaded, "Loaded document should match saved document")
}

func (suite *StoreTestSuite) testSaveOverwrite(t *testing.T) {
	store := suite.NewStore(t)

	mustSave(t, store, "overwrite", []byte("old document"))
	mustSave(t, store, "overwrite", []byte("new and longer document"))

	loaded := mustLoad(t, store, "overwrite")
	assert.Equal(t, []byte("new and longer document"), loaded)

	// The overwrite must not leave a second entry behind
	assert.Equal(t, []string{"overwrite"}, listNames(t, store))
}

func (suite *StoreTestSuite) testSaveInvalidName(t *testing.T) {
	store := suite.NewStore(t)

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		err := store.Save(testContext(), name, []byte("data"))
		assert.ErrorIs(t, err, snapshot.ErrInvalidName, "Save(%q) should reject the name", name)

		_, err = store.Load(testContext(), name)
		assert.ErrorIs(t, err, snapshot.ErrInvalidName, "Load(%q) should reject the name", name)

		err = store.Delete(testContext(), name)
		assert.ErrorIs(t, err, snapshot.ErrInvalidName, "Delete(%q) should reject the name", name)
	}
}

func (suite *StoreTestSuite) testLoadNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Load(testContext(), "never-saved")
	require.Error(t, err)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	store := suite.NewStore(t)

	infos := mustList(t, store)
	assert.Empty(t, infos, "Fresh store should list no snapshots")
}

func (suite *StoreTestSuite) testListSortedWithSizes(t *testing.T) {
	store := suite.NewStore(t)

	// Save out of order to exercise the sorting contract
	mustSave(t, store, "beta", []byte("22"))
	mustSave(t, store, "gamma", []byte("4444"))
	mustSave(t, store, "alpha", []byte("1"))

	infos := mustList(t, store)
	require.Len(t, infos, 3)

	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "beta", infos[1].Name)
	assert.Equal(t, "gamma", infos[2].Name)

	assert.Equal(t, uint64(1), infos[0].Size)
	assert.Equal(t, uint64(2), infos[1].Size)
	assert.Equal(t, uint64(4), infos[2].Size)
}

func (suite *StoreTestSuite) testDeleteSuccess(t *testing.T) {
	store := suite.NewStore(t)

	mustSave(t, store, "doomed", []byte("data"))
	mustSave(t, store, "keeper", []byte("data"))

	err := store.Delete(testContext(), "doomed")
	require.NoError(t, err)

	_, err = store.Load(testContext(), "doomed")
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)

	assert.Equal(t, []string{"keeper"}, listNames(t, store), "Delete should not touch other snapshots")
}

func (suite *StoreTestSuite) testDeleteIdempotent(t *testing.T) {
	store := suite.NewStore(t)

	err := store.Delete(testContext(), "never-saved")
	assert.NoError(t, err, "Deleting a missing snapshot should be a no-op")

	mustSave(t, store, "twice", []byte("data"))
	require.NoError(t, store.Delete(testContext(), "twice"))
	assert.NoError(t, store.Delete(testContext(), "twice"), "Second delete should also be a no-op")
}

func (suite *StoreTestSuite) testLargeDocument(t *testing.T) {
	store := suite.NewStore(t)

	// Large enough to cross BadgerDB's value-log threshold and to span
	// several filesystem blocks
	testData := generateTestData(2 << 20)
	mustSave(t, store, "large", testData)

	loaded := mustLoad(t, store, "large")
	require.Len(t, loaded, len(testData))
	assert.Equal(t, testData, loaded, "Binary content should round-trip unchanged")

	// Backends that keep large values in a log report an approximate size
	infos := mustList(t, store)
	require.Len(t, infos, 1)
	assert.InDelta(t, float64(len(testData)), float64(infos[0].Size), 64)
}
