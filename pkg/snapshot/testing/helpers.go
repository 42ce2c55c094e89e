package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/dagfs/pkg/snapshot"
)

// mustSave saves a document and fails the test if it errors.
func mustSave(t *testing.T, store snapshot.Store, name string, data []byte) {
	t.Helper()
	err := store.Save(testContext(), name, data)
	require.NoError(t, err, "Save should succeed")
}

// mustLoad loads a document and fails the test if it errors.
func mustLoad(t *testing.T, store snapshot.Store, name string) []byte {
	t.Helper()
	data, err := store.Load(testContext(), name)
	require.NoError(t, err, "Load should succeed")
	return data
}

// mustList lists snapshots and fails the test if it errors.
func mustList(t *testing.T, store snapshot.Store) []snapshot.Info {
	t.Helper()
	infos, err := store.List(testContext())
	require.NoError(t, err, "List should succeed")
	return infos
}

// listNames returns the names from a List call in order.
func listNames(t *testing.T, store snapshot.Store) []string {
	t.Helper()
	infos := mustList(t, store)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names
}

// generateTestData creates test data of specified size.
func generateTestData(size int) []byte {
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		data[i] = byte(i % 256)
	}
	return data
}
