package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dagfs/pkg/snapshot"
)

// StoreTestSuite is a comprehensive test suite for snapshot.Store
// implementations. It tests the interface contract, not implementation
// details, making it reusable across different backends (filesystem,
// BadgerDB, S3, etc.).
//
// Usage:
//
//	func TestMySnapshotStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) snapshot.Store {
//	            return mystore.New(t.TempDir())
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh Store instance
	// for each test. This ensures test isolation. The factory should
	// register cleanup (such as Close) with t.Cleanup.
	NewStore func(t *testing.T) snapshot.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("DocumentOperations", suite.RunDocumentTests)
	t.Run("FilesystemRoundTrip", suite.RunRoundTripTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
