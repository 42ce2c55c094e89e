// Package badger provides a snapshot store backed by BadgerDB.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/dagfs/pkg/snapshot"
)

// Key schema:
//
//	s:<name> → raw snapshot document
//	m:<name> → JSON-encoded snapshotMeta
//
// The document is stored as-is so it can be inspected with the badger CLI;
// save metadata lives under a separate prefix so List can scan documents
// without loading their values.
const (
	snapshotKeyPrefix = "s:"
	metaKeyPrefix     = "m:"
)

func keySnapshot(name string) []byte {
	return []byte(snapshotKeyPrefix + name)
}

func keyMeta(name string) []byte {
	return []byte(metaKeyPrefix + name)
}

// snapshotMeta records when a snapshot was saved.
type snapshotMeta struct {
	SavedAt time.Time `json:"saved_at"`
}

// BadgerSnapshotStore implements snapshot.Store using BadgerDB for
// persistence.
//
// It is suitable for deployments that want snapshots to survive restarts
// without managing a directory of loose files, and for tests, which can run
// it fully in memory.
//
// Thread Safety:
// BadgerDB transactions provide isolation; all operations are safe for
// concurrent use. Concurrent saves to the same name are last-writer-wins.
type BadgerSnapshotStore struct {
	db *badger.DB
}

// BadgerSnapshotStoreConfig holds the configuration for creating a
// BadgerSnapshotStore.
type BadgerSnapshotStoreConfig struct {
	// DBPath is the directory for the BadgerDB database files.
	// Ignored when InMemory is set.
	DBPath string

	// InMemory runs the database entirely in memory. Nothing is persisted;
	// intended for tests.
	InMemory bool

	// BadgerOptions allows full customization of BadgerDB options.
	// If set, DBPath and InMemory are ignored.
	BadgerOptions *badger.Options
}

// NewBadgerSnapshotStore creates a new BadgerDB-backed snapshot store.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - config: Store configuration
//
// Returns:
//   - *BadgerSnapshotStore: Initialized store
//   - error: Returns error if the database cannot be opened or context is cancelled
func NewBadgerSnapshotStore(ctx context.Context, config BadgerSnapshotStoreConfig) (*BadgerSnapshotStore, error) {
	// Check context before database operations
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Prepare BadgerDB options
	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		if config.InMemory {
			opts = badger.DefaultOptions("").WithInMemory(true)
		} else {
			opts = badger.DefaultOptions(config.DBPath)
		}

		// Snapshot documents are already JSON; compressing them again in
		// the value log is not worth the CPU.
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)
	}

	// Open BadgerDB
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerSnapshotStore{db: db}, nil
}

// Save persists a snapshot document under the given name.
//
// The document and its save timestamp are written in a single transaction,
// so a snapshot is never visible without its metadata.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Snapshot name (must satisfy snapshot.ValidateName)
//   - data: Serialized filesystem document
//
// Returns:
//   - error: snapshot.ErrInvalidName for bad names, or database/context errors
func (s *BadgerSnapshotStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := snapshot.ValidateName(name); err != nil {
		return err
	}

	metaBytes, err := json.Marshal(snapshotMeta{SavedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keySnapshot(name), data); err != nil {
			return err
		}
		return txn.Set(keyMeta(name), metaBytes)
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", name, err)
	}

	return nil
}

// Load retrieves the snapshot document stored under the given name.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Snapshot name to load
//
// Returns:
//   - []byte: The stored document
//   - error: snapshot.ErrSnapshotNotFound if no such key exists,
//     snapshot.ErrInvalidName for bad names, or database/context errors
func (s *BadgerSnapshotStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := snapshot.ValidateName(name); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keySnapshot(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("snapshot %s: %w", name, snapshot.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", name, err)
	}

	return data, nil
}

// List returns metadata for every stored snapshot, sorted by name.
//
// The document values are not read; sizes come from the iterator and save
// times from the metadata keys. A snapshot missing its metadata key reports
// the zero time.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//
// Returns:
//   - []snapshot.Info: One entry per snapshot, sorted by name
//   - error: Database or context errors
func (s *BadgerSnapshotStore) List(ctx context.Context) ([]snapshot.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []snapshot.Info
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(snapshotKeyPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), snapshotKeyPrefix)

			info := snapshot.Info{
				Name: name,
				Size: uint64(item.ValueSize()),
			}

			metaItem, err := txn.Get(keyMeta(name))
			if err == nil {
				err = metaItem.Value(func(val []byte) error {
					var meta snapshotMeta
					if jsonErr := json.Unmarshal(val, &meta); jsonErr == nil {
						info.ModTime = meta.SavedAt
					}
					return nil
				})
				if err != nil {
					return err
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	// Keys share a fixed prefix, so iterator order is already name order.
	return infos, nil
}

// Delete removes the snapshot stored under the given name.
//
// Deleting a snapshot that does not exist is a no-op.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Snapshot name to delete
//
// Returns:
//   - error: snapshot.ErrInvalidName for bad names, or database/context errors
func (s *BadgerSnapshotStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := snapshot.ValidateName(name); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keySnapshot(name)); err != nil {
			return err
		}
		return txn.Delete(keyMeta(name))
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
	}

	return nil
}

// Close closes the underlying BadgerDB database.
func (s *BadgerSnapshotStore) Close() error {
	return s.db.Close()
}
