package snapshot

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal in-memory store for decorator tests.
type fakeStore struct {
	docs   map[string][]byte
	closed bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string][]byte)}
}

func (s *fakeStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.docs[name] = append([]byte(nil), data...)
	return nil
}

func (s *fakeStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, ok := s.docs[name]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", name, ErrSnapshotNotFound)
	}
	return data, nil
}

func (s *fakeStore) List(ctx context.Context) ([]Info, error) {
	infos := make([]Info, 0, len(s.docs))
	for name, data := range s.docs {
		infos = append(infos, Info{Name: name, Size: uint64(len(data))})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *fakeStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	delete(s.docs, name)
	return nil
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

// opEvent is a single observed operation.
type opEvent struct {
	op  string
	err error
}

// captureMetrics records Metrics calls for assertions.
type captureMetrics struct {
	ops   []opEvent
	bytes map[string]int64
}

func newCaptureMetrics() *captureMetrics {
	return &captureMetrics{bytes: make(map[string]int64)}
}

func (m *captureMetrics) ObserveOperation(op string, duration time.Duration, err error) {
	m.ops = append(m.ops, opEvent{op: op, err: err})
}

func (m *captureMetrics) RecordBytes(op string, bytes int64) {
	m.bytes[op] += bytes
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()

	t.Run("NilMetricsReturnsStoreUnwrapped", func(t *testing.T) {
		store := newFakeStore()
		assert.Same(t, Store(store), Instrument(store, nil))
	})

	t.Run("SaveAndLoadObserved", func(t *testing.T) {
		store := newFakeStore()
		rec := newCaptureMetrics()
		instrumented := Instrument(store, rec)

		require.NoError(t, instrumented.Save(ctx, "daily", []byte("abc")))
		data, err := instrumented.Load(ctx, "daily")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), data)

		require.Len(t, rec.ops, 2)
		assert.Equal(t, opEvent{op: "save"}, rec.ops[0])
		assert.Equal(t, opEvent{op: "load"}, rec.ops[1])
		assert.Equal(t, int64(3), rec.bytes["save"])
		assert.Equal(t, int64(3), rec.bytes["load"])
	})

	t.Run("FailedOperationSkipsBytes", func(t *testing.T) {
		store := newFakeStore()
		rec := newCaptureMetrics()
		instrumented := Instrument(store, rec)

		_, err := instrumented.Load(ctx, "missing")
		require.ErrorIs(t, err, ErrSnapshotNotFound)

		require.Len(t, rec.ops, 1)
		assert.Equal(t, "load", rec.ops[0].op)
		assert.ErrorIs(t, rec.ops[0].err, ErrSnapshotNotFound)
		assert.Zero(t, rec.bytes["load"])
	})

	t.Run("ListAndDeleteObserved", func(t *testing.T) {
		store := newFakeStore()
		rec := newCaptureMetrics()
		instrumented := Instrument(store, rec)

		require.NoError(t, instrumented.Save(ctx, "keep", []byte("x")))
		infos, err := instrumented.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		require.NoError(t, instrumented.Delete(ctx, "keep"))

		require.Len(t, rec.ops, 3)
		assert.Equal(t, "list", rec.ops[1].op)
		assert.Equal(t, "delete", rec.ops[2].op)
	})

	t.Run("ClosePassesThrough", func(t *testing.T) {
		store := newFakeStore()
		rec := newCaptureMetrics()
		instrumented := Instrument(store, rec)

		require.NoError(t, instrumented.Close())
		assert.True(t, store.closed)
		assert.Empty(t, rec.ops)
	})
}
