package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	*storage.MemoryStorage
	buckets     []string
	listErr     error
	createErr   error
	deleteErr   error
	panicOnList bool

	entered     chan struct{}
	release     chan struct{}
	bucketCalls atomic.Int32
	deletes     atomic.Int32
}

func newStub() *stubStore {
	return &stubStore{MemoryStorage: storage.NewMemoryStorage("photos", ""), buckets: []string{"other", "photos"}}
}

func (s *stubStore) ListBuckets(ctx context.Context) ([]string, error) {
	s.bucketCalls.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.buckets, nil
}

func (s *stubStore) ListObjects(ctx context.Context, prefix, search string, limit int) ([]storage.ObjectInfo, error) {
	if s.panicOnList {
		panic("sdk blew up")
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.MemoryStorage.ListObjects(ctx, prefix, search, limit)
}

func (s *stubStore) CreateObject(ctx context.Context, key string, data []byte, contentType string) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.MemoryStorage.CreateObject(ctx, key, data, contentType)
}

func (s *stubStore) DeleteObjects(ctx context.Context, keys ...string) error {
	s.deletes.Add(1)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStorage.DeleteObjects(ctx, keys...)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestProber(store storage.ObjectStore, opts ...Option) *Prober {
	return NewProber(store, "_health", append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestCheckHealthyStorage(t *testing.T) {
	store := newStub()
	p := newTestProber(store)

	assert.False(t, p.Snapshot().Checked())

	h, ran := p.Check(context.Background(), "u1")
	require.True(t, ran)
	assert.Equal(t, domain.StorageHealth{BucketExists: true, CanRead: true, CanWrite: true, LastCheckedAt: fixedNow}, h)
	assert.Equal(t, h, p.Snapshot())
	assert.Zero(t, store.Len(), "probe object should be cleaned up")
	assert.Equal(t, int32(1), store.deletes.Load())
}

func TestCheckMissingBucket(t *testing.T) {
	store := newStub()
	store.buckets = []string{"other"}
	p := newTestProber(store)

	h, ran := p.Check(context.Background(), "u1")
	require.True(t, ran)
	assert.False(t, h.BucketExists)
	assert.False(t, h.CanRead)
	assert.False(t, h.CanWrite)
	assert.Equal(t, fixedNow, h.LastCheckedAt)
	assert.Zero(t, store.deletes.Load())
}

func TestCheckDeleteFailureKeepsWritable(t *testing.T) {
	store := newStub()
	store.deleteErr = errors.New("access denied")
	p := newTestProber(store)

	h, _ := p.Check(context.Background(), "u1")
	assert.True(t, h.CanWrite)
	assert.Equal(t, 1, store.Len())
}

func TestCheckWriteFailure(t *testing.T) {
	store := newStub()
	store.createErr = errors.New("read-only bucket")
	p := newTestProber(store)

	h, _ := p.Check(context.Background(), "u1")
	assert.True(t, h.BucketExists)
	assert.True(t, h.CanRead)
	assert.False(t, h.CanWrite)
}

func TestCheckPanicBecomesFalse(t *testing.T) {
	store := newStub()
	store.panicOnList = true
	p := newTestProber(store)

	h, ran := p.Check(context.Background(), "u1")
	require.True(t, ran)
	assert.True(t, h.BucketExists)
	assert.False(t, h.CanRead)
	assert.True(t, h.CanWrite)
}

func TestCheckIsNotReentrant(t *testing.T) {
	store := newStub()
	store.entered = make(chan struct{})
	store.release = make(chan struct{})
	p := newTestProber(store)

	done := make(chan domain.StorageHealth)
	go func() {
		h, _ := p.Check(context.Background(), "u1")
		done <- h
	}()
	<-store.entered

	h, ran := p.Check(context.Background(), "u1")
	assert.False(t, ran)
	assert.False(t, h.Checked())
	assert.Equal(t, int32(1), store.bucketCalls.Load())

	close(store.release)
	first := <-done
	assert.True(t, first.CanWrite)

	store.entered = nil
	_, ran = p.Check(context.Background(), "u1")
	assert.True(t, ran)
}

func TestCheckCancelledKeepsPreviousSnapshot(t *testing.T) {
	store := newStub()
	p := newTestProber(store)

	healthy, ran := p.Check(context.Background(), "u1")
	require.True(t, ran)
	require.True(t, healthy.CanWrite)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h, ran := p.Check(ctx, "mallory")
	assert.False(t, ran)
	assert.Equal(t, healthy, h)
	assert.Equal(t, healthy, p.Snapshot())
}

func TestCheckCancelledBeforeFirstResultStaysUnchecked(t *testing.T) {
	p := newTestProber(newStub())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ran := p.Check(ctx, "u1")
	assert.False(t, ran)
	assert.False(t, p.Snapshot().Checked())

	// The guard is released, so the next check runs.
	_, ran = p.Check(context.Background(), "u1")
	assert.True(t, ran)
}

func TestRunChecksImmediately(t *testing.T) {
	store := newStub()
	p := newTestProber(store)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		p.Run(ctx, time.Hour)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return p.Snapshot().Checked() }, time.Second, 5*time.Millisecond)
	cancel()
	<-stopped
	assert.Equal(t, int32(1), store.bucketCalls.Load())
}

func TestMetricsReflectSnapshot(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	store := newStub()
	store.createErr = errors.New("nope")
	p := newTestProber(store, WithMetrics(m))
	p.Check(context.Background(), "u1")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.status.WithLabelValues("bucket_exists")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.status.WithLabelValues("can_read")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.status.WithLabelValues("can_write")))
}
