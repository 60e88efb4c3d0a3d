package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/dating-app/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageCreateNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage("photos", "https://cdn.example/photos")

	require.NoError(t, store.CreateObject(ctx, "owner/a.jpg", []byte("one"), "image/jpeg"))
	err := store.CreateObject(ctx, "owner/a.jpg", []byte("two"), "image/jpeg")
	assert.ErrorIs(t, err, ErrObjectExists)

	data, ok := store.Bytes("owner/a.jpg")
	require.True(t, ok)
	assert.Equal(t, "one", string(data))
}

func TestMemoryStorageListFiltersByPrefixSearchAndLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage("photos", "")
	for _, k := range []string{"alice/1_a.jpg", "alice/2_b.png", "bob/1_a.jpg"} {
		require.NoError(t, store.CreateObject(ctx, k, []byte("x"), "image/jpeg"))
	}

	objs, err := store.ListObjects(ctx, "alice/", "1_a", 0)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "alice/1_a.jpg", objs[0].Key)
	assert.Equal(t, "1_a.jpg", objs[0].Name())

	objs, err = store.ListObjects(ctx, "", "", 1)
	require.NoError(t, err)
	assert.Len(t, objs, 1)

	objs, err = store.ListObjects(ctx, "alice/", "", 0)
	require.NoError(t, err)
	assert.Len(t, objs, 2)

	require.NoError(t, store.DeleteObjects(ctx, "alice/1_a.jpg", "missing"))
	assert.Equal(t, 2, store.Len())
}

func TestKeyFromURL(t *testing.T) {
	store := NewMemoryStorage("photos", "https://cdn.example/photos/")
	url := store.PublicURL("alice/1_a.jpg")
	assert.Equal(t, "https://cdn.example/photos/alice/1_a.jpg", url)

	key, ok := store.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "alice/1_a.jpg", key)

	_, ok = store.KeyFromURL("https://elsewhere.example/alice/1_a.jpg")
	assert.False(t, ok)
	_, ok = store.KeyFromURL("https://cdn.example/photos/")
	assert.False(t, ok)
}

type failingStore struct {
	ObjectStore
}

func (failingStore) ListObjects(context.Context, string, string, int) ([]ObjectInfo, error) {
	return nil, errors.New("boom")
}

func TestInstrumentRecordsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver("test_storage", reg)
	require.NoError(t, err)

	ctx := context.Background()
	store := Instrument(failingStore{NewMemoryStorage("photos", "")}, obs)

	require.NoError(t, store.CreateObject(ctx, "k", []byte("abcd"), "image/png"))
	_, err = store.ListObjects(ctx, "", "", 0)
	require.Error(t, err)

	assert.Equal(t, float64(4), testutil.ToFloat64(obs.uploadBytes))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.errors.WithLabelValues("list")))
	assert.Equal(t, float64(0), testutil.ToFloat64(obs.errors.WithLabelValues("create")))

	// Registering twice reuses the existing collectors.
	_, err = NewPrometheusObserver("test_storage", reg)
	assert.NoError(t, err)
}

func TestInstrumentWithoutObserver(t *testing.T) {
	store := Instrument(NewMemoryStorage("photos", ""), nil)
	assert.NoError(t, store.CreateObject(context.Background(), "k", nil, ""))
	assert.Equal(t, "photos", store.Bucket())
}

func TestNewSelectsBackend(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	store, err := New(ctx, config.StorageConfig{Backend: "memory", Bucket: "photos"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, store)

	_, err = New(ctx, config.StorageConfig{Backend: "ftp"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
