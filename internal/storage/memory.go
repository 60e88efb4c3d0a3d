package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStorage keeps objects in process memory. It backs local development
// (storage.backend=memory) and tests.
type MemoryStorage struct {
	mu         sync.Mutex
	bucket     string
	publicBase string
	objects    map[string]memoryObject
}

// NewMemoryStorage constructs an empty store for bucket whose public URLs are rooted at publicBase.
func NewMemoryStorage(bucket, publicBase string) *MemoryStorage {
	if publicBase == "" {
		publicBase = "memory://" + bucket
	}
	return &MemoryStorage{
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		objects:    make(map[string]memoryObject),
	}
}

func (m *MemoryStorage) Bucket() string { return m.bucket }

func (m *MemoryStorage) ListBuckets(ctx context.Context) ([]string, error) {
	return []string{m.bucket}, nil
}

func (m *MemoryStorage) CreateObject(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return fmt.Errorf("put object %q: %w", key, ErrObjectExists)
	}
	m.objects[key] = memoryObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		modified:    time.Now(),
	}
	return nil
}

// ListObjects returns matches in key order.
func (m *MemoryStorage) ListObjects(ctx context.Context, prefix, search string, limit int) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && matches(k, search) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]ObjectInfo, 0, len(keys))
	for _, k := range keys {
		obj := m.objects[k]
		out = append(out, ObjectInfo{
			Key:          k,
			Size:         int64(len(obj.data)),
			ContentType:  obj.contentType,
			LastModified: obj.modified,
		})
	}
	return out, nil
}

func (m *MemoryStorage) DeleteObjects(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *MemoryStorage) PublicURL(key string) string {
	return m.publicBase + "/" + key
}

func (m *MemoryStorage) KeyFromURL(rawURL string) (string, bool) {
	return keyFromURL(m.publicBase, rawURL)
}

// Bytes returns the stored payload for assertions.
func (m *MemoryStorage) Bytes(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return append([]byte(nil), obj.data...), ok
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
