package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

// ErrObjectExists is returned by CreateObject when the key is already taken.
var ErrObjectExists = errors.New("object already exists")

// ErrUnknownBackend is returned by New for an unsupported storage.backend value.
var ErrUnknownBackend = errors.New("unknown storage backend")

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Name returns the last path segment of the key.
func (o ObjectInfo) Name() string {
	return path.Base(o.Key)
}

// ObjectStore defines the object storage operations the photo pipeline and
// the health probe consume.
type ObjectStore interface {
	// Bucket returns the bucket (container) this store writes to.
	Bucket() string

	// ListBuckets returns the names of all buckets visible to the credentials.
	ListBuckets(ctx context.Context) ([]string, error)

	// CreateObject writes data under key. It never overwrites: an existing
	// object at key yields ErrObjectExists.
	CreateObject(ctx context.Context, key string, data []byte, contentType string) error

	// ListObjects returns up to limit objects under prefix whose name
	// (last path segment) contains search. Empty search matches everything,
	// limit <= 0 means no limit.
	ListObjects(ctx context.Context, prefix, search string, limit int) ([]ObjectInfo, error)

	// DeleteObjects removes the given keys. Missing keys are not an error.
	DeleteObjects(ctx context.Context, keys ...string) error

	// PublicURL returns the permanent, browser-accessible URL of key.
	PublicURL(key string) string

	// KeyFromURL reverses PublicURL. It returns false for URLs this store
	// did not produce.
	KeyFromURL(rawURL string) (string, bool)
}

func keyFromURL(base, rawURL string) (string, bool) {
	base = strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(rawURL, base) {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, base)
	return key, key != ""
}

// matches applies the ListObjects search filter to a key.
func matches(key, search string) bool {
	return search == "" || strings.Contains(path.Base(key), search)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
