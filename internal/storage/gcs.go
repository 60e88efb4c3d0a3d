package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"alcyxob/dating-app/internal/config"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// gcsStorage implements ObjectStore on Google Cloud Storage.
type gcsStorage struct {
	client     *gcs.Client
	bucket     string
	projectID  string
	publicBase string
	log        zerolog.Logger
}

// NewGCSStorage creates a GCS-backed store. Credentials come from
// cfg.GCSCredentialsFile or, when empty, Application Default Credentials.
func NewGCSStorage(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (ObjectStore, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = "https://storage.googleapis.com/" + cfg.Bucket
	}

	return &gcsStorage{
		client:     client,
		bucket:     cfg.Bucket,
		projectID:  cfg.GCSProjectID,
		publicBase: publicBase,
		log:        logger.With().Str("component", "storage.gcs").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

func (s *gcsStorage) Bucket() string { return s.bucket }

// ListBuckets needs a project id; without one it falls back to reading the
// configured bucket's attributes.
func (s *gcsStorage) ListBuckets(ctx context.Context) ([]string, error) {
	if s.projectID == "" {
		if _, err := s.client.Bucket(s.bucket).Attrs(ctx); err != nil {
			if errors.Is(err, gcs.ErrBucketNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("bucket attrs: %w", err)
		}
		return []string{s.bucket}, nil
	}

	var names []string
	it := s.client.Buckets(ctx, s.projectID)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list buckets: %w", err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (s *gcsStorage) CreateObject(ctx context.Context, key string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return fmt.Errorf("write object %q: %w", key, ErrObjectExists)
		}
		s.log.Error().Err(err).Str("key", key).Msg("write object failed")
		return fmt.Errorf("write object %q: %w", key, err)
	}
	return nil
}

func (s *gcsStorage) ListObjects(ctx context.Context, prefix, search string, limit int) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		if !matches(attrs.Name, search) {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:          attrs.Name,
			Size:         attrs.Size,
			ContentType:  attrs.ContentType,
			LastModified: attrs.Updated,
		})
		if limit > 0 && len(objects) >= limit {
			break
		}
	}
	return objects, nil
}

func (s *gcsStorage) DeleteObjects(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
		if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("delete object %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *gcsStorage) PublicURL(key string) string {
	return joinURL(s.publicBase, key)
}

func (s *gcsStorage) KeyFromURL(rawURL string) (string, bool) {
	return keyFromURL(s.publicBase, rawURL)
}
