// Package gcs stores uploaded media in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/legacy-registry/profile-api/internal/ports/out/mediastore"
)

type Config struct {
	Bucket          string
	CredentialsFile string
	// PublicBaseURL prefixes object keys in returned URLs. Defaults to the bucket's public endpoint.
	PublicBaseURL string
	// Endpoint overrides the storage API endpoint (emulators).
	Endpoint string
}

type Store struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	baseURL string
	logger  *zap.Logger
}

func NewStore(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: bucket not set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create storage client: %w", err)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com/" + cfg.Bucket
	}
	return &Store{
		client:  client,
		bucket:  client.Bucket(cfg.Bucket),
		baseURL: strings.TrimRight(base, "/"),
		logger:  logger,
	}, nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Put streams r into the object. A failed copy aborts the upload so no partial object is left.
func (s *Store) Put(ctx context.Context, obj mediastore.Object, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.bucket.Object(obj.Key).NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.CacheControl = "public, max-age=31536000, immutable"

	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: write %s: %w", obj.Key, err)
	}
	s.logger.Info("media stored", zap.String("key", obj.Key), zap.Int64("bytes", n), zap.String("content_type", obj.ContentType))
	return nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, mediastore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs: read %s: %w", key, err)
	}
	return rc, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return mediastore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("gcs: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) URL(key string) string {
	return s.baseURL + "/" + escapeKey(key)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
