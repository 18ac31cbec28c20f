package mediastore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("media object not found")

type Object struct {
	Key         string
	ContentType string
	Size        int64
}

// Store persists uploaded media objects and resolves their public URLs.
type Store interface {
	Put(ctx context.Context, obj Object, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}
