package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidPath = errors.New("invalid file path")
)

// FileStorage stores attendance photos and other uploaded objects by key.
type FileStorage interface {
	// Upload writes the content under key and returns the stored key.
	Upload(ctx context.Context, file io.Reader, key string, contentType string) (string, error)

	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete is a no-op for keys that do not exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns a URL the client can fetch; expiry is ignored by backends
	// that serve public URLs.
	GetURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	Exists(ctx context.Context, key string) (bool, error)
}
