package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a named object does not exist in the bucket.
// Both backends translate their SDK-specific not-found errors onto it.
var ErrNotFound = errors.New("object not found")

// ObjectStorage captures the bucket operations the gallery needs. All
// operations go straight to the remote store; there is no local caching.
type ObjectStorage interface {
	// List returns the names of every object in the bucket.
	List(ctx context.Context) ([]string, error)

	// Upload stores the file at localPath under its base name with the
	// given content type, overwriting any existing object of that name.
	// It returns the stored object name.
	Upload(ctx context.Context, localPath string, contentType string) (string, error)

	// UploadBytes stores raw bytes under the given object name.
	UploadBytes(ctx context.Context, name string, data []byte, contentType string) error

	// Download returns the full contents of the named object, or
	// ErrNotFound if it does not exist.
	Download(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether the named object is present in the bucket.
	Exists(ctx context.Context, name string) (bool, error)
}
