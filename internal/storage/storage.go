package storage

import (
	"context"
	"io"
)

// ObjectStorage stores and retrieves binary objects (attachments and
// completion reports) by key.
type ObjectStorage interface {
	// Upload stores the object under key and returns nothing; callers
	// keep the key in the attachments table.
	Upload(ctx context.Context, key string, contentType string, body io.Reader) error

	// Download returns a reader for the stored object. The caller must
	// close it.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the stored object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}
