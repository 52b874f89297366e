package ports

import (
	"context"
	"io"
)

// ProgressFunc receives upload progress as bytes already transferred out of
// the total. Implementations must tolerate being called from the transfer
// goroutine.
type ProgressFunc func(transferred, total int64)

// BlobStore stores binary objects under hierarchical paths and serves them
// through public URLs.
type BlobStore interface {
	// Put streams the object to storage under the given path, reporting
	// progress as bytes flow, and returns the object's public URL.
	// A transfer failure yields a transfer error and leaves no object
	// behind.
	Put(ctx context.Context, path, contentType string, size int64, r io.Reader, progress ProgressFunc) (url string, err error)

	// Delete removes the object stored under the path. Deleting an
	// absent object is not an error.
	Delete(ctx context.Context, path string) error

	// PathFromURL maps a public URL previously returned by Put back to
	// the storage path, so detached images can be cleaned up.
	PathFromURL(url string) (string, bool)
}
