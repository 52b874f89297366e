// Package gcsblob implements the blob store on Google Cloud Storage.
package gcsblob

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/ports"
)

const publicURLBase = "https://storage.googleapis.com/"

// Store implements ports.BlobStore against a single GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
}

// Config controls the GCS blob store.
type Config struct {
	Bucket string
	// CredentialsFile is the path to a service account key file. When
	// empty the client falls back to application default credentials.
	CredentialsFile string
}

// NewStore creates a GCS-backed blob store.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, apperrors.Validation("blob store bucket is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create storage client")
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Put streams the object to the bucket, reporting progress as bytes flow,
// and returns the object's public URL. On failure the partially written
// object is not committed.
func (s *Store) Put(
	ctx context.Context,
	path, contentType string,
	size int64,
	r io.Reader,
	progress ports.ProgressFunc,
) (string, error) {
	if path == "" {
		return "", apperrors.Validation("blob path is required")
	}

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	// Report progress per chunk rather than per resumable-upload request.
	w.ChunkSize = 256 * 1024

	src := io.Reader(r)
	if progress != nil {
		src = &progressReader{r: r, total: size, report: progress}
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return "", transferErr(err)
	}
	// Close commits the object; the write is not durable until it returns.
	if err := w.Close(); err != nil {
		return "", transferErr(err)
	}
	if progress != nil {
		progress(size, size)
	}
	return publicURLBase + s.bucket + "/" + path, nil
}

// Delete removes the object. Deleting an absent object is not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return transferErr(err)
	}
	return nil
}

// PathFromURL maps a public URL previously returned by Put back to the
// object path within the bucket.
func (s *Store) PathFromURL(url string) (string, bool) {
	prefix := publicURLBase + s.bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	path := strings.TrimPrefix(url, prefix)
	if path == "" {
		return "", false
	}
	return path, true
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func transferErr(err error) error {
	return &apperrors.AppError{
		Code:    apperrors.ErrCodeTransfer,
		Message: "Blob transfer failed",
		Cause:   err,
	}
}

// progressReader reports cumulative bytes read from the wrapped reader.
type progressReader struct {
	r           io.Reader
	total       int64
	transferred int64
	report      ports.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.transferred += int64(n)
		p.report(p.transferred, p.total)
	}
	return n, err
}
