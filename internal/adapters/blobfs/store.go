// Package blobfs implements the blob store on the local filesystem for
// development and tests.
package blobfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/ports"
)

// Store implements ports.BlobStore on a local directory. Objects are served
// under BaseURL by the static file handler.
type Store struct {
	root    string
	baseURL string
}

// NewStore creates a filesystem blob store rooted at dir. baseURL is the URL
// prefix under which the directory is served.
func NewStore(dir, baseURL string) (*Store, error) {
	if dir == "" {
		return nil, apperrors.Validation("blob store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, "failed to create blob directory")
	}
	return &Store{root: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Put writes the object under the path, reporting progress as bytes are
// written. A failed write leaves no file behind.
func (s *Store) Put(
	ctx context.Context,
	path, _ string,
	size int64,
	r io.Reader,
	progress ports.ProgressFunc,
) (string, error) {
	fsPath, err := s.fsPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fsPath), 0o755); err != nil {
		return "", apperrors.Wrap(err, "failed to create blob directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(fsPath), ".upload-*")
	if err != nil {
		return "", apperrors.Wrap(err, "failed to create temp file")
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	var transferred int64
	buf := make([]byte, 32*1024)
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", transferErr(ctxErr)
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, writeErr := tmp.Write(buf[:n]); writeErr != nil {
				return "", transferErr(writeErr)
			}
			transferred += int64(n)
			if progress != nil {
				progress(transferred, size)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", transferErr(readErr)
		}
	}

	if err := tmp.Close(); err != nil {
		return "", transferErr(err)
	}
	if err := os.Rename(tmp.Name(), fsPath); err != nil {
		return "", transferErr(err)
	}
	if progress != nil {
		progress(size, size)
	}
	return s.baseURL + "/" + path, nil
}

// Delete removes the object. Deleting an absent object is not an error.
func (s *Store) Delete(_ context.Context, path string) error {
	fsPath, err := s.fsPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fsPath); err != nil && !os.IsNotExist(err) {
		return transferErr(err)
	}
	return nil
}

// PathFromURL maps a URL previously returned by Put back to the object path.
func (s *Store) PathFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	path := strings.TrimPrefix(url, prefix)
	if path == "" {
		return "", false
	}
	return path, true
}

// fsPath resolves the object path under the root, rejecting traversal.
func (s *Store) fsPath(path string) (string, error) {
	if path == "" {
		return "", apperrors.Validation("blob path is required")
	}
	clean := filepath.Clean("/" + path)
	if strings.Contains(path, "..") {
		return "", apperrors.Validation("invalid blob path")
	}
	return filepath.Join(s.root, clean), nil
}

func transferErr(err error) error {
	return &apperrors.AppError{
		Code:    apperrors.ErrCodeTransfer,
		Message: "Blob transfer failed",
		Cause:   err,
	}
}
