// Package storage provides object storage for publishing benchmark report
// artifacts, with local filesystem and S3 backends.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
	ErrDownloadFailed = errors.New("download failed")
)

// ObjectStorage abstracts the artifact store a finished report is published
// to. Implementations include S3 and the local filesystem for testing.
type ObjectStorage interface {
	// Upload copies the local file at localPath to objectPath in the store.
	Upload(ctx context.Context, localPath, objectPath string) error

	// Download copies objectPath from the store to localPath.
	Download(ctx context.Context, objectPath, localPath string) error

	// Exists reports whether objectPath is present in the store.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// Delete removes objectPath from the store. Deleting a missing object
	// is not an error.
	Delete(ctx context.Context, objectPath string) error
}
