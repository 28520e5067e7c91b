package gcsuploader

import (
	"context"

	"github.com/dvloznov/dataset-loader/internal/gcs"
)

// ArchiveStore re-exports the shared interface.
type ArchiveStore = gcs.ArchiveStore

// GCSArchiveStore is the concrete implementation of ArchiveStore
// that interacts with Google Cloud Storage.
type GCSArchiveStore struct{}

var _ ArchiveStore = (*GCSArchiveStore)(nil)

// NewGCSArchiveStore creates a new instance of GCSArchiveStore.
func NewGCSArchiveStore() *GCSArchiveStore {
	return &GCSArchiveStore{}
}

// UploadFile delegates to the package-level UploadFile function.
func (s *GCSArchiveStore) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	return UploadFile(ctx, bucketName, objectName, filePath)
}

// DownloadFile delegates to the package-level DownloadFile function.
func (s *GCSArchiveStore) DownloadFile(ctx context.Context, gcsURI, destPath string) error {
	return DownloadFile(ctx, gcsURI, destPath)
}

// ExtractFilenameFromGCSURI delegates to the package-level ExtractFilenameFromGCSURI function.
func (s *GCSArchiveStore) ExtractFilenameFromGCSURI(uri string) string {
	return ExtractFilenameFromGCSURI(uri)
}
