package gcs

import (
	"context"
)

// URIScheme prefixes every cloud storage archive reference.
const URIScheme = "gs://"

// ArchiveStore provides cloud storage operations for dataset archives.
// This interface enables mocking and testing of storage functionality.
type ArchiveStore interface {
	// UploadFile uploads a local file to a storage bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error

	// DownloadFile copies the object at the given storage URI to destPath.
	// A missing object yields an error wrapping errors.ErrDatasetNotFound.
	DownloadFile(ctx context.Context, gcsURI, destPath string) error

	// ExtractFilenameFromGCSURI extracts the filename from a storage URI.
	ExtractFilenameFromGCSURI(uri string) string
}
