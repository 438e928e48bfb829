package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the object-storage boundary for user avatars and hackathon
// pictures. Callers own the key layout ("avatars/...", "hackathons/..."); the
// uploader only moves bytes and resolves public URLs.
type FileUploader interface {
	// Upload stores the object under key with the given content type.
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetPublicURL resolves the browser-facing URL for a stored key, or ""
	// when no public base is configured.
	GetPublicURL(key string) string
}
