package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

var ErrUnsupportedContentType = errors.New("unsupported content type")

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// AvatarObjectKey builds a fresh object key for an avatar upload:
// <prefix><userID>/<uuid><ext>. Only common image types are accepted.
func AvatarObjectKey(prefix, userID, contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	return path.Join(prefix, userID, uuid.NewString()+ext), nil
}

// IsAvatarKeyOf reports whether objectKey lies in userID's avatar folder.
// Keys with dot segments or empty segments are refused, they could point
// into another user's folder once resolved.
func IsAvatarKeyOf(prefix, userID, objectKey string) bool {
	if objectKey == "" || path.Clean(objectKey) != objectKey {
		return false
	}
	return strings.HasPrefix(objectKey, path.Join(prefix, userID)+"/")
}
