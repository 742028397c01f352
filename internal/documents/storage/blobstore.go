package storage

import (
	"context"
	"time"
)

// BlobStore hands out presigned URLs for document blobs. Handlers never proxy
// file bytes; clients upload and download straight against object storage.
type BlobStore interface {
	PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
