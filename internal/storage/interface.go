package storage

import "context"

// ImageStore is the storage surface handlers depend on. The interface
// allows an in-memory fake in handler tests.
type ImageStore interface {
	UploadImage(ctx context.Context, imageData []byte, userID, extension, contentType string) (*UploadResult, error)
	PresignUpload(ctx context.Context, userID, extension, contentType string) (*PresignedUpload, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Storage implements ImageStore
var _ ImageStore = (*S3Storage)(nil)
