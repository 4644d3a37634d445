package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PresignExpiry is how long a presigned upload URL stays valid
const PresignExpiry = 5 * time.Minute

// S3Storage handles artwork image uploads to AWS S3
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	region  string
	baseURL string
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Size   int64  `json:"size"`
}

// PresignedUpload is a short-lived URL a client can PUT an image to directly
type PresignedUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewS3Storage creates a new S3-backed image store
func NewS3Storage(region, bucket, baseURL string) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}, nil
}

// mediaKey builds the object key for a user's upload:
// media/{userID}/{unix-timestamp}-{random}.{ext}
func mediaKey(userID, extension string) string {
	random := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("media/%s/%d-%s%s", userID, time.Now().Unix(), random, extension)
}

// UploadImage uploads image bytes to S3 under the caller's media prefix
func (s *S3Storage) UploadImage(ctx context.Context, imageData []byte, userID, extension, contentType string) (*UploadResult, error) {
	key := mediaKey(userID, extension)

	putObjectInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String(contentType),

		// Artwork images are immutable once uploaded
		CacheControl: aws.String("max-age=86400"),

		Metadata: map[string]string{
			"user-id":          userID,
			"upload-timestamp": time.Now().Format(time.RFC3339),
			"file-type":        "artwork",
		},
	}

	_, err := s.client.PutObject(ctx, putObjectInput)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(s.baseURL, "/"), key)

	return &UploadResult{
		Key:    key,
		URL:    publicURL,
		Bucket: s.bucket,
		Region: s.region,
		Size:   int64(len(imageData)),
	}, nil
}

// PresignUpload returns a presigned PUT URL the client can upload an image
// to directly, bypassing the API server for the file body.
func (s *S3Storage) PresignUpload(ctx context.Context, userID, extension, contentType string) (*PresignedUpload, error) {
	key := mediaKey(userID, extension)

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	publicURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(s.baseURL, "/"), key)

	return &PresignedUpload{
		Key:       key,
		UploadURL: req.URL,
		PublicURL: publicURL,
		ExpiresAt: time.Now().Add(PresignExpiry),
	}, nil
}

// DeleteFile deletes a file from S3
func (s *S3Storage) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (s *S3Storage) CheckBucketAccess(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", s.bucket, err)
	}

	return nil
}
