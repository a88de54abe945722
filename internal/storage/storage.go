// Package storage is the boundary to the object store holding attachment bytes.
// The API never proxies file contents; clients upload and download through
// presigned URLs.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/config"
)

// ObjectStorage issues presigned URLs for attachment objects.
type ObjectStorage interface {
	PresignUpload(ctx context.Context, key string) (*url.URL, error)
	PresignDownload(ctx context.Context, key, fileName string) (*url.URL, error)
}

// presigner is the subset of *minio.Client used here.
type presigner interface {
	PresignedPutObject(ctx context.Context, bucketName, objectName string, expires time.Duration) (*url.URL, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinioStorage implements ObjectStorage on an S3-compatible bucket.
type MinioStorage struct {
	client presigner
	bucket string
	ttl    time.Duration
}

// NewMinio connects to the configured endpoint and makes sure the bucket exists.
// It returns nil storage when no endpoint is configured.
func NewMinio(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	if cfg.Endpoint == "" {
		logger.Warn("STORAGE_ENDPOINT not provided; attachments disabled")
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio init: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		logger.Info("created attachment bucket", zap.String("bucket", cfg.Bucket))
	}
	return &MinioStorage{client: client, bucket: cfg.Bucket, ttl: cfg.PresignTTL()}, nil
}

func (s *MinioStorage) PresignUpload(ctx context.Context, key string) (*url.URL, error) {
	return s.client.PresignedPutObject(ctx, s.bucket, key, s.ttl)
}

func (s *MinioStorage) PresignDownload(ctx context.Context, key, fileName string) (*url.URL, error) {
	params := url.Values{}
	if fileName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	}
	return s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, params)
}

// ObjectKey builds the storage key for a new attachment of ticketID.
func ObjectKey(ticketID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return fmt.Sprintf("tickets/%s/%s-%s", ticketID, uuid.NewString(), base)
}

// KeyBelongsTo reports whether key was issued for ticketID by ObjectKey.
func KeyBelongsTo(key, ticketID string) bool {
	return strings.HasPrefix(key, "tickets/"+ticketID+"/") && !strings.Contains(key, "..")
}
