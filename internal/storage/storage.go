// Package storage is the object-store gateway for essay images. It wraps a
// MinIO/S3 client behind a narrow interface so services can be tested with
// fakes and the engine can be swapped without touching the pipeline.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mthsena/corrigeai/config"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/rs/zerolog/log"
)

// MaxImageSize is the upload limit for a single essay image.
const MaxImageSize = 10 << 20 // 10 MiB

var allowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// StoredImage is the result of a successful upload.
type StoredImage struct {
	Path      string
	PublicURL string
}

// ImageStorage stores and removes essay images. Remove is idempotent: a
// missing object is not an error.
type ImageStorage interface {
	Store(ctx context.Context, content []byte, contentType, ownerID string) (*StoredImage, error)
	Remove(ctx context.Context, path string) error
}

// ValidateImage enforces the content-type and size limits before any network
// call is made.
func ValidateImage(content []byte, contentType string) error {
	if _, ok := allowedContentTypes[contentType]; !ok {
		return apperror.New(apperror.KindValidation,
			fmt.Sprintf("Invalid file type %q. Only JPG, PNG, and PDF files are allowed", contentType))
	}
	if len(content) == 0 {
		return apperror.New(apperror.KindValidation, "File is empty")
	}
	if len(content) > MaxImageSize {
		return apperror.New(apperror.KindValidation, "File size exceeds 10MB limit")
	}
	return nil
}

// ObjectKey builds the bucket key for an upload: one folder per owner, a
// timestamped random file name inside it.
func ObjectKey(ownerID, contentType string) string {
	ext := allowedContentTypes[contentType]
	return fmt.Sprintf("%s/%d-%s%s", ownerID, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

type minioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStorage creates the MinIO-backed gateway and makes sure the bucket
// exists.
func NewMinioStorage(cfg *config.Config) (ImageStorage, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Storage.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Storage.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", cfg.Storage.Bucket, err)
		}
	}

	publicURL := strings.TrimSuffix(cfg.Storage.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.Storage.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Storage.Endpoint, cfg.Storage.Bucket)
	}

	return &minioStorage{client: client, bucket: cfg.Storage.Bucket, publicURL: publicURL}, nil
}

func (s *minioStorage) Store(ctx context.Context, content []byte, contentType, ownerID string) (*StoredImage, error) {
	if err := ValidateImage(content, contentType); err != nil {
		return nil, err
	}

	key := ObjectKey(ownerID, contentType)
	opts := minio.PutObjectOptions{ContentType: contentType, CacheControl: "max-age=3600"}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), opts); err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "Failed to upload image", err)
	}

	return &StoredImage{
		Path:      key,
		PublicURL: fmt.Sprintf("%s/%s", s.publicURL, key),
	}, nil
}

func (s *minioStorage) Remove(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	// RemoveObject on a missing key succeeds, which gives us the idempotent
	// delete the essay-deletion flow relies on.
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove image from storage")
		return apperror.Wrap(apperror.KindUpstream, "Failed to remove image", err)
	}
	return nil
}
