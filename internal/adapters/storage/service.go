package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// PresignedURLTTL is the default expiration time for presigned URLs (15 minutes).
	PresignedURLTTL = 15 * time.Minute

	// MaxReportSize bounds archived PDFs.
	MaxReportSize int64 = 20 << 20

	contentTypePDF = "application/pdf"
)

// MinIOService implements StorageService using MinIO.
type MinIOService struct {
	client      *minio.Client
	maxFileSize int64
}

// NewMinIOService creates a new MinIO storage service.
func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{
		client:      client,
		maxFileSize: MaxReportSize,
	}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return nil
}

// GenerateDownloadURL creates a presigned URL for downloading a file.
func (s *MinIOService) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)

	reqParams := make(url.Values)
	reqParams.Set("response-content-type", contentTypePDF)

	presignedURL, err := s.client.PresignedGetObject(ctx, bucket, fileKey, PresignedURLTTL, reqParams)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURL{
		URL:       presignedURL.String(),
		FileKey:   fileKey,
		ExpiresAt: expiresAt,
	}, nil
}

// UploadFile uploads a file directly to storage from an io.Reader.
func (s *MinIOService) UploadFile(ctx context.Context, bucket, fileKey, contentType string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file %s: %w", fileKey, err)
	}
	return nil
}

// ReportArchive stores report PDFs in one bucket.
type ReportArchive struct {
	store  StorageService
	bucket string
}

// NewReportArchive creates the archive over store. The bucket is created on
// first use by EnsureBucket.
func NewReportArchive(store StorageService, bucket string) *ReportArchive {
	return &ReportArchive{store: store, bucket: bucket}
}

// EnsureBucket creates the reports bucket when missing.
func (a *ReportArchive) EnsureBucket(ctx context.Context) error {
	return a.store.EnsureBucketExists(ctx, a.bucket)
}

// ArchiveReport uploads pdf under its report key and returns a presigned
// download URL.
func (a *ReportArchive) ArchiveReport(ctx context.Context, reportID string, generatedAt time.Time, pdf []byte) (*PresignedURL, error) {
	if err := a.store.ValidateContentType(contentTypePDF); err != nil {
		return nil, err
	}
	if err := a.store.ValidateFileSize(int64(len(pdf))); err != nil {
		return nil, err
	}

	key := ReportKey(reportID, generatedAt)
	if err := a.store.UploadFile(ctx, a.bucket, key, contentTypePDF, bytes.NewReader(pdf), int64(len(pdf))); err != nil {
		return nil, err
	}
	return a.store.GenerateDownloadURL(ctx, a.bucket, key)
}

// ReportKey places a report under reports/<yyyy>/<mm>/.
func ReportKey(reportID string, generatedAt time.Time) string {
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	generatedAt = generatedAt.UTC()
	return fmt.Sprintf("reports/%04d/%02d/%s.pdf", generatedAt.Year(), int(generatedAt.Month()), reportID)
}
