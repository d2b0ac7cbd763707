package storage

import (
	"context"
	"io"
	"testing"
	"time"
)

type memoryStore struct {
	objects map[string][]byte
	buckets map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, buckets: map[string]bool{}}
}

func (m *memoryStore) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error) {
	return &PresignedURL{URL: "https://files.test/" + bucket + "/" + fileKey, FileKey: fileKey}, nil
}

func (m *memoryStore) UploadFile(ctx context.Context, bucket, fileKey, contentType string, reader io.Reader, size int64) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+fileKey] = data
	return nil
}

func (m *memoryStore) EnsureBucketExists(ctx context.Context, bucket string) error {
	m.buckets[bucket] = true
	return nil
}

func (m *memoryStore) ValidateContentType(contentType string) error {
	return validateContentType(contentType)
}

func (m *memoryStore) ValidateFileSize(sizeBytes int64) error {
	return validateFileSize(sizeBytes, MaxReportSize)
}

func TestReportKey(t *testing.T) {
	at := time.Date(2026, time.March, 5, 23, 30, 0, 0, time.UTC)
	if got := ReportKey("abc", at); got != "reports/2026/03/abc.pdf" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestArchiveReport(t *testing.T) {
	store := newMemoryStore()
	archive := NewReportArchive(store, "valuation-reports")
	if err := archive.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	if !store.buckets["valuation-reports"] {
		t.Fatalf("bucket not created")
	}

	at := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	url, err := archive.ArchiveReport(context.Background(), "r1", at, []byte("%PDF"))
	if err != nil {
		t.Fatalf("ArchiveReport: %v", err)
	}
	if url.FileKey != "reports/2026/01/r1.pdf" {
		t.Fatalf("unexpected key %q", url.FileKey)
	}
	if string(store.objects["valuation-reports/reports/2026/01/r1.pdf"]) != "%PDF" {
		t.Fatalf("object not stored")
	}
}

func TestArchiveReportRejectsEmptyPDF(t *testing.T) {
	archive := NewReportArchive(newMemoryStore(), "b")
	if _, err := archive.ArchiveReport(context.Background(), "r1", time.Now(), nil); err == nil {
		t.Fatal("expected error for empty pdf")
	}
}

func TestValidateContentType(t *testing.T) {
	if err := validateContentType("application/pdf; charset=binary"); err != nil {
		t.Fatalf("pdf rejected: %v", err)
	}
	if err := validateContentType("image/png"); err == nil {
		t.Fatal("png accepted")
	}
}
