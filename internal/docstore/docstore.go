// Package docstore stores the source PDFs in object storage and hands out
// presigned links for the dashboard viewer.
package docstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignExpiry = time.Hour

// Store wraps a MinIO bucket holding the uploaded documents, keyed as
// <folder>/<filename> where folder is inferred from the filename.
type Store struct {
	client *minio.Client
	bucket string
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Metadata describes one stored document.
type Metadata struct {
	Filename     string    `json:"filename"`
	Folder       string    `json:"folder"`
	DocumentType string    `json:"documentType"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	s := &Store{client: client, bucket: cfg.Bucket}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// InferFolder maps a filename to the storage folder the ingestion pipeline
// uses. Invoices win over packing lists when a name matches both.
func InferFolder(filename string) string {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "inv"):
		return "invoice"
	case strings.Contains(name, "packing"), strings.Contains(name, "pack"), strings.Contains(name, "pl"):
		return "packing_list"
	case strings.Contains(name, "bol"), strings.Contains(name, "lading"), strings.Contains(name, "bl"):
		return "bill_of_lading"
	default:
		return "other"
	}
}

// PresignedURL returns a time-limited GET link for a stored document.
func (s *Store) PresignedURL(ctx context.Context, filename string) (string, error) {
	key := InferFolder(filename) + "/" + filename

	reqParams := make(url.Values)
	reqParams.Set("response-content-type", "application/pdf")

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignExpiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return presigned.String(), nil
}

// Fetch streams a stored document. Callers must close the reader.
func (s *Store) Fetch(ctx context.Context, filename string) (io.ReadCloser, error) {
	key := InferFolder(filename) + "/" + filename
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return object, nil
}

// Upload stores a document under its inferred folder and returns the
// metadata the ingestion webhook receives.
func (s *Store) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (Metadata, error) {
	folder := InferFolder(filename)
	key := folder + "/" + filename

	if contentType == "" {
		contentType = "application/pdf"
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return Metadata{}, fmt.Errorf("put %s: %w", key, err)
	}

	return Metadata{
		Filename:     filename,
		Folder:       folder,
		DocumentType: folder,
		Size:         size,
		ContentType:  contentType,
		UploadedAt:   time.Now().UTC(),
	}, nil
}
