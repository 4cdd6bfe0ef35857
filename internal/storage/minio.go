package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/arsipku/arsipku/internal/apperr"
)

// AttachmentStore keeps scanned letters and other attachment blobs in an
// S3-compatible bucket. Keys are owned by the document service; the store
// never interprets them.
type AttachmentStore struct {
	client *minio.Client
	bucket string
}

// NewAttachmentStore connects to the object store and ensures the bucket
// exists.
func NewAttachmentStore(cfg *Config) (*AttachmentStore, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("attachment store config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &AttachmentStore{client: mc, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exists, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exists {
			return nil, fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
		}
	}
	return s, nil
}

// Put stores an attachment under key, overwriting any previous object.
func (s *AttachmentStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return apperr.Storage("store attachment", err)
	}
	return nil
}

// Get streams the attachment back. A missing key is apperr.NotFound.
func (s *AttachmentStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperr.Storage("fetch attachment", err)
	}
	// GetObject is lazy; stat now so missing keys surface here
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, apperr.NotFound("attachment not found")
		}
		return nil, apperr.Storage("fetch attachment", err)
	}
	return obj, nil
}

// Remove deletes the attachment. Removing a missing key is not an error.
func (s *AttachmentStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperr.Storage("remove attachment", err)
	}
	return nil
}

// PresignedURL returns a time-limited download link for the attachment.
func (s *AttachmentStore) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, url.Values{})
	if err != nil {
		return "", apperr.Storage("presign attachment", err)
	}
	return u.String(), nil
}
