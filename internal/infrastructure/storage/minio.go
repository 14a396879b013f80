// Package storage persists signature images in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config captures the settings for the MinIO client and target bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// SignatureStore keeps decoded signature images in a MinIO bucket and returns
// the object key for the diagnosis record to reference.
type SignatureStore struct {
	client *minio.Client
	bucket string
}

// NewSignatureStore initialises the MinIO client and ensures the bucket
// exists.
func NewSignatureStore(ctx context.Context, cfg Config) (*SignatureStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &SignatureStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads a decoded signature image and returns its object key.
func (s *SignatureStore) Put(ctx context.Context, diagnosisID string, data []byte, contentType string) (string, error) {
	key := objectKey(diagnosisID, contentType)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio put object: %w", err)
	}
	return key, nil
}

func objectKey(diagnosisID, contentType string) string {
	ext := ".png"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}
	return fmt.Sprintf("signatures/%s/%d%s", diagnosisID, time.Now().UnixNano(), ext)
}
