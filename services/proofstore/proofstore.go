// Package proofstore persists proof-of-delivery photos. The workflow core only
// carries the opaque object key; bytes live in object storage.
package proofstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrNotFound = errors.New("proof image not found")

// Store saves and loads proof images by object key. Load returns the content
// type the image was stored with.
type Store interface {
	Save(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
	Load(ctx context.Context, objectKey string) ([]byte, string, error)
}

// S3Store wraps MinIO/S3 interactions for proof-of-delivery photos.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
}

// NewS3Store creates a MinIO client from environment configuration.
func NewS3Store() (*S3Store, error) {
	client, err := minio.New(os.Getenv("S3_ENDPOINT"), &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_SECRET_KEY"), ""),
		Secure: os.Getenv("S3_USE_SSL") == "true",
		Region: os.Getenv("S3_REGION"),
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	bucket := os.Getenv("S3_PROOF_BUCKET")
	if bucket == "" {
		bucket = "delivery-proofs"
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		region: os.Getenv("S3_REGION"),
	}, nil
}

// EnsureBucket makes sure the proof bucket exists before use.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Save uploads the photo and returns the object key it was stored under.
func (s *S3Store) Save(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", fmt.Errorf("upload proof object: %w", err)
	}
	return objectKey, nil
}

// Load fetches the photo bytes and stored content type back from storage.
func (s *S3Store) Load(ctx context.Context, objectKey string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get proof object: %w", err)
	}
	defer obj.Close()
	stat, err := obj.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("stat proof object: %w", err)
	}
	buf, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("read proof object: %w", err)
	}
	return buf, stat.ContentType, nil
}
