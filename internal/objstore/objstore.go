package objstore

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the upload target for generated files.
type ObjectStore interface {
	Put(ctx context.Context, bucket, obj string, reader io.Reader, size int64, contentType string, metadata map[string]string) error
	Close() error
}

// New builds the store named by cfg.Kind ("s3" or "gcs").
func New(ctx context.Context, cfg config.Upload) (ObjectStore, error) {
	switch cfg.Kind {
	case "s3", "minio":
		return newMinio(ctx, cfg)
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return NewGCSObjStore(client), nil
	}
	return nil, fmt.Errorf("unsupported upload kind: %s", cfg.Kind)
}

type MinioObjStore struct {
	client *minio.Client
}

func NewMinioObjStore(client *minio.Client) *MinioObjStore {
	return &MinioObjStore{client: client}
}

func newMinio(ctx context.Context, cfg config.Upload) (*MinioObjStore, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	accessEnv, secretEnv := cfg.AccessKeyEnv, cfg.SecretKeyEnv
	if accessEnv == "" {
		accessEnv = "AWS_ACCESS_KEY_ID"
	}
	if secretEnv == "" {
		secretEnv = "AWS_SECRET_ACCESS_KEY"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv(accessEnv), os.Getenv(secretEnv), ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	if err := ensureBucketExists(ctx, client, cfg.Bucket); err != nil {
		return nil, err
	}
	return NewMinioObjStore(client), nil
}

func ensureBucketExists(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (s *MinioObjStore) Put(ctx context.Context, bucket, obj string, reader io.Reader, size int64, contentType string, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, bucket, obj, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	return err
}

func (s *MinioObjStore) Close() error { return nil }

type GCSObjStore struct {
	client *storage.Client
}

func NewGCSObjStore(client *storage.Client) *GCSObjStore {
	return &GCSObjStore{client: client}
}

// Put streams reader into gs://bucket/obj. size is unused; GCS sizes the
// object from the stream.
func (s *GCSObjStore) Put(ctx context.Context, bucket, obj string, reader io.Reader, size int64, contentType string, metadata map[string]string) error {
	w := s.client.Bucket(bucket).Object(obj).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata

	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

func (s *GCSObjStore) Close() error { return s.client.Close() }
