package review

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Tencent/WeKnora/internal/config"
	apperrors "github.com/Tencent/WeKnora/internal/errors"
)

// BlobStore is the narrow file-storage boundary §1.1 describes: uploaded
// contract bytes go in under a key, come back out by the path Put returned.
// NewBlobStore selects its backend: local disk (the default) or MinIO.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) (path string, err error)
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// NewBlobStore builds the configured BlobStore backend.
func NewBlobStore(cfg config.Storage) (BlobStore, error) {
	switch cfg.Backend {
	case "", "local":
		return newLocalBlobStore(cfg.LocalDir)
	case "minio":
		return newMinioBlobStore(cfg.Minio)
	default:
		return nil, apperrors.NewConfigError("unknown storage backend %q", cfg.Backend)
	}
}

type localBlobStore struct {
	baseDir string
}

func newLocalBlobStore(baseDir string) (*localBlobStore, error) {
	if baseDir == "" {
		baseDir = "./data/contracts"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, apperrors.NewConfigError("create local blob store dir %q: %v", baseDir, err)
	}
	return &localBlobStore{baseDir: baseDir}, nil
}

func (s *localBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	path := filepath.Join(s.baseDir, filepath.Clean("/"+key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", apperrors.NewInternalServerError(err, "create blob directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewInternalServerError(err, "create blob %q", key)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", apperrors.NewInternalServerError(err, "write blob %q", key)
	}
	return path, nil
}

func (s *localBlobStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(apperrors.KindDocumentNotFound, "blob %q not found", path)
	}
	return f, nil
}

func (s *localBlobStore) Delete(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperrors.NewInternalServerError(err, "delete blob %q", path)
	}
	return nil
}

// minioBlobStore is grounded in the teacher's system.go MinIO client usage:
// one bucket, keys addressed by object name, created lazily on first use.
type minioBlobStore struct {
	client *minio.Client
	bucket string
}

func newMinioBlobStore(cfg config.MinioConfig) (*minioBlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, apperrors.NewConfigError("create minio client: %v", err)
	}
	return &minioBlobStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *minioBlobStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "check minio bucket")
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "create minio bucket")
		}
	}
	return nil
}

func (s *minioBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", apperrors.NewInternalServerError(err, "put minio object %q", key)
	}
	return key, nil
}

func (s *minioBlobStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.NewNotFoundError(apperrors.KindDocumentNotFound, "blob %q not found", path)
	}
	return obj, nil
}

func (s *minioBlobStore) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return apperrors.NewInternalServerError(err, "delete minio object %q", path)
	}
	return nil
}
