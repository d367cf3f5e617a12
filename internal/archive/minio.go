package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ironsheep/gauge-reader/internal/config"
	"github.com/ironsheep/gauge-reader/internal/gauge"
)

// ObjectStore is the part of the S3 API the archive needs.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
}

// Minio archives captures as objects in a bucket.
type Minio struct {
	Store     ObjectStore
	Bucket    string
	KeyPrefix string
	Prefix    string
	Quality   int
}

// Archive implements Archiver and returns an s3:// location.
func (m Minio) Archive(ctx context.Context, r gauge.Reading) (string, error) {
	data, err := encode(r, m.Quality)
	if err != nil {
		return "", err
	}
	key := path.Join(m.KeyPrefix, r.CapturedAt.Format("2006/01/02"), Name(m.Prefix, r))
	if err := m.Store.PutObject(ctx, m.Bucket, key, data, "image/jpeg"); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return "s3://" + m.Bucket + "/" + key, nil
}

// S3Client is an ObjectStore backed by minio-go.
type S3Client struct {
	client *minio.Client
}

// NewS3Client connects to the endpoint in cfg. The endpoint may be a bare
// host:port or a URL; an https scheme turns TLS on.
func NewS3Client(cfg config.MinioConfig) (*S3Client, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &S3Client{client: client}, nil
}

// EnsureBucket creates bucket when it does not exist.
func (s *S3Client) EnsureBucket(ctx context.Context, bucket, region string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// PutObject implements ObjectStore.
func (s *S3Client) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}
