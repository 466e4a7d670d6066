package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectStoreDisabled is returned for s3:// URLs when no store is set.
var ErrObjectStoreDisabled = errors.New("document: s3 source not configured")

// ObjectStore serves documents addressed as s3://bucket/key.
type ObjectStore interface {
	ContentType(ctx context.Context, bucket, key string) (string, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// S3Config configures an S3-compatible document source.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Store reads documents from an S3-compatible object store.
type S3Store struct {
	client *minio.Client
}

// NewS3Store connects to cfg.Endpoint with static credentials.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client}, nil
}

func (s *S3Store) ContentType(ctx context.Context, bucket, key string) (string, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return "", err
	}
	return info.ContentType, nil
}

func (s *S3Store) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces NoSuchKey before the copy starts.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if code := minio.ToErrorResponse(err).Code; code == "NoSuchKey" || code == "NoSuchBucket" {
			return nil, fmt.Errorf("%s/%s: %s", bucket, key, code)
		}
		return nil, err
	}
	return obj, nil
}

// fetchObject validates and downloads an s3:// URL: a ".pdf" key is
// accepted, otherwise the stored content type decides. A failed stat counts
// as valid, matching the HTTP rules.
func (f *Fetcher) fetchObject(ctx context.Context, rawURL string, u *url.URL) (*DocumentSource, error) {
	if f.objects == nil {
		return nil, &DownloadError{URL: rawURL, Err: ErrObjectStoreDisabled}
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, &DownloadError{URL: rawURL, Err: errors.New("s3 url must be s3://bucket/key")}
	}
	if !hasPDFExt(key) {
		ct, err := f.objects.ContentType(ctx, bucket, key)
		if err == nil && !strings.Contains(strings.ToLower(ct), "application/pdf") {
			return nil, ErrNotDocument
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.downloadTimeout)
	defer cancel()
	rc, err := f.objects.Open(ctx, bucket, key)
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	defer rc.Close()
	return f.store(rawURL, rc)
}
