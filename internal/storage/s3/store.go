// Package s3 keeps archived reports in an S3-compatible bucket through the
// MinIO client. Keys are relative to an optional prefix, so several
// deployments can share one bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sqlask/sqlask/internal/config"
	"github.com/sqlask/sqlask/internal/storage"
)

const reportContentType = "application/vnd.apache.parquet"

type Config struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

// FromConfig maps the archive settings to a store Config.
func FromConfig(archive config.ArchiveConfig) Config {
	return Config{
		Endpoint:         strings.TrimSpace(archive.Endpoint),
		Region:           strings.TrimSpace(archive.Region),
		Bucket:           strings.TrimSpace(archive.Bucket),
		AccessKeyID:      archive.AccessKeyID,
		SecretAccessKey:  archive.SecretAccessKey,
		UseSSL:           archive.UseSSL,
		Prefix:           archive.Prefix,
		AutoCreateBucket: archive.AutoCreateBucket,
	}
}

// object is what the store hands to the bucket client for one upload.
type object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type bucketClient interface {
	PutObject(ctx context.Context, bucket string, obj object) (storage.ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket, region string) error
}

// Store implements storage.ObjectStore for archived reports.
type Store struct {
	client bucketClient
	bucket string
	prefix string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("archive endpoint is required")
	}
	mc, err := dialMinio(cfg)
	if err != nil {
		return nil, err
	}
	store, err := newStore(strings.TrimSpace(cfg.Bucket), cfg.Prefix, mc)
	if err != nil {
		return nil, err
	}
	if cfg.AutoCreateBucket {
		if err := store.ensureBucket(ctx, strings.TrimSpace(cfg.Region)); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func newStore(bucket, prefix string, c bucketClient) (*Store, error) {
	if c == nil {
		return nil, fmt.Errorf("bucket client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	return &Store{client: c, bucket: strings.TrimSpace(bucket), prefix: cleanPrefix(prefix)}, nil
}

// Put uploads one report. The content type defaults to parquet and
// opts.Metadata travels as S3 user metadata.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	contentType := strings.TrimSpace(opts.ContentType)
	if contentType == "" {
		contentType = reportContentType
	}
	info, err := s.client.PutObject(ctx, s.bucket, object{
		Key:         objectKey,
		Body:        body,
		Size:        size,
		ContentType: contentType,
		Metadata:    opts.Metadata,
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload report %q: %w", objectKey, err)
	}
	return info, nil
}

// Get opens a stored report. A missing key or bucket yields
// storage.ErrObjectNotFound.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	reader, err := s.client.GetObject(ctx, s.bucket, objectKey)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return nil, fmt.Errorf("report %q: %w", key, storage.ErrObjectNotFound)
	case err != nil:
		return nil, fmt.Errorf("download report %q: %w", objectKey, err)
	}
	return reader, nil
}

func (s *Store) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, region); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

// objectKey validates a report key and applies the prefix. Keys must stay
// inside the prefix.
func (s *Store) objectKey(key string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", fmt.Errorf("report key is required")
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid report key: %q", key)
	}
	return path.Join(s.prefix, cleaned), nil
}

func cleanPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	if cleaned := path.Clean(prefix); cleaned != "." {
		return cleaned
	}
	return ""
}

func dialMinio(cfg Config) (*minioBucket, error) {
	endpoint, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &minioBucket{client: mc}, nil
}

// parseEndpoint accepts host:port or a URL. An https URL forces TLS.
func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("endpoint is required")
	}
	if !strings.Contains(raw, "://") {
		return raw, useSSL, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint URL: %w", err)
	}
	switch {
	case parsed.Host == "":
		return "", false, fmt.Errorf("endpoint host is required")
	case parsed.Scheme == "https":
		return parsed.Host, true, nil
	case parsed.Scheme == "http":
		return parsed.Host, useSSL, nil
	default:
		return "", false, fmt.Errorf("unsupported endpoint scheme %q", parsed.Scheme)
	}
}

type minioBucket struct {
	client *minio.Client
}

func (m *minioBucket) PutObject(ctx context.Context, bucket string, obj object) (storage.ObjectInfo, error) {
	info, err := m.client.PutObject(ctx, bucket, obj.Key, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: obj.Metadata,
	})
	if err != nil {
		return storage.ObjectInfo{}, translateErr(err)
	}
	return storage.ObjectInfo{Key: info.Key, Size: info.Size, ETag: info.ETag}, nil
}

// GetObject stats before returning, since minio defers errors for a
// missing key to the first read.
func (m *minioBucket) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateErr(err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, translateErr(err)
	}
	return obj, nil
}

func (m *minioBucket) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, translateErr(err)
	}
	return exists, nil
}

func (m *minioBucket) MakeBucket(ctx context.Context, bucket, region string) error {
	return translateErr(m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}))
}

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if code := minio.ToErrorResponse(err).Code; code == "NoSuchKey" || code == "NoSuchBucket" || code == "NotFound" {
		return storage.ErrObjectNotFound
	}
	return err
}
