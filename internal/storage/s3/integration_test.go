//go:build integration

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sqlask/sqlask/internal/storage"
)

func TestStoreRoundTripAgainstMinIO(t *testing.T) {
	endpoint := envOr("SQLASK_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("SQLASK_TEST_S3_ENDPOINT is not set")
	}

	cfg := Config{
		Endpoint:         endpoint,
		Region:           envOr("SQLASK_TEST_S3_REGION", "us-east-1"),
		Bucket:           envOr("SQLASK_TEST_S3_BUCKET", "sqlask-it"),
		AccessKeyID:      envOr("SQLASK_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey:  envOr("SQLASK_TEST_S3_SECRET_KEY", "miniostorage"),
		Prefix:           "integration-tests",
		AutoCreateBucket: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key, err := storage.BuildReportPath("integration", 1, time.Now())
	if err != nil {
		t.Fatalf("BuildReportPath() error = %v", err)
	}
	payload := []byte("sqlask-integration")
	if _, err := store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), storage.PutOptions{}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	reader, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	readPayload, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("reader.Close() error = %v", err)
	}
	if !bytes.Equal(readPayload, payload) {
		t.Fatalf("Get() payload = %q, want %q", string(readPayload), string(payload))
	}

	if _, err := store.Get(ctx, "integration/missing.parquet"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrObjectNotFound", err)
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
