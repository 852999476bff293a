// Package storage defines the object store the report archive writes to.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

type PutOptions struct {
	ContentType string
	// Metadata is stored alongside the object, for example as S3 user
	// metadata.
	Metadata map[string]string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
