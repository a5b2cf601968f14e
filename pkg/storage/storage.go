// Package storage stores entity images in named buckets and resolves their
// public URLs.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrObjectExists     = errors.New("object already exists")
	ErrObjectNotFound   = errors.New("object not found")
	ErrQuotaExceeded    = errors.New("storage quota exceeded")
	ErrPermissionDenied = errors.New("storage permission denied")
	ErrInvalidName      = errors.New("invalid object name")
)

// Bucket is an object store organized in named buckets. Put never
// overwrites: an existing object yields ErrObjectExists.
type Bucket interface {
	Put(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, bucket, name string) error
	Exists(ctx context.Context, bucket, name string) (bool, error)
	PublicURL(bucket, name string) (string, error)
}
