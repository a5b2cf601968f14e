package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures an S3-compatible object store
type S3Options struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Region        string
	UseSSL        bool
	PublicBaseURL string
}

// S3 stores objects in an S3-compatible service through minio-go
type S3 struct {
	client        *minio.Client
	publicBaseURL string
}

// NewS3 creates the client; no request is made until the first operation
func NewS3(opts S3Options) (*S3, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &S3{client: client, publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/")}, nil
}

func (s *S3) Put(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error {
	exists, err := s.Exists(ctx, bucket, name)
	if err != nil {
		return err
	}
	if exists {
		return ErrObjectExists
	}

	// the precondition closes the race with a concurrent writer after the stat
	opts := minio.PutObjectOptions{ContentType: contentType}
	opts.SetMatchETagExcept("*")
	if _, err := s.client.PutObject(ctx, bucket, name, body, size, opts); err != nil {
		return classifyS3Error(err)
	}
	return nil
}

func (s *S3) Remove(ctx context.Context, bucket, name string) error {
	if err := s.client.RemoveObject(ctx, bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return classifyS3Error(err)
	}
	return nil
}

func (s *S3) Exists(ctx context.Context, bucket, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, name, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if errors.Is(classifyS3Error(err), ErrObjectNotFound) {
		return false, nil
	}
	return false, classifyS3Error(err)
}

func (s *S3) PublicURL(bucket, name string) (string, error) {
	base := s.publicBaseURL
	if base == "" {
		endpoint := s.client.EndpointURL()
		if endpoint == nil {
			return "", errors.New("S3 client has no endpoint URL")
		}
		base = strings.TrimRight(endpoint.String(), "/")
	}
	return base + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(name), nil
}

func classifyS3Error(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case resp.Code == "PreconditionFailed":
		return fmt.Errorf("%w: %v", ErrObjectExists, err)
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case resp.Code == "QuotaExceeded" || resp.Code == "XMinioAdminBucketQuotaExceeded" ||
		resp.StatusCode == http.StatusInsufficientStorage:
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	default:
		return err
	}
}
