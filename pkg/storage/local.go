package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Local stores objects as files under root/<bucket>/<name>. The HTTP server
// exposes root at baseURL.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates the root directory if needed
func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory holding every bucket
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(bucket, name string) (string, error) {
	if bucket == "" || name == "" || filepath.Base(name) != name || filepath.Base(bucket) != bucket ||
		name == "." || name == ".." || bucket == "." || bucket == ".." {
		return "", ErrInvalidName
	}
	return filepath.Join(l.root, bucket, name), nil
}

func (l *Local) Put(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := l.path(bucket, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return classifyFSError(err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return classifyFSError(err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(target)
		return classifyFSError(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return classifyFSError(err)
	}
	return nil
}

func (l *Local) Remove(ctx context.Context, bucket, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := l.path(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		return classifyFSError(err)
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, bucket, name string) (bool, error) {
	target, err := l.path(bucket, name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, classifyFSError(err)
	}
	return true, nil
}

func (l *Local) PublicURL(bucket, name string) (string, error) {
	if _, err := l.path(bucket, name); err != nil {
		return "", err
	}
	if l.baseURL == "" {
		return "", errors.New("local storage has no public base URL")
	}
	return l.baseURL + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(name), nil
}

func classifyFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %v", ErrObjectExists, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case errors.Is(err, syscall.ENOSPC), errors.Is(err, syscall.EDQUOT):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	default:
		return err
	}
}
