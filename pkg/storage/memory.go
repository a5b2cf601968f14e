package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

// Memory is an in-process Bucket used in tests and for dry runs. PutErr and
// RemoveErr, when set, are returned instead of performing the operation.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string

	PutErr    error
	RemoveErr error
	Puts      int
	Removes   int
}

func NewMemory(baseURL string) *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func memoryKey(bucket, name string) string {
	return bucket + "/" + name
}

func (m *Memory) Put(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	if _, ok := m.objects[memoryKey(bucket, name)]; ok {
		return ErrObjectExists
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	m.objects[memoryKey(bucket, name)] = buf.Bytes()
	return nil
}

func (m *Memory) Remove(ctx context.Context, bucket, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Removes++
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	if _, ok := m.objects[memoryKey(bucket, name)]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, memoryKey(bucket, name))
	return nil
}

func (m *Memory) Exists(ctx context.Context, bucket, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[memoryKey(bucket, name)]
	return ok, nil
}

func (m *Memory) PublicURL(bucket, name string) (string, error) {
	return m.baseURL + "/" + bucket + "/" + name, nil
}

// Objects returns the stored object names of a bucket
func (m *Memory) Objects(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	prefix := bucket + "/"
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			names = append(names, strings.TrimPrefix(key, prefix))
		}
	}
	return names
}
