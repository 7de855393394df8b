package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidDestination is returned for a destination that names no object.
var ErrInvalidDestination = errors.New("report: invalid destination")

// Store is the interface for report storage backends.
type Store interface {
	// Put stores r under name and returns where it ended up.
	Put(ctx context.Context, name, contentType string, r io.Reader) (location string, err error)
}

// DiskStore stores reports in a local directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir. The directory is
// created on first Put.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Put writes r to dir/name.
func (s *DiskStore) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Write stores data at dest, a local path or an s3:// URL, and returns the
// final location.
func Write(ctx context.Context, dest string, data []byte) (string, error) {
	store, name, err := Open(dest)
	if err != nil {
		return "", err
	}
	return store.Put(ctx, name, "application/json", bytes.NewReader(data))
}

// Open resolves dest to a store and an object name within it.
func Open(dest string) (Store, string, error) {
	if dest == "" {
		return nil, "", fmt.Errorf("%w: empty", ErrInvalidDestination)
	}
	if !strings.HasPrefix(dest, "s3://") {
		dir, name := filepath.Split(dest)
		if name == "" {
			name = generateName()
		}
		if dir == "" {
			dir = "."
		}
		return NewDiskStore(dir), name, nil
	}

	u, err := url.Parse(dest)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDestination, err)
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("%w: %q has no bucket", ErrInvalidDestination, dest)
	}
	key := strings.TrimPrefix(u.Path, "/")
	prefix, name := "", key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		prefix, name = key[:i+1], key[i+1:]
	}
	if name == "" {
		name = generateName()
	}

	client, err := NewS3ClientFromEnv()
	if err != nil {
		return nil, "", err
	}
	return NewS3Store(client, u.Host, prefix), name, nil
}

func generateName() string {
	return "bench-" + uuid.NewString() + ".json"
}
