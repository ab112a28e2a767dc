package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStore writes blobs under a local base directory. Used for development
// and for single-node deployments without object storage.
type FSStore struct {
	baseDir string
	baseURL string
}

// NewFSStore creates the store and ensures the base directory exists.
func NewFSStore(baseDir, baseURL string) (*FSStore, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = "storage"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPutFailed, err)
	}
	return &FSStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}, nil
}

// Put writes the blob to disk and returns its URL.
func (s *FSStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrPutFailed)
	}

	target := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPutFailed, err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPutFailed, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPutFailed, err)
	}

	if s.baseURL == "" {
		return "/" + key, nil
	}
	return s.baseURL + "/" + key, nil
}
