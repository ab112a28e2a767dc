package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/edoto/marketplace/internal/config"
)

var (
	ErrDriverUnknown = errors.New("storage driver unknown")
	ErrPutFailed     = errors.New("storage put failed")
)

// BlobStore persists generated files and returns a public URL for each.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

// New builds a BlobStore from configuration.
func New(cfg config.StorageConfig) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "fs":
		return NewFSStore(cfg.BaseDir, cfg.BaseURL)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrDriverUnknown, cfg.Driver)
	}
}
