// Package storage keeps the binary payload of product images. Rows in
// image_products only carry the filename under which the payload is stored.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"shop-catalog/internal/config"
)

var ErrInvalidName = errors.New("invalid object name")

// ImageStore persists image payloads by filename
type ImageStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// New returns the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// checkName rejects anything that is not a bare file name
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
