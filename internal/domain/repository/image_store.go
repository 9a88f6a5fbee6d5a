package repository

import (
	"context"
	"io"
)

// ImageStore persists profile images by object name.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) error
	// Open returns ErrNotFound when the image does not exist.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	// Delete returns ErrNotFound when the image does not exist.
	Delete(ctx context.Context, name string) error
}
