package storage

import (
	"context"
	"errors"
	"io"
	"path"

	gcs "cloud.google.com/go/storage"

	"github.com/oksasatya/admin-user-profile/internal/domain/repository"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
)

// GCSImageStore keeps images in a bucket under users/.
type GCSImageStore struct {
	Client *gcs.Client
	Bucket string
}

func NewGCSImageStore(client *gcs.Client, bucket string) (*GCSImageStore, error) {
	if client == nil || bucket == "" {
		return nil, errors.New("gcs not configured")
	}
	return &GCSImageStore{Client: client, Bucket: bucket}, nil
}

func objectPath(name string) string {
	return path.Join("users", name)
}

// Image names are uuid-based and never rewritten, so they cache for a long time.
const imageCacheControl = "public, max-age=31536000, immutable"

func (s *GCSImageStore) Save(ctx context.Context, name, contentType string, r io.Reader) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return helpers.WriteObject(ctx, s.Client, s.Bucket, objectPath(name), helpers.ObjectAttrs{
		ContentType:  contentType,
		CacheControl: imageCacheControl,
	}, r)
}

func (s *GCSImageStore) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, "", repository.ErrNotFound
	}
	rc, ct, err := helpers.OpenObject(ctx, s.Client, s.Bucket, objectPath(name))
	if errors.Is(err, helpers.ErrObjectNotFound) {
		return nil, "", repository.ErrNotFound
	}
	return rc, ct, err
}

func (s *GCSImageStore) Delete(ctx context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return repository.ErrNotFound
	}
	err = helpers.DeleteObject(ctx, s.Client, s.Bucket, objectPath(name))
	if errors.Is(err, helpers.ErrObjectNotFound) {
		return repository.ErrNotFound
	}
	return err
}

var _ repository.ImageStore = (*GCSImageStore)(nil)
