package helpers

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrObjectNotFound is returned by OpenObject when the object does not exist.
var ErrObjectNotFound = errors.New("gcs object not found")

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// ObjectAttrs are the attributes written alongside an object.
type ObjectAttrs struct {
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

// WriteObject streams r into bucket/objectPath in a single request. A failed
// read cancels the upload, so no partial object is committed.
func WriteObject(ctx context.Context, client *storage.Client, bucket, objectPath string, attrs ObjectAttrs, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wc := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = attrs.ContentType
	wc.CacheControl = attrs.CacheControl
	wc.Metadata = attrs.Metadata
	wc.ChunkSize = 0
	if _, err := io.Copy(wc, r); err != nil {
		cancel()
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

// OpenObject returns a reader for bucket/objectPath and its stored content type.
func OpenObject(ctx context.Context, client *storage.Client, bucket, objectPath string) (io.ReadCloser, string, error) {
	rc, err := client.Bucket(bucket).Object(objectPath).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", err
	}
	return rc, rc.Attrs.ContentType, nil
}

// DeleteObject removes bucket/objectPath; ErrObjectNotFound when it is absent.
func DeleteObject(ctx context.Context, client *storage.Client, bucket, objectPath string) error {
	err := client.Bucket(bucket).Object(objectPath).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrObjectNotFound
	}
	return err
}
