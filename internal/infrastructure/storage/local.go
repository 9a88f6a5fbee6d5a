package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/oksasatya/admin-user-profile/internal/domain/repository"
)

var ErrInvalidName = errors.New("invalid image name")

// LocalImageStore keeps images as plain files under Dir.
type LocalImageStore struct {
	Dir string
}

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &LocalImageStore{Dir: dir}, nil
}

// cleanName rejects anything that is not a bare file name.
func cleanName(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	return name, nil
}

func (s *LocalImageStore) Save(_ context.Context, name, _ string, r io.Reader) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.Dir, name))
}

func (s *LocalImageStore) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, "", repository.ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", repository.ErrNotFound
		}
		return nil, "", err
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return f, ct, nil
}

func (s *LocalImageStore) Delete(_ context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return repository.ErrNotFound
	}
	err = os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return repository.ErrNotFound
	}
	return err
}

var _ repository.ImageStore = (*LocalImageStore)(nil)
