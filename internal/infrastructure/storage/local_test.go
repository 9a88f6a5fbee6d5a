package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/admin-user-profile/internal/domain/repository"
)

func TestLocalImageStore_SaveAndOpen(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "avatar.png", "image/png", strings.NewReader("png-bytes")))

	rc, ct, err := store.Open(ctx, "avatar.png")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, "image/png", ct)
}

func TestLocalImageStore_OpenMissing(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Open(context.Background(), "nope.jpg")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLocalImageStore_Delete(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old.png", "image/png", strings.NewReader("png-bytes")))
	require.NoError(t, store.Delete(ctx, "old.png"))

	_, _, err = store.Open(ctx, "old.png")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "old.png"), repository.ErrNotFound)
}

func TestLocalImageStore_RejectsPaths(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "..", "../etc/passwd", "a/b.png", `a\b.png`} {
		t.Run(name, func(t *testing.T) {
			err := store.Save(ctx, name, "image/png", strings.NewReader("x"))
			assert.ErrorIs(t, err, ErrInvalidName)

			_, _, err = store.Open(ctx, name)
			assert.ErrorIs(t, err, repository.ErrNotFound)
			assert.ErrorIs(t, store.Delete(ctx, name), repository.ErrNotFound)
		})
	}
}
