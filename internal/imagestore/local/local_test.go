package local

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/glassinv/internal/domain"
	"github.com/vbonduro/glassinv/internal/imagestore"
)

var _ imagestore.ImageStore = (*Store)(nil)

func TestStoreSaveAndGet(t *testing.T) {
	store, err := New(t.TempDir(), slog.Default())
	require.NoError(t, err)
	ctx := context.Background()
	imageData := []byte("fake png data")

	key, err := store.Save(ctx, "glass_item_A3F9K2", "image/png", bytes.NewReader(imageData))
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	reader, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/png", mimeType)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, imageData, data)
}

func TestStoreDelete(t *testing.T) {
	store, err := New(t.TempDir(), slog.Default())
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, "standalone", "image/jpeg", bytes.NewReader([]byte("test data")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
	assert.ErrorIs(t, store.Delete(ctx, key), domain.ErrImageNotFound)
}

func TestStoreNotFound(t *testing.T) {
	store, err := New(t.TempDir(), slog.Default())
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "nonexistent.jpg")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestStorePathTraversal(t *testing.T) {
	store, err := New(t.TempDir(), slog.Default())
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = store.Get(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.NotErrorIs(t, err, domain.ErrImageNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "../outside.jpg"), ErrInvalidKey)
	_, _, err = store.Get(ctx, "nested/key.png")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, _, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestStoreSave_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, slog.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, "standalone", "image/png", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreSave_FailingReaderLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, slog.Default())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "p", "image/jpeg", failingReader{})
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
