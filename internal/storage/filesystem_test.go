package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "plategate/pkg/errors"
)

func TestFilesystemStore_PutCreatesAreaDirectories(t *testing.T) {
	root := t.TempDir()
	store := NewFilesystemStore(root, false)

	loc, err := store.Put(context.Background(), AreaImages, "plate.jpg", []byte{0xFF, 0xD8})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "images", "lpr_images", "plate.jpg"), loc)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, got)

	loc, err = store.Put(context.Background(), AreaEventLogs, "1700000000000.xml", []byte("<x/>"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "xml", "lpr_logs", "1700000000000.xml"), loc)
}

func TestFilesystemStore_SameNameOverwrites(t *testing.T) {
	store := NewFilesystemStore(t.TempDir(), false)

	_, err := store.Put(context.Background(), AreaImages, "p.jpg", []byte("first-longer"))
	require.NoError(t, err)
	loc, err := store.Put(context.Background(), AreaImages, "p.jpg", []byte("second"))
	require.NoError(t, err)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

// Traversal through a crafted filename is possible while sanitization is off.
// The test confines the escape to a temp directory.
func TestFilesystemStore_TraversalWithoutSanitize(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "data")
	store := NewFilesystemStore(root, false)

	loc, err := store.Put(context.Background(), AreaImages, "../../../escaped.jpg", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "escaped.jpg"), loc)
	assert.FileExists(t, filepath.Join(base, "escaped.jpg"))
}

func TestFilesystemStore_SanitizeRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	store := NewFilesystemStore(filepath.Join(base, "data"), true)

	for _, name := range []string{"../../../escaped.jpg", "sub/dir.jpg", "..", "."} {
		_, err := store.Put(context.Background(), AreaImages, name, []byte("x"))
		assert.True(t, pkgerrors.IsStorage(err), "name %q", name)
	}
	assert.NoFileExists(t, filepath.Join(base, "escaped.jpg"))

	_, err := store.Put(context.Background(), AreaImages, "ok.jpg", []byte("x"))
	assert.NoError(t, err)
}

func TestFilesystemStore_CanceledContext(t *testing.T) {
	store := NewFilesystemStore(t.TempDir(), false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, AreaImages, "p.jpg", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilesystemStore_Check(t *testing.T) {
	store := NewFilesystemStore(t.TempDir(), false)
	assert.NoError(t, store.Check(context.Background()))
	assert.Equal(t, "storage", store.Name())
}

func TestEventLogName(t *testing.T) {
	ts := time.UnixMilli(1710726067123)
	assert.Equal(t, "1710726067123.xml", EventLogName(ts))
}
