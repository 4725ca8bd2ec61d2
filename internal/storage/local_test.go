package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	name := BatchObjectName("b1")
	res, err := store.UploadFile(ctx, strings.NewReader("zip-bytes"), name, "application/zip")
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.Size)
	assert.Equal(t, name, res.ObjectName)

	rc, err := store.ReadFile(ctx, name)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "zip-bytes", string(data))

	require.NoError(t, store.DeleteFile(ctx, name))
	_, err = store.ReadFile(ctx, name)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteFile(ctx, name), ErrNotFound)
}

func TestLocalStoreStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "objects"))
	require.NoError(t, err)

	_, err = store.UploadFile(context.Background(), strings.NewReader("x"), "../../escape.txt", "")
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(root, "objects", "escape.txt"))
	assert.NoError(t, statErr)

	_, err = store.UploadFile(context.Background(), strings.NewReader("x"), "", "")
	assert.Error(t, err)
}

func TestLocalStoreRemoveOlderThan(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.UploadFile(ctx, strings.NewReader("old"), "batches/old/bundle.zip", "")
	require.NoError(t, err)
	_, err = store.UploadFile(ctx, strings.NewReader("new"), "batches/new/bundle.zip", "")
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Root(), "batches", "old", "bundle.zip"), past, past))

	removed, err := store.RemoveOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	rc, err := store.ReadFile(ctx, "batches/new/bundle.zip")
	require.NoError(t, err)
	rc.Close()
}

func TestTemplateObjectName(t *testing.T) {
	name := TemplateObjectName("t1", "raw", "label.svg")
	assert.True(t, strings.HasPrefix(name, "templates/t1/raw/"))
	assert.True(t, strings.HasSuffix(name, "_label.svg"))
}

func TestObjectKind(t *testing.T) {
	assert.Equal(t, KindTemplate, ObjectKind(TemplateObjectName("t1", "sanitized", "a.svg")))
	assert.Equal(t, KindBatch, ObjectKind(BatchObjectName("b1")))
	assert.Equal(t, KindOther, ObjectKind("misc/readme.txt"))
}
