package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mischief/pkg/adapters/fs"
	"github.com/aretw0/mischief/pkg/core"
)

func setupContent(t *testing.T) (*fs.ContentStore, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "blobs")
	store := fs.NewContentStore(fs.ContentConfig{Path: dir})
	require.NoError(t, store.Initialize(context.Background()))
	return store, dir
}

func TestContentStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Put Get Delete", func(t *testing.T) {
		store, dir := setupContent(t)
		id := uuid.NewString()

		require.NoError(t, store.Put(ctx, id, []byte{0x01, 0x02, 0x03}))

		info, err := os.Stat(filepath.Join(dir, id+fs.BlobExt))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02, 0x03}, got)

		exists, err := store.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, store.Delete(ctx, id))
		require.NoError(t, store.Delete(ctx, id), "delete is idempotent")

		exists, err = store.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = store.Get(ctx, id)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Rejects Non UUID IDs", func(t *testing.T) {
		store, _ := setupContent(t)

		assert.ErrorIs(t, store.Put(ctx, "../notes", []byte("x")), core.ErrInvalidArgument)
		_, err := store.Get(ctx, "notes")
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})

	t.Run("Detects Swapped Blob", func(t *testing.T) {
		store, dir := setupContent(t)
		a, b := uuid.NewString(), uuid.NewString()
		require.NoError(t, store.Put(ctx, a, []byte("for a")))

		require.NoError(t, os.Rename(filepath.Join(dir, a+fs.BlobExt), filepath.Join(dir, b+fs.BlobExt)))

		_, err := store.Get(ctx, b)
		assert.ErrorIs(t, err, core.ErrDecryption)
	})

	t.Run("Corrupt Blob", func(t *testing.T) {
		store, dir := setupContent(t)
		id := uuid.NewString()
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+fs.BlobExt), []byte{0xff, 0x00}, 0o600))

		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, core.ErrDecryption)
	})

	t.Run("List Skips Foreign Files", func(t *testing.T) {
		store, dir := setupContent(t)
		a, b := uuid.NewString(), uuid.NewString()
		require.NoError(t, store.Put(ctx, a, []byte("a")))
		require.NoError(t, store.Put(ctx, b, []byte("b")))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.blob"), []byte("x"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a, b}, ids)

		state := store.State().(fs.ContentStoreState)
		assert.EqualValues(t, 2, state.Puts)
	})

	t.Run("Read Only", func(t *testing.T) {
		_, dir := setupContent(t)
		store := fs.NewContentStore(fs.ContentConfig{Path: dir, ReadOnly: true})

		assert.ErrorIs(t, store.Put(ctx, uuid.NewString(), []byte("x")), core.ErrReadOnly)
		assert.ErrorIs(t, store.Delete(ctx, uuid.NewString()), core.ErrReadOnly)
	})
}
