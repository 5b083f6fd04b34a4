package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRename(t *testing.T) {
	svc := newTestService(t)

	t.Run("moves a file", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("old.txt", "data"))
		require.NoError(t, svc.Rename("old.txt", "new.txt"))
		assert.False(t, svc.Exists("old.txt"))
		content, err := svc.ReadFile("new.txt")
		require.NoError(t, err)
		assert.Equal(t, "data", content)
	})

	t.Run("creates the destination parent", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("top.txt", "x"))
		require.NoError(t, svc.Rename("top.txt", "nested/dir/moved.txt"))
		assert.True(t, svc.Exists("nested/dir/moved.txt"))
	})

	t.Run("missing source fails", func(t *testing.T) {
		assert.ErrorIs(t, svc.Rename("absent.txt", "dst.txt"), ErrNotFound)
	})

	t.Run("existing destination fails", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("src.txt", "a"))
		require.NoError(t, svc.WriteFile("dst.txt", "b"))
		assert.ErrorIs(t, svc.Rename("src.txt", "dst.txt"), ErrAlreadyExists)
		content, err := svc.ReadFile("dst.txt")
		require.NoError(t, err)
		assert.Equal(t, "b", content)
	})
}

func TestCopy(t *testing.T) {
	svc := newTestService(t)

	t.Run("copies a file", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("orig.txt", "payload"))
		require.NoError(t, svc.Copy("orig.txt", "dup.txt", CopyOptions{}))
		content, err := svc.ReadFile("dup.txt")
		require.NoError(t, err)
		assert.Equal(t, "payload", content)
		assert.True(t, svc.Exists("orig.txt"))
	})

	t.Run("copies a directory tree", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("tree/a.txt", "a"))
		require.NoError(t, svc.WriteFile("tree/sub/b.txt", "b"))
		require.NoError(t, svc.Copy("tree", "tree2", CopyOptions{}))
		content, err := svc.ReadFile("tree2/sub/b.txt")
		require.NoError(t, err)
		assert.Equal(t, "b", content)
	})

	t.Run("missing source fails", func(t *testing.T) {
		assert.ErrorIs(t, svc.Copy("ghost", "dst", CopyOptions{}), ErrNotFound)
	})

	t.Run("existing destination needs overwrite", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("s.txt", "new"))
		require.NoError(t, svc.WriteFile("d.txt", "old"))
		assert.ErrorIs(t, svc.Copy("s.txt", "d.txt", CopyOptions{}), ErrAlreadyExists)

		require.NoError(t, svc.Copy("s.txt", "d.txt", CopyOptions{Overwrite: true}))
		content, err := svc.ReadFile("d.txt")
		require.NoError(t, err)
		assert.Equal(t, "new", content)
	})

	t.Run("self copy is rejected and the source survives", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("data/keep.txt", "precious"))
		assert.ErrorIs(t, svc.Copy("data", "data", CopyOptions{Overwrite: true}), ErrOverlap)
		content, err := svc.ReadFile("data/keep.txt")
		require.NoError(t, err)
		assert.Equal(t, "precious", content)
	})

	t.Run("copy into own subtree is rejected", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("a/keep.txt", "x"))
		assert.ErrorIs(t, svc.Copy("a", "a/b", CopyOptions{}), ErrOverlap)
		assert.False(t, svc.Exists("a/b"))
	})

	t.Run("copy onto an ancestor is rejected and the source survives", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("outer/inner/keep.txt", "x"))
		assert.ErrorIs(t, svc.Copy("outer/inner", "outer", CopyOptions{Overwrite: true}), ErrOverlap)
		assert.True(t, svc.Exists("outer/inner/keep.txt"))
	})

	t.Run("sibling sharing a name prefix is not an overlap", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("pre/f.txt", "x"))
		require.NoError(t, svc.Copy("pre", "prefix", CopyOptions{}))
		assert.True(t, svc.Exists("prefix/f.txt"))
	})

	t.Run("overwrite replaces a directory destination", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("from/x.txt", "x"))
		require.NoError(t, svc.WriteFile("into/stale.txt", "stale"))
		require.NoError(t, svc.Copy("from", "into", CopyOptions{Overwrite: true}))
		assert.False(t, svc.Exists("into/stale.txt"))
		assert.True(t, svc.Exists("into/x.txt"))
	})
}

func TestChmod(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.WriteFile("perm.txt", "x"))

	require.NoError(t, svc.Chmod("perm.txt", 0o600))
	info, err := os.Stat(filepath.Join(svc.Root(), "perm.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.ErrorIs(t, svc.Chmod("missing.txt", 0o600), ErrNotFound)
}
