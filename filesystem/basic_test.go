package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadFile(t *testing.T) {
	svc := newTestService(t)

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("note.txt", "hello"))
		content, err := svc.ReadFile("note.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello", content)
	})

	t.Run("write creates missing parents", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("a/b/c.txt", "deep"))
		content, err := svc.ReadFile("a/b/c.txt")
		require.NoError(t, err)
		assert.Equal(t, "deep", content)
	})

	t.Run("write overwrites", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("note.txt", "v2"))
		content, err := svc.ReadFile("note.txt")
		require.NoError(t, err)
		assert.Equal(t, "v2", content)
	})

	t.Run("read missing file", func(t *testing.T) {
		_, err := svc.ReadFile("missing.txt")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("read directory", func(t *testing.T) {
		_, err := svc.ReadFile("a")
		assert.ErrorIs(t, err, ErrNotAFile)
	})

	t.Run("write outside root", func(t *testing.T) {
		err := svc.WriteFile("../escape.txt", "x")
		assert.ErrorIs(t, err, ErrOutsideRoot)
	})
}

func TestDeleteFile(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.WriteFile("gone.txt", "x"))
	require.NoError(t, svc.CreateDirectory("dir", true))

	require.NoError(t, svc.DeleteFile("gone.txt"))
	assert.False(t, svc.Exists("gone.txt"))

	assert.ErrorIs(t, svc.DeleteFile("gone.txt"), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteFile("dir"), ErrNotAFile)
}

func TestExists(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.WriteFile("here.txt", "x"))

	assert.True(t, svc.Exists("here.txt"))
	assert.True(t, svc.Exists("."))
	assert.False(t, svc.Exists("missing.txt"))

	// Containment violations degrade to false rather than failing.
	assert.False(t, svc.Exists("../anything"))
	assert.False(t, svc.Exists("/etc/passwd"))
}

func TestCreateDirectory(t *testing.T) {
	svc := newTestService(t)

	t.Run("recursive creates the chain", func(t *testing.T) {
		require.NoError(t, svc.CreateDirectory("x/y/z", true))
		info, err := os.Stat(filepath.Join(svc.Root(), "x", "y", "z"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing directory is idempotent", func(t *testing.T) {
		require.NoError(t, svc.CreateDirectory("x/y/z", true))
		require.NoError(t, svc.CreateDirectory("x/y/z", false))
	})

	t.Run("existing file fails", func(t *testing.T) {
		require.NoError(t, svc.WriteFile("taken.txt", "x"))
		assert.ErrorIs(t, svc.CreateDirectory("taken.txt", true), ErrNotADirectory)
	})

	t.Run("non-recursive with missing parent fails", func(t *testing.T) {
		assert.ErrorIs(t, svc.CreateDirectory("no/parent/here", false), ErrParentMissing)
	})

	t.Run("non-recursive with existing parent succeeds", func(t *testing.T) {
		require.NoError(t, svc.CreateDirectory("x/w", false))
	})
}
