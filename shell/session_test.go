package shell

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testResolver confines working directories to a fixed root with a plain
// prefix check, enough to stand in for the filesystem service.
type testResolver struct {
	root string
}

func (r *testResolver) Root() string { return r.root }

func (r *testResolver) ResolveAbsolute(path string) (string, error) {
	abs := filepath.Clean(filepath.Join(r.root, path))
	if abs != r.root && !strings.HasPrefix(abs, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside the root directory: %s", path)
	}
	return abs, nil
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(&testResolver{root: t.TempDir()}, nil)
	t.Cleanup(m.KillAll)
	return m
}

func TestRing(t *testing.T) {
	t.Run("write then drain", func(t *testing.T) {
		r := newRing(16)
		r.Write([]byte("hello"))
		assert.Equal(t, []byte("hello"), r.drain())
	})

	t.Run("drain resets", func(t *testing.T) {
		r := newRing(16)
		r.Write([]byte("one"))
		r.drain()
		assert.Empty(t, r.drain())
		r.Write([]byte("two"))
		assert.Equal(t, []byte("two"), r.drain())
	})

	t.Run("overflow keeps the newest bytes", func(t *testing.T) {
		r := newRing(4)
		r.Write([]byte("abcdef"))
		assert.Equal(t, []byte("cdef"), r.drain())
	})

	t.Run("exact capacity", func(t *testing.T) {
		r := newRing(4)
		r.Write([]byte("wxyz"))
		assert.Equal(t, []byte("wxyz"), r.drain())
	})
}

func TestManagerLifecycle(t *testing.T) {
	m := newTestManager(t)

	info, err := m.Open("/bin/sh", "", 100, 30, map[string]string{"SESSION_TEST": "yes"})
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "/bin/sh", info.Shell)
	assert.Equal(t, 100, info.Cols)
	assert.Equal(t, 30, info.Rows)
	assert.True(t, info.Active)

	t.Run("echo round trip", func(t *testing.T) {
		require.NoError(t, m.Write(info.ID, []byte("echo marker-$SESSION_TEST\n")))

		var output []byte
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			chunk, err := m.Read(info.ID)
			require.NoError(t, err)
			output = append(output, chunk...)
			if bytes.Contains(output, []byte("marker-yes")) {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		assert.Contains(t, string(output), "marker-yes")
	})

	t.Run("resize", func(t *testing.T) {
		require.NoError(t, m.Resize(info.ID, 120, 40))
		got, err := m.Get(info.ID)
		require.NoError(t, err)
		assert.Equal(t, 120, got.Cols)
		assert.Equal(t, 40, got.Rows)
	})

	t.Run("list includes the session", func(t *testing.T) {
		sessions := m.List()
		require.Len(t, sessions, 1)
		assert.Equal(t, info.ID, sessions[0].ID)
	})

	t.Run("kill removes the session", func(t *testing.T) {
		require.NoError(t, m.Kill(info.ID))
		_, err := m.Get(info.ID)
		assert.ErrorContains(t, err, "session not found")

		// Killing again is a no-op.
		require.NoError(t, m.Kill(info.ID))
	})
}

func TestManagerValidation(t *testing.T) {
	m := newTestManager(t)

	t.Run("escaping working directory is rejected", func(t *testing.T) {
		_, err := m.Open("/bin/sh", "../outside", 0, 0, nil)
		assert.ErrorContains(t, err, "outside the root")
	})

	t.Run("unknown session", func(t *testing.T) {
		assert.ErrorContains(t, m.Write("nope", []byte("x")), "session not found")
		_, err := m.Read("nope")
		assert.ErrorContains(t, err, "session not found")
		assert.ErrorContains(t, m.Resize("nope", 80, 24), "session not found")
	})

	t.Run("defaults applied", func(t *testing.T) {
		info, err := m.Open("", "", 0, 0, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, info.Shell)
		assert.Equal(t, 80, info.Cols)
		assert.Equal(t, 24, info.Rows)
		assert.Equal(t, m.resolver.Root(), info.WorkingDir)
	})
}

func TestProviderExecute(t *testing.T) {
	p := NewProvider(&testResolver{root: t.TempDir()}, nil)
	t.Cleanup(p.Close)

	def := p.Definition()
	assert.Equal(t, "shell", def.ID)
	assert.NotEmpty(t, def.Tools)

	result, err := p.Execute(t.Context(), "shell.open", map[string]interface{}{
		"shell": "/bin/sh",
	}, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	sessionID := result.Data["id"].(string)
	require.NotEmpty(t, sessionID)

	result, err = p.Execute(t.Context(), "shell.list", nil, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Data["count"])

	result, err = p.Execute(t.Context(), "shell.write", map[string]interface{}{
		"session_id": sessionID, "input": "echo ok\n",
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	result, err = p.Execute(t.Context(), "shell.kill", map[string]interface{}{
		"session_id": sessionID,
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	result, err = p.Execute(t.Context(), "shell.read", map[string]interface{}{
		"session_id": sessionID,
	}, nil)
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Contains(t, *result.Error, "session not found")

	result, err = p.Execute(t.Context(), "shell.bogus", nil, nil)
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Contains(t, *result.Error, "unknown tool")
}
