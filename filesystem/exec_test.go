package filesystem

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("successful command", func(t *testing.T) {
		result, err := svc.Run(ctx, "echo hello", RunOptions{})
		require.NoError(t, err)
		assert.True(t, result.OK)
		assert.Equal(t, 0, result.ExitCode)
		assert.Equal(t, "hello", result.Stdout)
		assert.Empty(t, result.Error)
	})

	t.Run("non-zero exit is a result, not an error", func(t *testing.T) {
		result, err := svc.Run(ctx, "exit 3", RunOptions{})
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Equal(t, 3, result.ExitCode)
		assert.NotEmpty(t, result.Error)
	})

	t.Run("stderr is captured separately", func(t *testing.T) {
		result, err := svc.RunArgv(ctx, []string{"sh", "-c", "echo out; echo err >&2"}, RunOptions{})
		require.NoError(t, err)
		assert.Equal(t, "out", result.Stdout)
		assert.Equal(t, "err", result.Stderr)
	})

	t.Run("empty command fails", func(t *testing.T) {
		_, err := svc.Run(ctx, "   ", RunOptions{})
		assert.ErrorIs(t, err, ErrEmptyCommand)
		_, err = svc.RunArgv(ctx, nil, RunOptions{})
		assert.ErrorIs(t, err, ErrEmptyCommand)
	})

	t.Run("env overrides ambient variables", func(t *testing.T) {
		t.Setenv("RUN_TEST_VAR", "ambient")
		result, err := svc.RunArgv(ctx, []string{"sh", "-c", "printf %s \"$RUN_TEST_VAR\""},
			RunOptions{Env: map[string]string{"RUN_TEST_VAR": "override"}})
		require.NoError(t, err)
		assert.Equal(t, "override", result.Stdout)
	})

	t.Run("working directory resolves inside the root", func(t *testing.T) {
		require.NoError(t, svc.CreateDirectory("work", true))
		result, err := svc.RunArgv(ctx, []string{"sh", "-c", "pwd"}, RunOptions{WorkingDirectory: "work"})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(result.Stdout, "/work"), "got %q", result.Stdout)
	})

	t.Run("working directory outside the root fails", func(t *testing.T) {
		_, err := svc.Run(ctx, "echo x", RunOptions{WorkingDirectory: "../elsewhere"})
		assert.ErrorIs(t, err, ErrOutsideRoot)
	})

	t.Run("missing executable reports a spawn failure", func(t *testing.T) {
		result, err := svc.RunArgv(ctx, []string{"/no/such/binary"}, RunOptions{})
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Equal(t, 1, result.ExitCode)
		assert.Contains(t, result.Error, "failed to start")
	})
}

func TestClampTimeout(t *testing.T) {
	svc := newTestService(t)

	seconds := func(n int) *int { return &n }

	assert.Equal(t, 60*time.Second, svc.clampTimeout(nil))
	assert.Equal(t, 5*time.Second, svc.clampTimeout(seconds(0)))
	assert.Equal(t, 5*time.Second, svc.clampTimeout(seconds(2)))
	assert.Equal(t, 30*time.Second, svc.clampTimeout(seconds(30)))
	assert.Equal(t, 600*time.Second, svc.clampTimeout(seconds(10000)))
}

func TestMergeEnv(t *testing.T) {
	ambient := []string{"A=1", "B=2"}

	merged := mergeEnv(ambient, nil)
	assert.Equal(t, ambient, merged)

	merged = mergeEnv(ambient, map[string]string{"B": "9", "C": "3"})
	assert.Contains(t, merged, "A=1")
	assert.Contains(t, merged, "B=9")
	assert.Contains(t, merged, "C=3")
	assert.NotContains(t, merged, "B=2")
}

func TestCappedBuffer(t *testing.T) {
	buf := &cappedBuffer{limit: 8}

	n, err := buf.Write([]byte("12345"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = buf.Write([]byte("6789"))
	assert.ErrorIs(t, err, errOutputLimit)
	assert.True(t, buf.overflowed())
	assert.Equal(t, "12345", buf.String())
}
