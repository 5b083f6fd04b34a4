package filesystem

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTree(t *testing.T, svc *Service) {
	t.Helper()
	require.NoError(t, svc.WriteFile("a.txt", "a"))
	require.NoError(t, svc.WriteFile("sub/b.txt", "b"))
	require.NoError(t, svc.WriteFile("sub/deep/c.txt", "c"))
	require.NoError(t, svc.WriteFile("skip/d.txt", "d"))
}

func collect(t *testing.T, svc *Service, dir string, opts WalkOptions) []string {
	t.Helper()
	seq, err := svc.Walk(dir, opts)
	require.NoError(t, err)
	entries := []string{}
	for entry := range seq {
		entries = append(entries, entry)
	}
	return entries
}

func TestWalk(t *testing.T) {
	sep := string(filepath.Separator)

	t.Run("non-recursive lists one level", func(t *testing.T) {
		svc := newTestService(t)
		seedTree(t, svc)
		entries := collect(t, svc, ".", WalkOptions{})
		assert.ElementsMatch(t, []string{"a.txt", "sub" + sep, "skip" + sep}, entries)
	})

	t.Run("recursive descends pre-order", func(t *testing.T) {
		svc := newTestService(t)
		seedTree(t, svc)
		entries := collect(t, svc, ".", WalkOptions{Recursive: true})
		assert.ElementsMatch(t, []string{
			"a.txt",
			"skip" + sep,
			filepath.Join("skip", "d.txt"),
			"sub" + sep,
			filepath.Join("sub", "b.txt"),
			"sub" + sep + "deep" + sep,
			filepath.Join("sub", "deep", "c.txt"),
		}, entries)

		// A directory always precedes its contents.
		dirIdx := indexOf(entries, "sub"+sep)
		childIdx := indexOf(entries, filepath.Join("sub", "b.txt"))
		assert.Less(t, dirIdx, childIdx)
	})

	t.Run("ignored directory is pruned", func(t *testing.T) {
		svc := newTestService(t)
		seedTree(t, svc)
		ignore := func(rel string) bool { return strings.HasPrefix(rel, "skip") }
		entries := collect(t, svc, ".", WalkOptions{Recursive: true, Ignore: ignore})
		for _, entry := range entries {
			assert.NotContains(t, entry, "skip")
		}
		assert.Contains(t, entries, "a.txt")
	})

	t.Run("sequence restarts on each range", func(t *testing.T) {
		svc := newTestService(t)
		seedTree(t, svc)
		seq, err := svc.Walk(".", WalkOptions{Recursive: true})
		require.NoError(t, err)

		first := []string{}
		for entry := range seq {
			first = append(first, entry)
		}
		second := []string{}
		for entry := range seq {
			second = append(second, entry)
		}
		assert.Equal(t, first, second)
		assert.NotEmpty(t, first)
	})

	t.Run("consumer can stop early", func(t *testing.T) {
		svc := newTestService(t)
		seedTree(t, svc)
		seq, err := svc.Walk(".", WalkOptions{Recursive: true})
		require.NoError(t, err)
		count := 0
		for range seq {
			count++
			if count == 2 {
				break
			}
		}
		assert.Equal(t, 2, count)
	})

	t.Run("subdirectory start", func(t *testing.T) {
		svc := newTestService(t)
		seedTree(t, svc)
		entries := collect(t, svc, "sub", WalkOptions{})
		assert.ElementsMatch(t, []string{filepath.Join("sub", "b.txt"), "sub" + sep + "deep" + sep}, entries)
	})

	t.Run("outside root is rejected", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.Walk("..", WalkOptions{})
		assert.ErrorIs(t, err, ErrOutsideRoot)
	})
}

func indexOf(entries []string, target string) int {
	for i, e := range entries {
		if e == target {
			return i
		}
	}
	return -1
}
