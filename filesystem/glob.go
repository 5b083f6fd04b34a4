package filesystem

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob expands pattern against the root and returns matching file paths,
// root-relative. Directories are excluded; dotfiles match. Pattern expansion
// failure is wrapped as ErrGlob, not swallowed. The ignore predicate is a
// post-filter here because pattern matching is delegated to the glob engine.
func (s *Service) Glob(pattern string, opts GlobOptions) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", ErrGlob, pattern, err)
	}

	filtered := []string{}
	for _, match := range matches {
		if opts.Ignore != nil && opts.Ignore(match) {
			continue
		}
		filtered = append(filtered, match)
	}
	return filtered, nil
}
