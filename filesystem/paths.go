package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tokenring-ai/local-filesystem/internal/config"
	"github.com/tokenring-ai/local-filesystem/internal/logging"
)

// New creates a Service rooted at root. The root must exist and be a
// directory; it is canonicalized once and never changes.
func New(root string, opts ...Option) (*Service, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root %s: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pathError(ErrNotFound, root)
		}
		return nil, fmt.Errorf("invalid root %s: %w", root, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("invalid root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, pathError(ErrNotADirectory, root)
	}

	s := &Service{root: resolved}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.LoadOrDefault()
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	return s, nil
}

// ResolveAbsolute resolves p to an absolute path confined to the root.
// Relative paths resolve against the root; absolute paths are accepted only
// when they are the root or a lexical descendant of it. Containment is pure
// path arithmetic: the target need not exist.
func (s *Service) ResolveAbsolute(p string) (string, error) {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.root, abs)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", pathError(ErrOutsideRoot, p)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", pathError(ErrOutsideRoot, p)
	}
	return abs, nil
}

// ResolveRelative is the inverse of ResolveAbsolute: it resolves p and
// expresses the result relative to the root.
func (s *Service) ResolveRelative(p string) (string, error) {
	abs, err := s.ResolveAbsolute(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", pathError(ErrOutsideRoot, p)
	}
	return rel, nil
}

// relative converts an already-confined absolute path back to root-relative
// form for results.
func (s *Service) relative(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return abs
	}
	return rel
}
