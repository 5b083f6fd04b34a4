package filesystem

import (
	"iter"
	"os"
	"path/filepath"
)

// Walk returns a lazy, single-pass sequence of root-relative entry paths
// under dir, in OS-provided listing order. Directories carry a trailing
// separator and, when opts.Recursive is set, are descended depth-first in
// pre-order. Entries matching opts.Ignore are pruned: an ignored directory is
// never descended. The sequence is produced fresh on every range, so the same
// Walk result can be iterated more than once.
func (s *Service) Walk(dir string, opts WalkOptions) (iter.Seq[string], error) {
	absDir, err := s.ResolveAbsolute(dir)
	if err != nil {
		return nil, err
	}
	return func(yield func(string) bool) {
		s.walkDir(absDir, opts, yield)
	}, nil
}

// walkDir reads one directory and yields its entries, recursing into
// non-ignored subdirectories. Unreadable directories are skipped; the walk is
// best-effort over the reachable tree. Returns false once the consumer stops.
func (s *Service) walkDir(absDir string, opts WalkOptions, yield func(string) bool) bool {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return true
	}
	for _, entry := range entries {
		abs := filepath.Join(absDir, entry.Name())
		rel := s.relative(abs)
		if opts.Ignore != nil && opts.Ignore(rel) {
			continue
		}
		if entry.IsDir() {
			if !yield(rel + string(filepath.Separator)) {
				return false
			}
			if opts.Recursive {
				if !s.walkDir(abs, opts, yield) {
					return false
				}
			}
			continue
		}
		if !yield(rel) {
			return false
		}
	}
	return true
}
