package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

// RecentFile is one entry returned by RecentFiles.
type RecentFile struct {
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
}

// Search scans every non-ignored text file under the root for lines
// containing text (plain substring, not a pattern) and returns one Match per
// matching line. Unreadable and binary files are skipped; search is
// best-effort over the reachable set. When either context knob is positive,
// Match.Content holds the clamped [line-before, line+after] window joined by
// newlines.
func (s *Service) Search(text string, opts SearchOptions) ([]Match, error) {
	if text == "" {
		return nil, ErrEmptyQuery
	}
	seq, err := s.Walk(".", WalkOptions{Ignore: opts.Ignore, Recursive: true})
	if err != nil {
		return nil, err
	}

	sep := string(filepath.Separator)
	results := []Match{}
	for rel := range seq {
		if strings.HasSuffix(rel, sep) {
			continue
		}
		abs := filepath.Join(s.root, rel)
		if !isTextFile(abs) {
			continue
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		lines := strings.Split(string(data), "\n")
		for i := range lines {
			lines[i] = strings.TrimSuffix(lines[i], "\r")
		}
		for i, line := range lines {
			if !strings.Contains(line, text) {
				continue
			}
			m := Match{File: rel, Line: i + 1, Match: line}
			if opts.ContextBefore > 0 || opts.ContextAfter > 0 {
				start := max(0, i-opts.ContextBefore)
				end := min(len(lines)-1, i+opts.ContextAfter)
				m.Content = strings.Join(lines[start:end+1], "\n")
			}
			results = append(results, m)
		}
	}
	return results, nil
}

// Find locates files under dir whose base name matches pattern
// (filepath.Match syntax). Results are root-relative and sorted.
func (s *Service) Find(dir, pattern string, opts GlobOptions) ([]string, error) {
	absDir, err := s.ResolveAbsolute(dir)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	matches := []string{}
	conf := fastwalk.Config{Follow: false}

	err = fastwalk.Walk(&conf, absDir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel := s.relative(p)
		if opts.Ignore != nil && opts.Ignore(rel) {
			return nil
		}
		matched, _ := filepath.Match(pattern, filepath.Base(p))
		if matched {
			mu.Lock()
			matches = append(matches, rel)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find failed under %s: %w", dir, err)
	}

	sort.Strings(matches)
	return matches, nil
}

// RecentFiles returns files modified within the given window, newest first,
// capped at limit (0 means no cap).
func (s *Service) RecentFiles(within time.Duration, limit int, opts GlobOptions) ([]RecentFile, error) {
	cutoff := time.Now().Add(-within)

	var mu sync.Mutex
	files := []RecentFile{}
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, s.root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel := s.relative(p)
		if opts.Ignore != nil && opts.Ignore(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			mu.Lock()
			files = append(files, RecentFile{Path: rel, Modified: info.ModTime(), Size: info.Size()})
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recent files scan failed: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Modified.After(files[j].Modified) })
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}
