package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// WriteFile writes content to path, creating parent directories as needed.
// An existing file is overwritten.
func (s *Service) WriteFile(path string, content string) error {
	abs, err := s.ResolveAbsolute(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", path, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.log.Debug("file written", zap.String("path", path), zap.Int("size", len(content)))
	return nil
}

// ReadFile reads the full content of path as text.
func (s *Service) ReadFile(path string) (string, error) {
	abs, err := s.ResolveAbsolute(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", pathError(ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", pathError(ErrNotAFile, path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// DeleteFile removes a single file. Directories are rejected.
func (s *Service) DeleteFile(path string) error {
	abs, err := s.ResolveAbsolute(path)
	if err != nil {
		return err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return pathError(ErrNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return pathError(ErrNotAFile, path)
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	s.log.Debug("file deleted", zap.String("path", path))
	return nil
}

// Exists reports whether path exists. It is a total function: containment
// violations and every other resolution or I/O failure degrade to false.
func (s *Service) Exists(path string) bool {
	abs, err := s.ResolveAbsolute(path)
	if err != nil {
		return false
	}
	_, err = os.Lstat(abs)
	return err == nil
}

// CreateDirectory creates a directory. Creating an existing directory
// succeeds idempotently; an existing non-directory fails. When recursive is
// false a missing immediate parent fails with ErrParentMissing.
func (s *Service) CreateDirectory(path string, recursive bool) error {
	abs, err := s.ResolveAbsolute(path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(abs); err == nil {
		if info.IsDir() {
			return nil
		}
		return pathError(ErrNotADirectory, path)
	}
	if recursive {
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
		return nil
	}
	parent := filepath.Dir(abs)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return pathError(ErrParentMissing, path)
	}
	if err := os.Mkdir(abs, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
