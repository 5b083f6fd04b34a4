package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Rename moves oldPath to newPath. The source must exist and the destination
// must not; there is no implicit overwrite. The destination's parent
// directory is created if missing.
func (s *Service) Rename(oldPath, newPath string) error {
	oldAbs, err := s.ResolveAbsolute(oldPath)
	if err != nil {
		return err
	}
	newAbs, err := s.ResolveAbsolute(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(oldAbs); err != nil {
		if os.IsNotExist(err) {
			return pathError(ErrNotFound, oldPath)
		}
		return fmt.Errorf("failed to stat %s: %w", oldPath, err)
	}
	if _, err := os.Lstat(newAbs); err == nil {
		return pathError(ErrAlreadyExists, newPath)
	}
	if err := os.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", newPath, err)
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
	}
	s.log.Debug("renamed", zap.String("from", oldPath), zap.String("to", newPath))
	return nil
}

// Copy copies a file or directory tree from source to destination. An
// existing destination fails unless opts.Overwrite is set, in which case it
// is replaced.
func (s *Service) Copy(source, destination string, opts CopyOptions) error {
	srcAbs, err := s.ResolveAbsolute(source)
	if err != nil {
		return err
	}
	dstAbs, err := s.ResolveAbsolute(destination)
	if err != nil {
		return err
	}
	// A destination equal to the source, inside it, or containing it would
	// either destroy the source or recurse into the growing destination.
	sep := string(filepath.Separator)
	if dstAbs == srcAbs ||
		strings.HasPrefix(dstAbs, srcAbs+sep) ||
		strings.HasPrefix(srcAbs, dstAbs+sep) {
		return fmt.Errorf("%w: %s -> %s", ErrOverlap, source, destination)
	}
	srcInfo, err := os.Stat(srcAbs)
	if err != nil {
		if os.IsNotExist(err) {
			return pathError(ErrNotFound, source)
		}
		return fmt.Errorf("failed to stat %s: %w", source, err)
	}
	if _, err := os.Lstat(dstAbs); err == nil {
		if !opts.Overwrite {
			return pathError(ErrAlreadyExists, destination)
		}
		if err := os.RemoveAll(dstAbs); err != nil {
			return fmt.Errorf("failed to replace %s: %w", destination, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dstAbs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", destination, err)
	}
	if srcInfo.IsDir() {
		err = copyDir(srcAbs, dstAbs)
	} else {
		err = copyFile(srcAbs, dstAbs, srcInfo.Mode())
	}
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", source, destination, err)
	}
	s.log.Debug("copied", zap.String("from", source), zap.String("to", destination))
	return nil
}

// Chmod applies mode to path.
func (s *Service) Chmod(path string, mode os.FileMode) error {
	abs, err := s.ResolveAbsolute(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		if os.IsNotExist(err) {
			return pathError(ErrNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.Chmod(abs, mode); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if err := copyFile(srcPath, dstPath, info.Mode()); err != nil {
			return err
		}
	}
	return nil
}
