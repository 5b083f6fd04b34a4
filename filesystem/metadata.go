package filesystem

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Stat returns a metadata snapshot for path. Symlinks are reported as
// themselves, not their targets.
func (s *Service) Stat(path string) (*Metadata, error) {
	abs, err := s.ResolveAbsolute(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pathError(ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	created, accessed := statTimes(info)
	return &Metadata{
		Path:           s.relative(abs),
		AbsolutePath:   abs,
		IsFile:         info.Mode().IsRegular(),
		IsDirectory:    info.IsDir(),
		IsSymbolicLink: info.Mode()&os.ModeSymlink != 0,
		Size:           info.Size(),
		Created:        created,
		Modified:       info.ModTime(),
		Accessed:       accessed,
	}, nil
}

// MIMEType detects the MIME type of a file.
func (s *Service) MIMEType(path string) (string, error) {
	abs, err := s.ResolveAbsolute(path)
	if err != nil {
		return "", err
	}
	mtype, err := mimetype.DetectFile(abs)
	if err != nil {
		return "", fmt.Errorf("mime detection failed for %s: %w", path, err)
	}
	return mtype.String(), nil
}

// isTextFile reports whether the file at abs looks like text. Detection
// failure counts as non-text so search stays best-effort.
func isTextFile(abs string) bool {
	mtype, err := mimetype.DetectFile(abs)
	if err != nil {
		return false
	}
	mime := mtype.String()
	return strings.HasPrefix(mime, "text/") ||
		mime == "application/json" ||
		mime == "application/xml" ||
		mime == "application/javascript"
}
