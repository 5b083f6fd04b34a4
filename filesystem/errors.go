package filesystem

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural violations. Callers branch with errors.Is.
var (
	// ErrOutsideRoot is returned when a resolved path would escape the root.
	ErrOutsideRoot = errors.New("path is outside the root directory")

	// ErrNotFound is returned when the target does not exist.
	ErrNotFound = errors.New("no such file or directory")

	// ErrNotAFile is returned when a file operation targets a directory.
	ErrNotAFile = errors.New("not a file")

	// ErrNotADirectory is returned when a directory operation targets a file.
	ErrNotADirectory = errors.New("not a directory")

	// ErrAlreadyExists is returned when a destination already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrParentMissing is returned by non-recursive directory creation when
	// the immediate parent does not exist.
	ErrParentMissing = errors.New("parent directory does not exist")

	// ErrOverlap is returned when a copy source and destination are the same
	// path or one contains the other.
	ErrOverlap = errors.New("source and destination overlap")

	// ErrGlob wraps pattern expansion failures.
	ErrGlob = errors.New("glob failed")

	// ErrEmptyQuery is returned when the search string is empty.
	ErrEmptyQuery = errors.New("search string must not be empty")

	// ErrEmptyCommand is returned when a command is empty or has no argv.
	ErrEmptyCommand = errors.New("command must not be empty")
)

// pathError attaches the offending path to a sentinel.
func pathError(sentinel error, path string) error {
	return fmt.Errorf("%w: %s", sentinel, path)
}
