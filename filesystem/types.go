package filesystem

import (
	"time"

	"github.com/tokenring-ai/local-filesystem/internal/config"
	"github.com/tokenring-ai/local-filesystem/internal/logging"
	"github.com/tokenring-ai/local-filesystem/types"
)

// IgnoreFunc decides whether a root-relative path is excluded from traversal,
// search, globbing, or watching. It is supplied per call by the host and is
// never cached by this package. A nil IgnoreFunc ignores nothing.
type IgnoreFunc func(relPath string) bool

// Metadata is an immutable file metadata snapshot. It is stale the moment it
// is returned.
type Metadata struct {
	Path           string    `json:"path"`
	AbsolutePath   string    `json:"absolute_path"`
	IsFile         bool      `json:"is_file"`
	IsDirectory    bool      `json:"is_directory"`
	IsSymbolicLink bool      `json:"is_symbolic_link"`
	Size           int64     `json:"size"`
	Created        time.Time `json:"created"`
	Modified       time.Time `json:"modified"`
	Accessed       time.Time `json:"accessed"`
}

// Match is a single search hit: one matching line in one file.
type Match struct {
	// File is root-relative.
	File string `json:"file"`
	// Line is 1-based.
	Line int `json:"line"`
	// Match is the raw line text.
	Match string `json:"match"`
	// Content is the joined context window, empty when no context was
	// requested.
	Content string `json:"content,omitempty"`
}

// CommandResult is the uniform outcome of a subprocess run. Subprocess
// failure (non-zero exit, timeout, spawn error) is reported here, never as a
// returned error.
type CommandResult struct {
	OK       bool   `json:"ok"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Error    string `json:"error,omitempty"`
}

// WalkOptions controls a traversal.
type WalkOptions struct {
	Ignore    IgnoreFunc
	Recursive bool
}

// SearchOptions controls a content search.
type SearchOptions struct {
	Ignore        IgnoreFunc
	ContextBefore int
	ContextAfter  int
}

// GlobOptions controls glob matching.
type GlobOptions struct {
	Ignore IgnoreFunc
}

// WatchOptions controls a watch session. Zero durations fall back to the
// service configuration.
type WatchOptions struct {
	Ignore             IgnoreFunc
	PollInterval       time.Duration
	StabilityThreshold time.Duration
}

// RunOptions controls subprocess execution.
type RunOptions struct {
	// TimeoutSeconds, when set, is clamped to the inclusive range [5, 600]
	// whatever the caller supplies. Nil means the configured default.
	TimeoutSeconds *int
	// Env entries override the ambient environment.
	Env map[string]string
	// WorkingDirectory is resolved through the containment check. Empty
	// means the root.
	WorkingDirectory string
}

// CopyOptions controls copy behavior.
type CopyOptions struct {
	Overwrite bool
}

// Service is the sandboxed filesystem capability set. The root is the only
// state shared across calls and is immutable for the service's lifetime.
type Service struct {
	root string
	cfg  *config.Config
	log  *logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithConfig overrides the environment-derived configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// Root returns the canonical root directory.
func (s *Service) Root() string {
	return s.root
}

// Success builds a successful provider result.
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure builds a failed provider result.
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
