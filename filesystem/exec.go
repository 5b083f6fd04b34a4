package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Timeout bounds enforced on every run, whatever the caller asks for.
const (
	minTimeout = 5 * time.Second
	maxTimeout = 600 * time.Second
)

var errOutputLimit = errors.New("output limit exceeded")

// cappedBuffer collects subprocess output up to a byte limit. Exceeding the
// limit fails the write, which terminates the run.
type cappedBuffer struct {
	mu       sync.Mutex
	buf      strings.Builder
	limit    int64
	overflow bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if int64(b.buf.Len())+int64(len(p)) > b.limit {
		b.overflow = true
		return 0, errOutputLimit
	}
	return b.buf.WriteString(string(p))
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *cappedBuffer) overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflow
}

// Run executes command through a shell ($SHELL, falling back to /bin/sh), so
// pipes and redirection work. Subprocess failure never surfaces as a returned
// error; callers branch on CommandResult.OK. The returned error is non-nil
// only for an empty command or an unresolvable working directory.
func (s *Service) Run(ctx context.Context, command string, opts RunOptions) (*CommandResult, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return s.runProcess(ctx, []string{shell, "-c", command}, opts)
}

// RunArgv executes an argument vector directly, with no shell interpretation.
// The first element is the executable.
func (s *Service) RunArgv(ctx context.Context, argv []string, opts RunOptions) (*CommandResult, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyCommand
	}
	return s.runProcess(ctx, argv, opts)
}

func (s *Service) runProcess(ctx context.Context, argv []string, opts RunOptions) (*CommandResult, error) {
	timeout := s.clampTimeout(opts.TimeoutSeconds)

	cwd := s.root
	if opts.WorkingDirectory != "" {
		abs, err := s.ResolveAbsolute(opts.WorkingDirectory)
		if err != nil {
			return nil, err
		}
		cwd = abs
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := &cappedBuffer{limit: s.cfg.Exec.MaxOutputBytes}
	stderr := &cappedBuffer{limit: s.cfg.Exec.MaxOutputBytes}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = cwd
	cmd.Env = mergeEnv(os.Environ(), opts.Env)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	s.log.Debug("running command",
		zap.Strings("argv", argv),
		zap.Duration("timeout", timeout),
		zap.String("cwd", cwd))

	runErr := cmd.Run()

	result := &CommandResult{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	switch {
	case stdout.overflowed() || stderr.overflowed():
		result.ExitCode = exitCodeOrDefault(cmd, 1)
		result.Error = "output limit exceeded"
	case ctx.Err() == context.DeadlineExceeded:
		result.ExitCode = exitCodeOrDefault(cmd, 1)
		result.Error = fmt.Sprintf("command timed out after %s", timeout)
	case runErr == nil:
		result.OK = true
		result.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitCodeOrDefault(cmd, 1)
			result.Error = fmt.Sprintf("command failed: %v", runErr)
		} else {
			// Spawn failure: executable missing, permission denied.
			result.ExitCode = 1
			result.Error = fmt.Sprintf("failed to start command: %v", runErr)
		}
	}
	return result, nil
}

// clampTimeout applies the [5s, 600s] bounds. A nil request means the
// configured default, which is clamped too.
func (s *Service) clampTimeout(seconds *int) time.Duration {
	timeout := s.cfg.Exec.DefaultTimeout
	if seconds != nil {
		timeout = time.Duration(*seconds) * time.Second
	}
	if timeout < minTimeout {
		return minTimeout
	}
	if timeout > maxTimeout {
		return maxTimeout
	}
	return timeout
}

// exitCodeOrDefault reads the captured exit code, falling back when the
// process never reported one.
func exitCodeOrDefault(cmd *exec.Cmd, fallback int) int {
	if cmd.ProcessState != nil {
		if code := cmd.ProcessState.ExitCode(); code >= 0 {
			return code
		}
	}
	return fallback
}

// mergeEnv overlays caller-supplied variables on an ambient environment
// snapshot. Caller keys take precedence over ambient ones.
func mergeEnv(ambient []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return ambient
	}
	merged := make([]string, 0, len(ambient)+len(overrides))
	for _, kv := range ambient {
		key, _, ok := strings.Cut(kv, "=")
		if ok {
			if _, replaced := overrides[key]; replaced {
				continue
			}
		}
		merged = append(merged, kv)
	}
	for key, value := range overrides {
		merged = append(merged, key+"="+value)
	}
	return merged
}
