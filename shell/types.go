package shell

import (
	"os"
	"os/exec"
	"sync"
	"time"
)

// PathResolver maps a sandbox-relative working directory onto an absolute
// path, rejecting escapes. The filesystem service satisfies it.
type PathResolver interface {
	ResolveAbsolute(path string) (string, error)
	Root() string
}

// Session is one live PTY-backed shell.
type Session struct {
	ID         string
	Shell      string
	WorkingDir string
	Cols       int
	Rows       int
	StartedAt  time.Time

	cmd  *exec.Cmd
	ptmx *os.File

	output *ring

	mu     sync.RWMutex
	closed bool
}

// SessionInfo is the external snapshot of a session.
type SessionInfo struct {
	ID         string    `json:"id"`
	Shell      string    `json:"shell"`
	WorkingDir string    `json:"working_dir"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	StartedAt  time.Time `json:"started_at"`
	Active     bool      `json:"active"`
}

func (s *Session) active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

func (s *Session) info() SessionInfo {
	return SessionInfo{
		ID:         s.ID,
		Shell:      s.Shell,
		WorkingDir: s.WorkingDir,
		Cols:       s.Cols,
		Rows:       s.Rows,
		StartedAt:  s.StartedAt,
		Active:     s.active(),
	}
}

// ring is a concurrency-safe circular byte buffer. Writes past capacity
// overwrite the oldest data; a drain returns everything buffered and resets.
type ring struct {
	mu   sync.Mutex
	data []byte
	head int
	tail int
	full bool
}

func newRing(capacity int) *ring {
	return &ring{data: make([]byte, capacity)}
}

func (r *ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range p {
		r.data[r.tail] = b
		r.tail = (r.tail + 1) % len(r.data)
		if r.full {
			r.head = r.tail
		}
		if r.tail == r.head {
			r.full = true
		}
	}
	return len(p), nil
}

func (r *ring) drain() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.head == r.tail && !r.full {
		return []byte{}
	}

	var out []byte
	if r.tail > r.head {
		out = append(out, r.data[r.head:r.tail]...)
	} else {
		out = append(out, r.data[r.head:]...)
		out = append(out, r.data[:r.tail]...)
	}
	r.head = r.tail
	r.full = false
	return out
}
