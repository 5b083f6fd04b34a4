package shell

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokenring-ai/local-filesystem/internal/logging"
)

const outputBufferSize = 1024 * 1024

// Manager owns every live shell session. All methods are safe for concurrent
// use.
type Manager struct {
	resolver PathResolver
	log      *logging.Logger
	sessions sync.Map // session ID -> *Session
}

// NewManager creates a session manager whose working directories resolve
// through the given resolver. A nil logger is replaced with a no-op one.
func NewManager(resolver PathResolver, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{resolver: resolver, log: log}
}

// Open starts a new PTY-backed shell. An empty shell falls back to $SHELL and
// then /bin/sh; an empty working directory means the sandbox root, and any
// other value must resolve inside it.
func (m *Manager) Open(shell, workingDir string, cols, rows int, env map[string]string) (*SessionInfo, error) {
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
	}

	cwd := m.resolver.Root()
	if workingDir != "" {
		abs, err := m.resolver.ResolveAbsolute(workingDir)
		if err != nil {
			return nil, err
		}
		cwd = abs
	}

	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	cmd := exec.Command(shell)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	for key, value := range env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start shell %s: %w", shell, err)
	}

	session := &Session{
		ID:         uuid.NewString(),
		Shell:      shell,
		WorkingDir: cwd,
		Cols:       cols,
		Rows:       rows,
		StartedAt:  time.Now(),
		cmd:        cmd,
		ptmx:       ptmx,
		output:     newRing(outputBufferSize),
	}
	m.sessions.Store(session.ID, session)

	go m.readOutput(session)
	go m.reapOnExit(session)

	m.log.Debug("shell session opened",
		zap.String("session_id", session.ID),
		zap.String("shell", shell),
		zap.String("cwd", cwd))

	info := session.info()
	return &info, nil
}

// readOutput drains the PTY into the session ring until the PTY closes.
func (m *Manager) readOutput(session *Session) {
	buf := make([]byte, 4096)
	for {
		n, err := session.ptmx.Read(buf)
		if n > 0 {
			session.output.Write(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				m.log.Debug("shell output read ended",
					zap.String("session_id", session.ID),
					zap.Error(err))
			}
			return
		}
	}
}

// reapOnExit marks the session closed once its process exits.
func (m *Manager) reapOnExit(session *Session) {
	session.cmd.Wait()

	session.mu.Lock()
	session.closed = true
	session.mu.Unlock()

	session.ptmx.Close()
	m.log.Debug("shell session exited", zap.String("session_id", session.ID))
}

// Write sends input bytes to a session's PTY.
func (m *Manager) Write(sessionID string, input []byte) error {
	session, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	if !session.active() {
		return fmt.Errorf("session is closed: %s", sessionID)
	}
	_, err = session.ptmx.Write(input)
	return err
}

// Read drains and returns buffered output for a session.
func (m *Manager) Read(sessionID string) ([]byte, error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return session.output.drain(), nil
}

// Resize changes a session's terminal dimensions.
func (m *Manager) Resize(sessionID string, cols, rows int) error {
	session, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.closed {
		return fmt.Errorf("session is closed: %s", sessionID)
	}
	session.Cols = cols
	session.Rows = rows
	return pty.Setsize(session.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

// Kill terminates a session and removes it. Killing an already closed or
// removed session is not an error.
func (m *Manager) Kill(sessionID string) error {
	value, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return nil
	}
	session := value.(*Session)

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.closed {
		return nil
	}
	session.closed = true

	if session.cmd.Process != nil {
		session.cmd.Process.Kill()
	}
	session.ptmx.Close()
	m.log.Debug("shell session killed", zap.String("session_id", sessionID))
	return nil
}

// KillAll terminates every session. Used on shutdown.
func (m *Manager) KillAll() {
	m.sessions.Range(func(key, _ interface{}) bool {
		m.Kill(key.(string))
		return true
	})
}

// List returns a snapshot of every known session.
func (m *Manager) List() []SessionInfo {
	sessions := []SessionInfo{}
	m.sessions.Range(func(_, value interface{}) bool {
		sessions = append(sessions, value.(*Session).info())
		return true
	})
	return sessions
}

// Get returns a snapshot of one session.
func (m *Manager) Get(sessionID string) (*SessionInfo, error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	info := session.info()
	return &info, nil
}

func (m *Manager) lookup(sessionID string) (*Session, error) {
	value, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return value.(*Session), nil
}
