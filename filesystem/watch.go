package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// EventType identifies a watch notification kind.
type EventType string

const (
	EventAdd    EventType = "add"
	EventChange EventType = "change"
	EventUnlink EventType = "unlink"
	EventReady  EventType = "ready"
)

// Event is a single watch notification. Path is root-relative; it is empty
// for ready events.
type Event struct {
	Type EventType `json:"type"`
	Path string    `json:"path"`
}

// pendingChange tracks a file between its last observed write and the moment
// it is considered settled.
type pendingChange struct {
	size  int64
	mod   time.Time
	since time.Time
	isNew bool
}

// WatchSession is a long-lived change-notification stream over a directory
// tree. It keeps emitting until Close is called.
type WatchSession struct {
	svc       *Service
	fw        *fsnotify.Watcher
	ignore    IgnoreFunc
	poll      time.Duration
	stability time.Duration

	mu          sync.Mutex
	handlers    map[EventType][]func(Event)
	errHandlers []func(error)
	pending     map[string]*pendingChange
	known       map[string]bool
	ready       bool
	closed      bool

	done chan struct{}
}

// Watch opens a change-notification session over dir. The directory must
// exist. Rapid successive writes are debounced: a change is only reported
// once the file has been unmodified for the stability threshold, checked by
// polling at the poll interval.
func (s *Service) Watch(dir string, opts WatchOptions) (*WatchSession, error) {
	absDir, err := s.ResolveAbsolute(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pathError(ErrNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, pathError(ErrNotADirectory, dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &WatchSession{
		svc:       s,
		fw:        fw,
		ignore:    opts.Ignore,
		poll:      opts.PollInterval,
		stability: opts.StabilityThreshold,
		handlers:  make(map[EventType][]func(Event)),
		pending:   make(map[string]*pendingChange),
		known:     make(map[string]bool),
		done:      make(chan struct{}),
	}
	if w.poll <= 0 {
		w.poll = s.cfg.Watch.PollInterval
	}
	if w.stability <= 0 {
		w.stability = s.cfg.Watch.StabilityThreshold
	}

	// Register the existing tree: watch every non-ignored directory and
	// remember existing files so later writes report change, not add.
	err = filepath.WalkDir(absDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel := s.relative(p)
		if p != absDir && w.ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.fw.Add(p)
		}
		w.known[p] = true
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, err
	}

	go w.run()
	go w.pollLoop()
	return w, nil
}

// On registers a handler for an event type. Handlers run on the session's
// internal goroutines; they must not block.
func (w *WatchSession) On(event EventType, handler func(Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[event] = append(w.handlers[event], handler)
}

// OnError registers a handler for watcher errors.
func (w *WatchSession) OnError(handler func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errHandlers = append(w.errHandlers, handler)
}

// Close releases the session. Safe to call more than once.
func (w *WatchSession) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	close(w.done)
	return w.fw.Close()
}

// ignored applies the session's ignore predicate to a normalized
// root-relative path. The root itself is never ignored, and a panicking
// predicate fail-safes toward exclusion.
func (w *WatchSession) ignored(rel string) (result bool) {
	rel = strings.TrimPrefix(rel, "."+string(filepath.Separator))
	if rel == "" || rel == "." {
		return false
	}
	if w.ignore == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			result = true
		}
	}()
	return w.ignore(rel)
}

func (w *WatchSession) run() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.emitError(err)
		case <-w.done:
			return
		}
	}
}

func (w *WatchSession) handleFsEvent(event fsnotify.Event) {
	path := event.Name
	rel := w.svc.relative(path)
	if w.ignored(rel) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// New directories join the watch; their contents surface as
			// their own create events.
			w.fw.Add(path)
			return
		}
		w.track(path, true)
	case event.Has(fsnotify.Write):
		w.mu.Lock()
		isNew := !w.known[path]
		w.mu.Unlock()
		w.track(path, isNew)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.mu.Lock()
		delete(w.pending, path)
		wasKnown := w.known[path]
		delete(w.known, path)
		w.mu.Unlock()
		if wasKnown {
			w.emit(Event{Type: EventUnlink, Path: rel})
		}
	}
}

// track records a write-in-progress; the poller promotes it once stable.
func (w *WatchSession) track(path string, isNew bool) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.size = info.Size()
		p.mod = info.ModTime()
		p.since = time.Now()
		return
	}
	w.pending[path] = &pendingChange{
		size:  info.Size(),
		mod:   info.ModTime(),
		since: time.Now(),
		isNew: isNew,
	}
}

func (w *WatchSession) pollLoop() {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.emitReadyOnce()
			w.flushStable()
		case <-w.done:
			return
		}
	}
}

// flushStable promotes every pending file that has been unmodified for at
// least the stability threshold.
func (w *WatchSession) flushStable() {
	now := time.Now()
	var settled []Event

	w.mu.Lock()
	for path, p := range w.pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		if info.Size() != p.size || !info.ModTime().Equal(p.mod) {
			p.size = info.Size()
			p.mod = info.ModTime()
			p.since = now
			continue
		}
		if now.Sub(p.since) < w.stability {
			continue
		}
		kind := EventChange
		if p.isNew {
			kind = EventAdd
		}
		settled = append(settled, Event{Type: kind, Path: w.svc.relative(path)})
		w.known[path] = true
		delete(w.pending, path)
	}
	w.mu.Unlock()

	for _, ev := range settled {
		w.emit(ev)
	}
}

func (w *WatchSession) emitReadyOnce() {
	w.mu.Lock()
	if w.ready {
		w.mu.Unlock()
		return
	}
	w.ready = true
	w.mu.Unlock()
	w.emit(Event{Type: EventReady})
}

func (w *WatchSession) emit(ev Event) {
	w.mu.Lock()
	handlers := append([]func(Event){}, w.handlers[ev.Type]...)
	w.mu.Unlock()
	w.svc.log.Debug("watch event", zap.String("type", string(ev.Type)), zap.String("path", ev.Path))
	for _, h := range handlers {
		h(ev)
	}
}

func (w *WatchSession) emitError(err error) {
	w.mu.Lock()
	handlers := append([]func(error){}, w.errHandlers...)
	w.mu.Unlock()
	for _, h := range handlers {
		h(err)
	}
}
