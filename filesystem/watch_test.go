package filesystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestWatch(t *testing.T, svc *Service, opts WatchOptions) (*WatchSession, chan Event) {
	t.Helper()
	session, err := svc.Watch(".", opts)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	events := make(chan Event, 64)
	forward := func(ev Event) { events <- ev }
	session.On(EventAdd, forward)
	session.On(EventChange, forward)
	session.On(EventUnlink, forward)
	session.On(EventReady, forward)
	return session, events
}

func waitForEvent(t *testing.T, events chan Event, kind EventType, path string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == kind && ev.Path == path {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event on %q", kind, path)
		}
	}
}

func TestWatchValidation(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.WriteFile("plain.txt", "x"))

	_, err := svc.Watch("missing", WatchOptions{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Watch("plain.txt", WatchOptions{})
	assert.ErrorIs(t, err, ErrNotADirectory)

	_, err = svc.Watch("..", WatchOptions{})
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestWatchReady(t *testing.T) {
	svc := newTestService(t)
	_, events := openTestWatch(t, svc, WatchOptions{})
	waitForEvent(t, events, EventReady, "")
}

func TestWatchAdd(t *testing.T) {
	svc := newTestService(t)
	_, events := openTestWatch(t, svc, WatchOptions{})
	waitForEvent(t, events, EventReady, "")

	require.NoError(t, svc.WriteFile("created.txt", "hello"))
	waitForEvent(t, events, EventAdd, "created.txt")
}

func TestWatchChange(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.WriteFile("existing.txt", "v1"))

	_, events := openTestWatch(t, svc, WatchOptions{})
	waitForEvent(t, events, EventReady, "")

	require.NoError(t, svc.WriteFile("existing.txt", "v2"))
	waitForEvent(t, events, EventChange, "existing.txt")
}

func TestWatchUnlink(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.WriteFile("doomed.txt", "x"))

	_, events := openTestWatch(t, svc, WatchOptions{})
	waitForEvent(t, events, EventReady, "")

	require.NoError(t, svc.DeleteFile("doomed.txt"))
	waitForEvent(t, events, EventUnlink, "doomed.txt")
}

func TestWatchDebounce(t *testing.T) {
	svc := newTestService(t)
	_, events := openTestWatch(t, svc, WatchOptions{StabilityThreshold: 50 * time.Millisecond})
	waitForEvent(t, events, EventReady, "")

	// Rapid successive writes settle into a single add.
	path := filepath.Join(svc.Root(), "burst.txt")
	payload := []byte{}
	for i := 0; i < 5; i++ {
		payload = append(payload, []byte("chunk ")...)
		require.NoError(t, os.WriteFile(path, payload, 0o644))
		time.Sleep(5 * time.Millisecond)
	}
	waitForEvent(t, events, EventAdd, "burst.txt")

	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchIgnore(t *testing.T) {
	svc := newTestService(t)
	ignore := func(rel string) bool { return rel == "secret.txt" }
	_, events := openTestWatch(t, svc, WatchOptions{Ignore: ignore})
	waitForEvent(t, events, EventReady, "")

	require.NoError(t, svc.WriteFile("secret.txt", "x"))
	require.NoError(t, svc.WriteFile("visible.txt", "x"))

	// The visible file surfaces; the ignored one never does.
	waitForEvent(t, events, EventAdd, "visible.txt")
	select {
	case ev := <-events:
		assert.NotEqual(t, "secret.txt", ev.Path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchPanickingPredicate(t *testing.T) {
	svc := newTestService(t)
	ignore := func(rel string) bool { panic("predicate exploded") }
	session, events := openTestWatch(t, svc, WatchOptions{Ignore: ignore})
	waitForEvent(t, events, EventReady, "")

	// Every non-root path fail-safes to ignored, so nothing surfaces.
	require.NoError(t, svc.WriteFile("anything.txt", "x"))
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
	require.NoError(t, session.Close())
}

func TestWatchCloseIdempotent(t *testing.T) {
	svc := newTestService(t)
	session, err := svc.Watch(".", WatchOptions{})
	require.NoError(t, err)

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
}
