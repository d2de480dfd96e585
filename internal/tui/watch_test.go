package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tallr-app/tallr/internal/core"
)

type stubFetcher struct {
	snap  *core.Snapshot
	err   error
	calls int
}

func (s *stubFetcher) State(context.Context) (*core.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

func TestWatchFetchReturnsSnapshot(t *testing.T) {
	snap := sampleSnapshot(time.Now())
	m := NewWatch(&stubFetcher{snap: snap}, time.Second)

	msg := m.fetch()()

	got, ok := msg.(snapshotMsg)
	if !ok {
		t.Fatalf("expected snapshotMsg, got %T", msg)
	}
	if got.snap != snap {
		t.Error("fetch should carry the fetched snapshot")
	}
}

func TestWatchFetchSurfacesError(t *testing.T) {
	m := NewWatch(&stubFetcher{err: errors.New("connection refused")}, time.Second)

	msg := m.fetch()()

	if _, ok := msg.(fetchErrMsg); !ok {
		t.Fatalf("expected fetchErrMsg, got %T", msg)
	}
}

func TestWatchUpdateSnapshot(t *testing.T) {
	snap := sampleSnapshot(time.Now())
	m := NewWatch(&stubFetcher{}, time.Second)
	m.fetchErr = errors.New("stale")

	updated, cmd := m.Update(snapshotMsg{snap: snap})

	wm := updated.(WatchModel)
	if wm.snap != snap {
		t.Error("snapshot not stored")
	}
	if wm.fetchErr != nil {
		t.Error("a successful poll should clear the previous error")
	}
	if wm.lastSync.IsZero() {
		t.Error("lastSync not set")
	}
	if cmd == nil {
		t.Error("expected the next poll to be scheduled")
	}
}

func TestWatchUpdateErrorKeepsOldSnapshot(t *testing.T) {
	snap := sampleSnapshot(time.Now())
	m := NewWatch(&stubFetcher{}, time.Second)
	m.snap = snap

	updated, cmd := m.Update(fetchErrMsg{err: errors.New("connection refused")})

	wm := updated.(WatchModel)
	if wm.snap != snap {
		t.Error("a failed poll should not discard the last snapshot")
	}
	if wm.fetchErr == nil {
		t.Error("error not stored")
	}
	if cmd == nil {
		t.Error("expected the next poll to be scheduled")
	}
}

func TestWatchPollTickFetches(t *testing.T) {
	fetcher := &stubFetcher{snap: core.NewSnapshot()}
	m := NewWatch(fetcher, time.Second)

	_, cmd := m.Update(pollTickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("poll tick should trigger a fetch")
	}

	if _, ok := cmd().(snapshotMsg); !ok {
		t.Error("poll tick command should fetch the snapshot")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}
}

func TestWatchQuitKeys(t *testing.T) {
	m := NewWatch(&stubFetcher{}, time.Second)

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("key %s should produce a command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %s should quit", key)
		}
	}
}

func TestWatchRefreshKey(t *testing.T) {
	fetcher := &stubFetcher{snap: core.NewSnapshot()}
	m := NewWatch(fetcher, time.Second)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("r should trigger a fetch")
	}
	cmd()
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}
}

func TestWatchViewStates(t *testing.T) {
	m := NewWatch(&stubFetcher{}, time.Second)

	if out := m.View(); !strings.Contains(out, "loading") {
		t.Errorf("initial view should show loading, got %q", out)
	}

	m.fetchErr = errors.New("connection refused")
	out := m.View()
	if !strings.Contains(out, "daemon not reachable") {
		t.Errorf("error view should name the failure, got %q", out)
	}
	if !strings.Contains(out, "tallr serve") {
		t.Errorf("error view should hint at starting the daemon, got %q", out)
	}

	m.fetchErr = nil
	m.snap = sampleSnapshot(time.Now())
	out = m.View()
	if !strings.Contains(out, "widgets") {
		t.Errorf("view should render the session table, got %q", out)
	}
}
