// Package probetest provides an in-memory [probe.SystemProbe] for tests.
package probetest

import (
	"context"
	"sync"
	"time"

	"github.com/dombom/mark/internal/probe"
)

// Fake is a scripted SystemProbe. Maps are keyed by app id; a missing entry
// answers with probe.ErrUnsupported, except Running which answers false.
// Err entries are keyed by query name ("frontmost", "idle", "running",
// "title", "playback", "tab") and win over any scripted value.
type Fake struct {
	Frontmost string
	Idle      time.Duration
	Running   map[string]bool
	Titles    map[string]string
	Tracks    map[string]probe.Playback
	Tabs      map[string]probe.Tab
	Err       map[string]error

	mu    sync.Mutex
	calls map[string]int
}

var _ probe.SystemProbe = (*Fake)(nil)

// Calls returns how many times the named query was made.
func (f *Fake) Calls(query string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[query]
}

func (f *Fake) record(query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[query]++
	return f.Err[query]
}

func (f *Fake) FrontmostApp(context.Context) (string, error) {
	if err := f.record("frontmost"); err != nil {
		return "", err
	}
	return f.Frontmost, nil
}

func (f *Fake) IdleTime(context.Context) (time.Duration, error) {
	if err := f.record("idle"); err != nil {
		return 0, err
	}
	return f.Idle, nil
}

func (f *Fake) IsRunning(_ context.Context, appID string) (bool, error) {
	if err := f.record("running"); err != nil {
		return false, err
	}
	return f.Running[appID], nil
}

func (f *Fake) WindowTitle(_ context.Context, appID string) (string, error) {
	if err := f.record("title"); err != nil {
		return "", err
	}
	title, ok := f.Titles[appID]
	if !ok {
		return "", probe.ErrUnsupported
	}
	return title, nil
}

func (f *Fake) Playback(_ context.Context, appID string) (probe.Playback, error) {
	if err := f.record("playback"); err != nil {
		return probe.Playback{}, err
	}
	pb, ok := f.Tracks[appID]
	if !ok {
		return probe.Playback{}, probe.ErrUnsupported
	}
	return pb, nil
}

func (f *Fake) BrowserTab(_ context.Context, appID string) (probe.Tab, error) {
	if err := f.record("tab"); err != nil {
		return probe.Tab{}, err
	}
	tab, ok := f.Tabs[appID]
	if !ok {
		return probe.Tab{}, probe.ErrUnsupported
	}
	return tab, nil
}
