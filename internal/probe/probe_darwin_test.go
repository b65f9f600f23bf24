//go:build darwin

package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDarwin_FrontmostApp_Lowercased(t *testing.T) {
	f := &fakeRunner{out: map[string]string{"osascript -e": "com.Spotify.Client"}}
	got, err := newDarwin(f.run).FrontmostApp(context.Background())
	if err != nil {
		t.Fatalf("FrontmostApp: %v", err)
	}
	if got != "com.spotify.client" {
		t.Errorf("FrontmostApp = %q", got)
	}
}

func TestDarwin_IdleTime(t *testing.T) {
	f := &fakeRunner{out: map[string]string{"ioreg -c": `"HIDIdleTime" = 2000000000`}}
	got, err := newDarwin(f.run).IdleTime(context.Background())
	if err != nil {
		t.Fatalf("IdleTime: %v", err)
	}
	if got != 2*time.Second {
		t.Errorf("IdleTime = %v, want 2s", got)
	}
}

func TestDarwin_Playback(t *testing.T) {
	f := &fakeRunner{out: map[string]string{"osascript -e": "Song|||Artist"}}
	got, err := newDarwin(f.run).Playback(context.Background(), "com.spotify.client")
	if err != nil {
		t.Fatalf("Playback: %v", err)
	}
	if !got.Playing || got.Title != "Song" || got.Artist != "Artist" {
		t.Errorf("Playback = %+v", got)
	}
	if !strings.Contains(f.calls[0], `tell application "Spotify"`) {
		t.Errorf("script should target Spotify: %q", f.calls[0])
	}
}

func TestDarwin_Playback_Unsupported(t *testing.T) {
	_, err := newDarwin((&fakeRunner{}).run).Playback(context.Background(), "org.videolan.vlc")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestDarwin_BrowserTab_Safari(t *testing.T) {
	f := &fakeRunner{out: map[string]string{"osascript -e": "https://github.com/|||GitHub"}}
	got, err := newDarwin(f.run).BrowserTab(context.Background(), "com.apple.safari")
	if err != nil {
		t.Fatalf("BrowserTab: %v", err)
	}
	if got.URL != "https://github.com/" || got.Title != "GitHub" {
		t.Errorf("BrowserTab = %+v", got)
	}
	if !strings.Contains(f.calls[0], "front document") {
		t.Errorf("Safari script should use front document: %q", f.calls[0])
	}
}

func TestDarwin_IsRunning(t *testing.T) {
	f := &fakeRunner{out: map[string]string{"osascript -e": "true"}}
	got, err := newDarwin(f.run).IsRunning(context.Background(), "com.apple.music")
	if err != nil || !got {
		t.Errorf("IsRunning = %v, %v; want true, nil", got, err)
	}
}
