// Package probe answers the questions Mark asks the operating system every
// poll cycle: which app is in front, how long the user has been idle, and the
// app-specific details plugins need (is an app running, its window title,
// what a music player is playing, the active browser tab).
//
// Each platform has its own implementation behind [SystemProbe]. macOS drives
// osascript and ioreg, Linux uses xdotool, xprintidle and playerctl together
// with gopsutil, and Windows calls user32 through golang.org/x/sys/windows.
// App identifiers are lowercased: bundle identifiers on macOS, executable
// names without extension elsewhere.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrUnsupported is returned for queries the platform, or the given app,
// cannot answer.
var ErrUnsupported = errors.New("probe: not supported")

// DefaultTimeout bounds every external command a probe runs.
const DefaultTimeout = 3 * time.Second

// Playback is a music player's current track.
type Playback struct {
	Title   string
	Artist  string
	Playing bool
}

// Tab is a browser's active tab.
type Tab struct {
	URL   string
	Title string
}

// SystemProbe is the OS capability set the daemon and plugins consume.
// Implementations are safe for sequential use from the poll loop.
type SystemProbe interface {
	// FrontmostApp returns the lowercased identifier of the focused app.
	FrontmostApp(ctx context.Context) (string, error)
	// IdleTime returns the time since the last keyboard or mouse input.
	IdleTime(ctx context.Context) (time.Duration, error)
	// IsRunning reports whether the app has a live process.
	IsRunning(ctx context.Context, appID string) (bool, error)
	// WindowTitle returns the title of the app's front window.
	WindowTitle(ctx context.Context, appID string) (string, error)
	// Playback returns what a supported music player is playing.
	Playback(ctx context.Context, appID string) (Playback, error)
	// BrowserTab returns the active tab of a supported browser.
	BrowserTab(ctx context.Context, appID string) (Tab, error)
}

// ///////////////////////////////////////////////
// Command Runner
// ///////////////////////////////////////////////

// Runner runs an external command and returns its trimmed stdout.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner returns a Runner that executes commands with exec.CommandContext,
// each bounded by timeout.
func ExecRunner(timeout time.Duration) Runner {
	return func(ctx context.Context, name string, args ...string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, name, args...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", fmt.Errorf("%s: %w", name, ctxErr)
			}
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
		}
		return strings.TrimSpace(stdout.String()), nil
	}
}

// unsupported wraps ErrUnsupported with the query and app that hit it.
func unsupported(query, appID string) error {
	return fmt.Errorf("%s for %q: %w", query, appID, ErrUnsupported)
}
