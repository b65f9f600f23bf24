//go:build linux

package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// linuxProbe answers queries on X11 desktops with xdotool, xprintidle and
// playerctl. Process names come from gopsutil.
type linuxProbe struct {
	run Runner
	// procs lists running process names. Replaced in tests.
	procs func(ctx context.Context) ([]string, error)
	// procName resolves a pid to its process name. Replaced in tests.
	procName func(ctx context.Context, pid int32) (string, error)
}

// New returns the Linux probe.
func New() (SystemProbe, error) {
	return newLinux(ExecRunner(DefaultTimeout)), nil
}

func newLinux(run Runner) *linuxProbe {
	return &linuxProbe{run: run, procs: processNames, procName: processName}
}

// ///////////////////////////////////////////////
// Global Queries
// ///////////////////////////////////////////////

func (p *linuxProbe) FrontmostApp(ctx context.Context) (string, error) {
	out, err := p.run(ctx, "xdotool", "getactivewindow", "getwindowpid")
	if err != nil {
		return "", fmt.Errorf("frontmost app: %w", err)
	}
	pid, err := strconv.ParseInt(out, 10, 32)
	if err != nil {
		return "", fmt.Errorf("frontmost app: parse pid %q: %w", out, err)
	}
	name, err := p.procName(ctx, int32(pid))
	if err != nil {
		return "", fmt.Errorf("frontmost app: %w", err)
	}
	return normalizeApp(name), nil
}

func (p *linuxProbe) IdleTime(ctx context.Context) (time.Duration, error) {
	out, err := p.run(ctx, "xprintidle")
	if err != nil {
		return 0, fmt.Errorf("idle time: %w", err)
	}
	return parseMillis(out)
}

// ///////////////////////////////////////////////
// Per-App Queries
// ///////////////////////////////////////////////

func (p *linuxProbe) IsRunning(ctx context.Context, appID string) (bool, error) {
	running, err := runningApps(ctx, p.procs)
	if err != nil {
		return false, fmt.Errorf("is running %q: %w", appID, err)
	}
	return running[appID], nil
}

func (p *linuxProbe) WindowTitle(ctx context.Context, appID string) (string, error) {
	out, err := p.run(ctx, "xdotool", "search", "--onlyvisible", "--class", appID, "getwindowname")
	if err != nil {
		return "", fmt.Errorf("window title %q: %w", appID, err)
	}
	first, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(first), nil
}

// mprisPlayers maps supported music apps to their MPRIS player names.
var mprisPlayers = map[string]string{
	"spotify":   "spotify",
	"rhythmbox": "rhythmbox",
	"elisa":     "elisa",
}

func (p *linuxProbe) Playback(ctx context.Context, appID string) (Playback, error) {
	player, ok := mprisPlayers[appID]
	if !ok {
		return Playback{}, unsupported("playback", appID)
	}
	format := "{{status}}" + trackSep + "{{title}}" + trackSep + "{{artist}}"
	out, err := p.run(ctx, "playerctl", "-p", player, "metadata", "--format", format)
	if err != nil {
		return Playback{}, fmt.Errorf("playback %q: %w", appID, err)
	}
	return parsePlayerctl(out), nil
}

// BrowserTab reads the tab title from the window title. The URL is not
// exposed to X11 clients and stays empty.
func (p *linuxProbe) BrowserTab(ctx context.Context, appID string) (Tab, error) {
	title, err := p.WindowTitle(ctx, appID)
	if err != nil {
		return Tab{}, fmt.Errorf("browser tab: %w", err)
	}
	return Tab{Title: tabTitle(title)}, nil
}
