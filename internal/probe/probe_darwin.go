//go:build darwin

package probe

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// darwinProbe answers queries with osascript and ioreg.
type darwinProbe struct {
	run Runner
}

// New returns the macOS probe.
func New() (SystemProbe, error) {
	return newDarwin(ExecRunner(DefaultTimeout)), nil
}

func newDarwin(run Runner) *darwinProbe {
	return &darwinProbe{run: run}
}

func (p *darwinProbe) script(ctx context.Context, src string) (string, error) {
	return p.run(ctx, "osascript", "-e", src)
}

// ///////////////////////////////////////////////
// Global Queries
// ///////////////////////////////////////////////

const frontmostScript = `tell application "System Events"
	return bundle identifier of first process whose frontmost is true
end tell`

func (p *darwinProbe) FrontmostApp(ctx context.Context) (string, error) {
	out, err := p.script(ctx, frontmostScript)
	if err != nil {
		return "", fmt.Errorf("frontmost app: %w", err)
	}
	return strings.ToLower(out), nil
}

func (p *darwinProbe) IdleTime(ctx context.Context) (time.Duration, error) {
	out, err := p.run(ctx, "ioreg", "-c", "IOHIDSystem", "-d", "4")
	if err != nil {
		return 0, fmt.Errorf("idle time: %w", err)
	}
	return parseIOReg(out)
}

// ///////////////////////////////////////////////
// Per-App Queries
// ///////////////////////////////////////////////

func (p *darwinProbe) IsRunning(ctx context.Context, appID string) (bool, error) {
	src := fmt.Sprintf(`tell application "System Events"
	return (bundle identifier of every process) contains %q
end tell`, appID)
	out, err := p.script(ctx, src)
	if err != nil {
		return false, fmt.Errorf("is running %q: %w", appID, err)
	}
	return parseBool(out), nil
}

func (p *darwinProbe) WindowTitle(ctx context.Context, appID string) (string, error) {
	src := fmt.Sprintf(`tell application "System Events"
	set procs to every application process whose bundle identifier is %q
	if (count of procs) is 0 then return ""
	tell item 1 of procs
		if (count of windows) is 0 then return ""
		return name of front window
	end tell
end tell`, appID)
	out, err := p.script(ctx, src)
	if err != nil {
		return "", fmt.Errorf("window title %q: %w", appID, err)
	}
	return out, nil
}

// players maps supported music apps to their scripting names.
var players = map[string]string{
	"com.spotify.client": "Spotify",
	"com.apple.music":    "Music",
}

func (p *darwinProbe) Playback(ctx context.Context, appID string) (Playback, error) {
	name, ok := players[appID]
	if !ok {
		return Playback{}, unsupported("playback", appID)
	}
	src := fmt.Sprintf(`tell application "System Events"
	if not (exists process %[1]q) then return ""
end tell
tell application %[1]q
	if player state is playing then
		return (name of current track) & "%[2]s" & (artist of current track)
	end if
	return "PAUSED%[2]s"
end tell`, name, trackSep)
	out, err := p.script(ctx, src)
	if err != nil {
		return Playback{}, fmt.Errorf("playback %q: %w", appID, err)
	}
	return parseTrack(out), nil
}

// browsers maps supported browsers to their scripting name and whether they
// use Safari's document model instead of Chromium's tab model.
var browsers = map[string]struct {
	name   string
	safari bool
}{
	"company.thebrowser.browser": {name: "Arc"},
	"com.google.chrome":          {name: "Google Chrome"},
	"com.brave.browser":          {name: "Brave Browser"},
	"com.microsoft.edgemac":      {name: "Microsoft Edge"},
	"com.apple.safari":           {name: "Safari", safari: true},
}

func (p *darwinProbe) BrowserTab(ctx context.Context, appID string) (Tab, error) {
	b, ok := browsers[appID]
	if !ok {
		return Tab{}, unsupported("browser tab", appID)
	}
	urlOf, titleOf := "URL of active tab of front window", "title of active tab of front window"
	if b.safari {
		urlOf, titleOf = "URL of front document", "name of front document"
	}
	src := fmt.Sprintf(`tell application %q
	if (count of windows) is 0 then return ""
	return (%s) & %q & (%s)
end tell`, b.name, urlOf, trackSep, titleOf)
	out, err := p.script(ctx, src)
	if err != nil {
		return Tab{}, fmt.Errorf("browser tab %q: %w", appID, err)
	}
	url, title, _ := strings.Cut(out, trackSep)
	return Tab{URL: url, Title: title}, nil
}
