package probe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// trackSep separates fields in player query output.
const trackSep = "|||"

// parseTrack reads "title|||artist" as a playing track. Empty output and
// "PAUSED|||" mean nothing is playing.
func parseTrack(out string) Playback {
	if out == "" || out == "PAUSED"+trackSep {
		return Playback{}
	}
	parts := strings.Split(out, trackSep)
	if len(parts) != 2 {
		return Playback{}
	}
	return Playback{Title: parts[0], Artist: parts[1], Playing: true}
}

// parsePlayerctl reads "status|||title|||artist" as printed by
// playerctl metadata --format.
func parsePlayerctl(out string) Playback {
	parts := strings.Split(out, trackSep)
	if len(parts) != 3 || parts[0] != "Playing" {
		return Playback{}
	}
	return Playback{Title: parts[1], Artist: parts[2], Playing: true}
}

// hidIdleRe matches the HIDIdleTime property in ioreg output.
var hidIdleRe = regexp.MustCompile(`"HIDIdleTime"\s*=\s*(\d+)`)

// parseIOReg extracts HIDIdleTime (nanoseconds) from ioreg -c IOHIDSystem.
func parseIOReg(out string) (time.Duration, error) {
	m := hidIdleRe.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("HIDIdleTime not found in ioreg output")
	}
	ns, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse HIDIdleTime: %w", err)
	}
	return time.Duration(ns), nil
}

// parseMillis reads a plain millisecond count, as printed by xprintidle.
func parseMillis(out string) (time.Duration, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// spotifyIdleTitles are the window titles Spotify shows when not playing.
var spotifyIdleTitles = map[string]bool{
	"":                true,
	"spotify":         true,
	"spotify free":    true,
	"spotify premium": true,
}

// parseSpotifyTitle reads Spotify's "Artist - Title" window title.
func parseSpotifyTitle(title string) Playback {
	if spotifyIdleTitles[strings.ToLower(title)] {
		return Playback{}
	}
	artist, track, ok := strings.Cut(title, " - ")
	if !ok {
		return Playback{}
	}
	return Playback{Title: track, Artist: artist, Playing: true}
}

// tabTitle strips the trailing " - Browser Name" from a browser window title.
func tabTitle(windowTitle string) string {
	for _, sep := range []string{" — ", " - "} {
		if i := strings.LastIndex(windowTitle, sep); i > 0 {
			return windowTitle[:i]
		}
	}
	return windowTitle
}

// normalizeApp lowercases a process name and drops a trailing ".exe".
func normalizeApp(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".exe")
}

// parseBool reads AppleScript's "true"/"false".
func parseBool(out string) bool {
	return strings.EqualFold(strings.TrimSpace(out), "true")
}
