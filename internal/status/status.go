// Package status defines the status tuple that Mark publishes and the pure
// string helpers every plugin uses to compose its text.
//
// A [Status] is an emoji, a display text and a presence [Type]. Plugins build
// one per poll cycle; the presence publisher compares it against the last one
// sent to decide whether Discord needs an update.
package status

import (
	"regexp"
	"strings"
)

// ///////////////////////////////////////////////
// Presence Type
// ///////////////////////////////////////////////

// Type is the Discord presence type shown next to the custom status.
type Type string

const (
	// Online shows the green presence dot.
	Online Type = "online"
	// Idle shows the yellow moon.
	Idle Type = "idle"
	// DND shows the red do-not-disturb badge.
	DND Type = "dnd"
	// Invisible hides presence entirely.
	Invisible Type = "invisible"
)

// ParseType converts a configured type string into a [Type]. Matching is
// case-insensitive; anything unrecognized, including the empty string, maps
// to [Online] because Discord rejects unknown presence values.
func ParseType(s string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Idle:
		return Idle
	case DND:
		return DND
	case Invisible:
		return Invisible
	default:
		return Online
	}
}

// Valid reports whether t is one of the four presence types Discord accepts.
func (t Type) Valid() bool {
	switch t {
	case Online, Idle, DND, Invisible:
		return true
	}
	return false
}

// ///////////////////////////////////////////////
// Status
// ///////////////////////////////////////////////

// Built-in fallbacks used when neither the apps table nor the configured
// default provides an entry.
const (
	FallbackEmoji = "❓"
	FallbackText  = "No status"
)

// Status is the resolved (emoji, text, type) tuple for one poll cycle.
type Status struct {
	Emoji string
	Text  string
	Type  Type
}

// Fallback returns the built-in status used when nothing else is configured.
func Fallback() Status {
	return Status{Emoji: FallbackEmoji, Text: FallbackText, Type: Online}
}

// String renders the status for logs and the console, e.g. "🎵 Listening (online)".
func (s Status) String() string {
	return s.Emoji + " " + s.Text + " (" + string(s.Type) + ")"
}

// ///////////////////////////////////////////////
// Formatting Helpers
// ///////////////////////////////////////////////

// Format joins a prefix, main text, separator and time suffix into one display
// string. Callers pass an empty separator and suffix when time display is off.
func Format(prefix, main, sep, suffix string) string {
	return prefix + main + sep + suffix
}

// annotationRe matches the shortest bracketed or parenthesized span.
var annotationRe = regexp.MustCompile(`\[.*?\]|\(.*?\)`)

// Clean removes bracketed and parenthesized annotations such as
// "(Remastered 2011)" or "[Explicit]" and trims surrounding whitespace.
func Clean(text string) string {
	return strings.TrimSpace(annotationRe.ReplaceAllString(text, ""))
}
