package probe

import (
	"testing"
	"time"
)

// ///////////////////////////////////////////////
// Track Parsing
// ///////////////////////////////////////////////

func TestParseTrack(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Playback
	}{
		{"empty", "", Playback{}},
		{"paused", "PAUSED|||", Playback{}},
		{"playing", "Song|||Artist", Playback{Title: "Song", Artist: "Artist", Playing: true}},
		{"empty artist", "Song|||", Playback{Title: "Song", Playing: true}},
		{"malformed", "no separator", Playback{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseTrack(tt.in); got != tt.want {
				t.Errorf("parseTrack(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePlayerctl(t *testing.T) {
	tests := []struct {
		in   string
		want Playback
	}{
		{"Playing|||Song|||Artist", Playback{Title: "Song", Artist: "Artist", Playing: true}},
		{"Paused|||Song|||Artist", Playback{}},
		{"Stopped||||||", Playback{}},
		{"garbage", Playback{}},
	}
	for _, tt := range tests {
		if got := parsePlayerctl(tt.in); got != tt.want {
			t.Errorf("parsePlayerctl(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseSpotifyTitle(t *testing.T) {
	tests := []struct {
		in   string
		want Playback
	}{
		{"Spotify Premium", Playback{}},
		{"Spotify", Playback{}},
		{"", Playback{}},
		{"Daft Punk - One More Time", Playback{Title: "One More Time", Artist: "Daft Punk", Playing: true}},
		{"AC/DC - T.N.T. - Live", Playback{Title: "T.N.T. - Live", Artist: "AC/DC", Playing: true}},
	}
	for _, tt := range tests {
		if got := parseSpotifyTitle(tt.in); got != tt.want {
			t.Errorf("parseSpotifyTitle(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

// ///////////////////////////////////////////////
// Idle Parsing
// ///////////////////////////////////////////////

func TestParseIOReg(t *testing.T) {
	out := `    | |   "HIDIdleTime" = 61000000000
    | |   "HIDParameters" = {}`
	got, err := parseIOReg(out)
	if err != nil {
		t.Fatalf("parseIOReg: %v", err)
	}
	if got != 61*time.Second {
		t.Errorf("parseIOReg = %v, want 61s", got)
	}

	if _, err := parseIOReg("nothing here"); err == nil {
		t.Error("parseIOReg with no HIDIdleTime: expected error")
	}
}

func TestParseMillis(t *testing.T) {
	got, err := parseMillis(" 1500\n")
	if err != nil {
		t.Fatalf("parseMillis: %v", err)
	}
	if got != 1500*time.Millisecond {
		t.Errorf("parseMillis = %v, want 1.5s", got)
	}
	if _, err := parseMillis("abc"); err == nil {
		t.Error("parseMillis(abc): expected error")
	}
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

func TestTabTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Pull requests · golang/go - Google Chrome", "Pull requests · golang/go"},
		{"Inbox — Mozilla Firefox", "Inbox"},
		{"A - B - Brave", "A - B"},
		{"Untitled", "Untitled"},
		{"- leading", "- leading"},
	}
	for _, tt := range tests {
		if got := tabTitle(tt.in); got != tt.want {
			t.Errorf("tabTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeApp(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Spotify.exe", "spotify"},
		{" Code ", "code"},
		{"firefox", "firefox"},
	}
	for _, tt := range tests {
		if got := normalizeApp(tt.in); got != tt.want {
			t.Errorf("normalizeApp(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBool(t *testing.T) {
	if !parseBool("true\n") || !parseBool("TRUE") {
		t.Error("parseBool should accept true in any case")
	}
	if parseBool("false") || parseBool("") {
		t.Error("parseBool should reject false and empty")
	}
}
