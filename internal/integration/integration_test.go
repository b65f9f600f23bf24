// Package integration runs Mark end to end: a config file on disk, the
// provider chain over a scripted probe, the publisher and the HTTP client
// talking to a fake Discord API.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dombom/mark"
	"github.com/dombom/mark/internal/config"
	"github.com/dombom/mark/internal/discord"
	"github.com/dombom/mark/internal/engine"
	"github.com/dombom/mark/internal/logger"
	"github.com/dombom/mark/internal/paths"
	"github.com/dombom/mark/internal/plugin"
	"github.com/dombom/mark/internal/presence"
	"github.com/dombom/mark/internal/probe"
	"github.com/dombom/mark/internal/probe/probetest"
	"github.com/dombom/mark/internal/status"
)

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// patch is one request body received by the fake API.
type patch struct {
	CustomStatus struct {
		Text      string `json:"text"`
		EmojiName string `json:"emoji_name"`
	} `json:"custom_status"`
	Status string `json:"status"`
}

// fakeAPI records settings patches sent with the expected token.
type fakeAPI struct {
	mu      sync.Mutex
	patches []patch
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/users/@me/settings" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "test-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var p patch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode patch: %v", err)
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.patches = append(f.patches, p)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
}

func (f *fakeAPI) sent() []patch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]patch(nil), f.patches...)
}

// pipeline wires a config, a probe and a publisher the way the daemon does.
type pipeline struct {
	cfg     *config.Config
	probe   probe.SystemProbe
	manager *engine.Manager
	pub     *presence.Publisher
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)
}

func newPipeline(t *testing.T, dataDir string, p probe.SystemProbe, api *fakeAPI) *pipeline {
	t.Helper()
	cfg, err := config.Load(dataDir)
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}
	m, err := engine.New(plugin.Options{Config: cfg, Probe: p, Logger: logger.Discard(), Now: fixedNow})
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	client, err := discord.NewAPIClient("test-token", discord.WithAPIBase(srv.URL), discord.WithRetryMax(0))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })

	return &pipeline{
		cfg:     cfg,
		probe:   p,
		manager: m,
		pub:     presence.New(presence.Options{Sink: client, Gap: 0}),
	}
}

func (p *pipeline) cycle(t *testing.T) status.Status {
	t.Helper()
	ctx := context.Background()
	g, err := engine.Snapshot(ctx, p.probe, p.cfg.Statuses.Plugins.Enabled)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	st, err := p.manager.Resolve(ctx, g)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if _, err := p.pub.Publish(ctx, st); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	return st
}

func writeDefaultConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(paths.DataDir{Root: dir}.Config(), mark.DefaultConfigTOML, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// ///////////////////////////////////////////////
// Tests
// ///////////////////////////////////////////////

func TestDefaultConfig_MusicReachesAPI(t *testing.T) {
	api := &fakeAPI{}
	f := &probetest.Fake{
		Frontmost: "com.apple.finder",
		Running:   map[string]bool{"com.spotify.client": true},
		Tracks: map[string]probe.Playback{
			"com.spotify.client": {Title: "Redbone", Artist: "Childish Gambino", Playing: true},
		},
	}
	p := newPipeline(t, writeDefaultConfig(t), f, api)

	p.cycle(t)

	got := api.sent()
	if len(got) != 1 {
		t.Fatalf("patches = %d, want 1", len(got))
	}
	if got[0].CustomStatus.EmojiName != "🎧" ||
		got[0].CustomStatus.Text != "Listening to Redbone by Childish Gambino: 09:26" ||
		got[0].Status != "online" {
		t.Errorf("patch = %+v", got[0])
	}
}

func TestDefaultConfig_FallbackAndDedupe(t *testing.T) {
	api := &fakeAPI{}
	f := &probetest.Fake{Frontmost: "com.apple.finder"}
	p := newPipeline(t, writeDefaultConfig(t), f, api)

	first := p.cycle(t)
	second := p.cycle(t)

	if first != second {
		t.Fatalf("cycles disagree: %v vs %v", first, second)
	}
	if first.Text != "Organizing files: 09:26" {
		t.Errorf("Text = %q", first.Text)
	}
	if n := len(api.sent()); n != 1 {
		t.Errorf("patches = %d, want 1 for an unchanged status", n)
	}
}

func TestDefaultConfig_IdleOverridesMusic(t *testing.T) {
	api := &fakeAPI{}
	f := &probetest.Fake{
		Frontmost: "com.spotify.client",
		Idle:      7 * time.Minute,
		Running:   map[string]bool{"com.spotify.client": true},
		Tracks:    map[string]probe.Playback{"com.spotify.client": {Title: "Redbone", Playing: true}},
	}
	p := newPipeline(t, writeDefaultConfig(t), f, api)

	st := p.cycle(t)

	if st.Emoji != "😴" || st.Text != "Away (7m): 09:26" || st.Type != status.Idle {
		t.Errorf("status = %v", st)
	}
	if f.Calls("playback") != 0 {
		t.Errorf("playback queried %d times while idle", f.Calls("playback"))
	}
}

func TestLegacySettings_Imported(t *testing.T) {
	dir := t.TempDir()
	legacy := `{
  // imported from the previous settings format
  "update_interval": 10,
  "colorblind": true,
  "statuses": {
    "default": ["🛠", "Building", "dnd"],
    "apps": {"com.apple.finder": ["📁", "Sorting"]},
    "plugins": {"_enabled": []}
  }
}`
	if err := os.WriteFile(filepath.Join(dir, paths.LegacySettingsFile), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	api := &fakeAPI{}
	p := newPipeline(t, dir, &probetest.Fake{Frontmost: "com.example.unknown"}, api)

	if !p.cfg.Discord.Colorblind || p.cfg.UpdateInterval != 10 {
		t.Errorf("legacy settings not carried over: %+v", p.cfg)
	}
	st := p.cycle(t)
	if st.Emoji != "🛠" || st.Text != "Building: 09:26" || st.Type != status.DND {
		t.Errorf("status = %v", st)
	}
	if _, err := os.Stat(filepath.Join(dir, paths.ConfigFile)); err != nil {
		t.Errorf("config.toml not written after import: %v", err)
	}
}

func TestPublisher_ResetSendsDefault(t *testing.T) {
	api := &fakeAPI{}
	f := &probetest.Fake{Frontmost: "com.apple.finder"}
	p := newPipeline(t, writeDefaultConfig(t), f, api)

	if err := p.pub.Reset(context.Background(), p.cfg.DefaultStatus()); err != nil {
		t.Fatal(err)
	}
	got := api.sent()
	if len(got) != 1 || got[0].CustomStatus.Text != "Working" || got[0].CustomStatus.EmojiName != "💻" {
		t.Errorf("patches = %+v", got)
	}
}
