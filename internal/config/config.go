// Package config provides configuration loading and defaults for the Mark daemon.
//
// Configuration is loaded from a TOML file in the user's data directory.
// The package covers the poll and rate-limit intervals, logging, the Discord
// transport, the status tables every plugin reads and the per-plugin option
// sections, with sensible defaults for everything that may be left out.
package config

//go:generate go run ../../cmd/genconfig

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/dombom/mark/internal/atomicfile"
	"github.com/dombom/mark/internal/paths"
	"github.com/dombom/mark/internal/status"
	"github.com/lestrrat-go/strftime"
)

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = 1

// MinRateLimit is the shortest gap Mark leaves between two Discord updates.
// The poll period is clamped to it and the shutdown reset waits it out.
const MinRateLimit = 2900 * time.Millisecond

// Defaults shared by the status helpers when the config leaves them empty.
const (
	DefaultTimeFormat = "%H:%M"
	DefaultSeparator  = ": "
	DefaultTokenEnv   = "DISCORD_TOKEN"
)

// Discord transport modes.
const (
	ModeAPI = "api"
	ModeIPC = "ipc"
)

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version.
	Version int `toml:"version"`
	// UpdateInterval is the minimum number of seconds between two status
	// updates sent to Discord.
	UpdateInterval float64 `toml:"update_interval"`
	// RetryInterval is the poll period in seconds. Values below
	// [MinRateLimit] are raised to it.
	RetryInterval float64 `toml:"retry_interval"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
	// Discord holds the presence transport settings.
	Discord DiscordConfig `toml:"discord"`
	// Statuses holds the status tables and plugin settings.
	Statuses StatusesConfig `toml:"statuses"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, success, warn, error, fail).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// DiscordConfig holds Discord transport settings.
type DiscordConfig struct {
	// Mode selects how statuses reach Discord: "api" patches the account's
	// custom status over HTTPS, "ipc" drives Rich Presence through the local
	// Discord client.
	Mode string `toml:"mode"`
	// TokenEnv names the environment variable holding the user token for
	// "api" mode.
	TokenEnv string `toml:"token_env"`
	// AppID is the Discord application ID used in "ipc" mode.
	AppID string `toml:"app_id"`
	// Colorblind replaces the colored presence dot in console output with
	// a letter.
	Colorblind bool `toml:"colorblind"`
}

// StatusEntry is a configured [emoji, text, type?] triple. The type element
// is optional and defaults to online.
type StatusEntry []string

// Status converts the entry into a [status.Status]. ok is false when the
// entry has fewer than two elements.
func (e StatusEntry) Status() (s status.Status, ok bool) {
	if len(e) < 2 {
		return status.Status{}, false
	}
	s = status.Status{Emoji: e[0], Text: e[1], Type: status.Online}
	if len(e) > 2 {
		s.Type = status.ParseType(e[2])
	}
	return s, true
}

// StatusesConfig holds the shared status tables and plugin settings.
type StatusesConfig struct {
	// Default is the status used when no app entry applies and on shutdown.
	Default StatusEntry `toml:"default"`
	// TimeFormat is a strftime pattern for the time suffix.
	TimeFormat string `toml:"time_format"`
	// ShowTime appends the separator and formatted time to every status.
	ShowTime bool `toml:"show_time"`
	// Separator goes between status text and time.
	Separator string `toml:"separator"`
	// Apps maps a lowercased app identifier to its default status.
	Apps map[string]StatusEntry `toml:"apps"`
	// Idle holds the idle plugin settings.
	Idle IdleConfig `toml:"idle"`
	// Plugins holds the enabled list and per-plugin sections.
	Plugins PluginsConfig `toml:"plugins"`
}

// IdleConfig holds the idle plugin settings.
type IdleConfig struct {
	// Timeout is the number of idle minutes before the idle status applies.
	Timeout float64 `toml:"timeout"`
	// Status is the [emoji, text] shown while idle.
	Status StatusEntry `toml:"status"`
	// Display is "elapsed" to append the idle minutes, anything else for
	// the bare text.
	Display string `toml:"display"`
}

// PluginsConfig holds the ordered enabled list and each optional plugin's
// section. A nil section means the plugin has no settings object.
type PluginsConfig struct {
	// Enabled lists plugin IDs in priority order.
	Enabled []string `toml:"_enabled"`
	// Music holds music plugin settings.
	Music *MusicConfig `toml:"music,omitempty"`
	// Browser holds browser plugin settings.
	Browser *BrowserConfig `toml:"browser,omitempty"`
	// Code holds code editor plugin settings.
	Code *CodeConfig `toml:"code,omitempty"`
}

// MusicConfig holds music plugin settings.
type MusicConfig struct {
	// Apps lists the player app IDs in priority order.
	Apps []string `toml:"apps"`
	// When is "playing", "focused" or "both".
	When string `toml:"when,omitempty"`
	// Display is "title", "artist", "both" or anything else for the app's
	// default text.
	Display string `toml:"display,omitempty"`
	// Prefix puts the app's default text and " to " before the track.
	Prefix *bool `toml:"prefix,omitempty"`
	// RemoveExtras strips bracketed and parenthesized parts from titles.
	RemoveExtras *bool `toml:"remove_extras,omitempty"`
}

// WhenMode returns the configured activation mode, "playing" by default.
func (m *MusicConfig) WhenMode() string { return stringOr(m.When, "playing") }

// DisplayMode returns the configured display mode, "artist_title" by default.
func (m *MusicConfig) DisplayMode() string { return stringOr(m.Display, "artist_title") }

// PrefixEnabled reports whether the prefix is on (the default).
func (m *MusicConfig) PrefixEnabled() bool { return boolOr(m.Prefix, true) }

// RemoveExtrasEnabled reports whether title cleanup is on (the default).
func (m *MusicConfig) RemoveExtrasEnabled() bool { return boolOr(m.RemoveExtras, true) }

// BrowserConfig holds browser plugin settings.
type BrowserConfig struct {
	// Apps lists the browser app IDs in priority order.
	Apps []string `toml:"apps"`
	// Display is "title", "url" or anything else for the app's default text.
	Display string `toml:"display,omitempty"`
	// Prefix puts the app's default text before the tab info.
	Prefix *bool `toml:"prefix,omitempty"`
	// UseSpecial enables the SpecialStatuses table.
	UseSpecial *bool `toml:"use_special,omitempty"`
	// SpecialStatuses maps a domain, or a doublestar glob over domains, to
	// a status that replaces the display mode.
	SpecialStatuses map[string]StatusEntry `toml:"special_statuses,omitempty"`
}

// DisplayMode returns the configured display mode, "none" by default.
func (b *BrowserConfig) DisplayMode() string { return stringOr(b.Display, "none") }

// PrefixEnabled reports whether the prefix is on (the default).
func (b *BrowserConfig) PrefixEnabled() bool { return boolOr(b.Prefix, true) }

// UseSpecialEnabled reports whether special statuses apply (the default).
func (b *BrowserConfig) UseSpecialEnabled() bool { return boolOr(b.UseSpecial, true) }

// CodeConfig holds code editor plugin settings.
type CodeConfig struct {
	// Apps lists the editor app IDs in priority order.
	Apps []string `toml:"apps"`
	// Display is "project", "file", "both" or anything else for the app's
	// default text.
	Display string `toml:"display,omitempty"`
	// Prefix puts the app's default text and " in " before the value.
	Prefix *bool `toml:"prefix,omitempty"`
}

// DisplayMode returns the configured display mode, "file_project" by default.
func (c *CodeConfig) DisplayMode() string { return stringOr(c.Display, "file_project") }

// PrefixEnabled reports whether the prefix is on (the default).
func (c *CodeConfig) PrefixEnabled() bool { return boolOr(c.Prefix, true) }

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Bool returns a pointer to v, for filling the optional flags in code.
func Bool(v bool) *bool { return &v }

// ///////////////////////////////////////////////
// Derived Values
// ///////////////////////////////////////////////

// PollInterval returns the retry interval as a duration, clamped to
// [MinRateLimit].
func (c *Config) PollInterval() time.Duration {
	d := time.Duration(c.RetryInterval * float64(time.Second))
	if d < MinRateLimit {
		return MinRateLimit
	}
	return d
}

// UpdateGap returns the update interval as a duration.
func (c *Config) UpdateGap() time.Duration {
	return time.Duration(c.UpdateInterval * float64(time.Second))
}

// IdleTimeout returns the idle plugin threshold as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Statuses.Idle.Timeout * float64(time.Minute))
}

// DefaultStatus returns the configured default status, or the built-in
// fallback when none is configured.
func (c *Config) DefaultStatus() status.Status {
	if s, ok := c.Statuses.Default.Status(); ok {
		return s
	}
	return status.Fallback()
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults. No
// optional plugin is enabled and none has a settings section.
func DefaultConfig() *Config {
	return &Config{
		Version:        CurrentVersion,
		UpdateInterval: 5,
		RetryInterval:  5,
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
		Discord: DiscordConfig{
			Mode:     ModeAPI,
			TokenEnv: DefaultTokenEnv,
		},
		Statuses: StatusesConfig{
			Default:    StatusEntry{"💻", "Working", "online"},
			TimeFormat: DefaultTimeFormat,
			ShowTime:   true,
			Separator:  DefaultSeparator,
			Apps:       map[string]StatusEntry{},
			Idle: IdleConfig{
				Timeout: 5,
				Status:  StatusEntry{"😴", "Away"},
				Display: "elapsed",
			},
			Plugins: PluginsConfig{
				Enabled: []string{},
			},
		},
	}
}

// ///////////////////////////////////////////////
// Example Configuration
// ///////////////////////////////////////////////

// ExampleConfig returns a Config suitable for generating config.default.toml:
// the defaults plus a populated apps table and all three optional plugins.
func ExampleConfig() *Config {
	cfg := DefaultConfig()
	cfg.Statuses.Apps = map[string]StatusEntry{
		"com.spotify.client":         {"🎧", "Listening"},
		"com.apple.music":            {"🎵", "Listening"},
		"company.thebrowser.browser": {"🌐", "Browsing"},
		"com.google.chrome":          {"🌐", "Browsing"},
		"com.apple.safari":           {"🧭", "Browsing"},
		"com.microsoft.vscode":       {"👨‍💻", "Coding", "dnd"},
		"dev.zed.zed":                {"⚡", "Coding", "dnd"},
		"com.apple.finder":           {"📁", "Organizing files"},
	}
	cfg.Statuses.Plugins = PluginsConfig{
		Enabled: []string{"music", "code", "browser"},
		Music: &MusicConfig{
			Apps:    []string{"com.spotify.client", "com.apple.music"},
			When:    "playing",
			Display: "both",
		},
		Browser: &BrowserConfig{
			Apps:    []string{"company.thebrowser.browser", "com.google.chrome", "com.apple.safari"},
			Display: "url",
			SpecialStatuses: map[string]StatusEntry{
				"github.com":   {"🐙", "Reviewing code"},
				"youtube.com":  {"📺", "Watching videos"},
				"*.google.com": {"🔎", "Searching"},
			},
		},
		Code: &CodeConfig{
			Apps:    []string{"com.microsoft.vscode", "dev.zed.zed", "dev.zed.zed-preview"},
			Display: "project",
		},
	}
	return cfg
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// ErrNoConfig is returned by [Load] when neither config.toml nor a legacy
// settings.jsonc exists in the data directory.
var ErrNoConfig = errors.New("no config file")

// Load reads and parses the configuration file from dataDir/config.toml.
// When it is missing but dataDir/settings.jsonc exists, the legacy file is
// converted with [ImportLegacy] and saved as config.toml. When neither
// exists, Load returns DefaultConfig and an error wrapping [ErrNoConfig].
func Load(dataDir string) (*Config, error) {
	dir := paths.DataDir{Root: dataDir}
	path := dir.Config()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		return loadLegacy(dir)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadLegacy imports settings.jsonc when present and persists the result.
func loadLegacy(dir paths.DataDir) (*Config, error) {
	legacy := dir.LegacySettings()
	if _, err := os.Stat(legacy); err != nil {
		return DefaultConfig(), fmt.Errorf("%w in %s", ErrNoConfig, dir.Root)
	}

	cfg, err := ImportLegacy(legacy)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filepath.Base(legacy), err)
	}
	if err := cfg.Save(dir.Config()); err != nil {
		slog.Warn("failed to save imported config", "error", err)
	}
	return cfg, nil
}

// Parse decodes TOML data over DefaultConfig and validates the result.
// Keys the schema does not know are logged and otherwise ignored.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slog.Warn("ignoring unknown config keys", "keys", strings.Join(keys, ", "))
	}
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Save encodes the config as TOML straight into an atomic replacement of path.
func (c *Config) Save(path string) error {
	return atomicfile.Stream(path, 0o644, func(w io.Writer) error {
		if err := toml.NewEncoder(w).Encode(c); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		return nil
	})
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "success": true,
	"warn": true, "error": true, "fail": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Version > CurrentVersion {
		return fmt.Errorf("config version %d is newer than supported version %d", c.Version, CurrentVersion)
	}

	if c.UpdateInterval < 0 {
		return fmt.Errorf("update_interval must be >= 0, got %v", c.UpdateInterval)
	}

	if c.RetryInterval < 0 {
		return fmt.Errorf("retry_interval must be >= 0, got %v", c.RetryInterval)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, success, warn, error, or fail", c.Log.Level)
	}

	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	switch c.Discord.Mode {
	case ModeAPI:
		if c.Discord.TokenEnv == "" {
			return fmt.Errorf("discord.token_env must be set in %q mode", ModeAPI)
		}
	case ModeIPC:
		if c.Discord.AppID == "" {
			return fmt.Errorf("discord.app_id must be set in %q mode", ModeIPC)
		}
	default:
		return fmt.Errorf("invalid discord.mode %q: must be api or ipc", c.Discord.Mode)
	}

	if err := c.Statuses.validate(); err != nil {
		return err
	}
	return nil
}

func (s *StatusesConfig) validate() error {
	if len(s.Default) > 0 {
		if err := validateEntry("statuses.default", s.Default); err != nil {
			return err
		}
	}

	if s.TimeFormat != "" {
		if _, err := strftime.New(s.TimeFormat); err != nil {
			return fmt.Errorf("invalid statuses.time_format %q: %w", s.TimeFormat, err)
		}
	}

	for app, entry := range s.Apps {
		if err := validateEntry(fmt.Sprintf("statuses.apps.%q", app), entry); err != nil {
			return err
		}
	}

	if s.Idle.Timeout < 0 {
		return fmt.Errorf("statuses.idle.timeout must be >= 0, got %v", s.Idle.Timeout)
	}
	if err := validateEntry("statuses.idle.status", s.Idle.Status); err != nil {
		return err
	}

	if m := s.Plugins.Music; m != nil {
		switch m.WhenMode() {
		case "playing", "focused", "both":
		default:
			return fmt.Errorf("invalid statuses.plugins.music.when %q: must be playing, focused, or both", m.When)
		}
	}

	if b := s.Plugins.Browser; b != nil {
		for pattern, entry := range b.SpecialStatuses {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("invalid statuses.plugins.browser.special_statuses key %q: bad glob pattern", pattern)
			}
			if err := validateEntry(fmt.Sprintf("statuses.plugins.browser.special_statuses.%q", pattern), entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateEntry checks that a status entry has two or three elements. An
// unrecognized type is not an error; it is sent as online.
func validateEntry(name string, e StatusEntry) error {
	if len(e) < 2 || len(e) > 3 {
		return fmt.Errorf("%s must be [emoji, text] or [emoji, text, type], got %d elements", name, len(e))
	}
	if len(e) == 3 && !status.Type(strings.ToLower(e[2])).Valid() {
		slog.Warn("unknown presence type, using online", "entry", name, "type", e[2])
	}
	return nil
}
