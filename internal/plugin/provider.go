package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dombom/mark/internal/config"
	"github.com/dombom/mark/internal/logger"
	"github.com/dombom/mark/internal/probe"
	"github.com/dombom/mark/internal/status"
	"github.com/lestrrat-go/strftime"
)

// ErrNoSettings is returned by a provider factory when the configuration has
// no section for that provider.
var ErrNoSettings = errors.New("plugin: no settings object")

// Provider is a status provider in the engine's priority chain.
type Provider interface {
	// ID is the provider's identifier as used in the enabled list.
	ID() string
	// GatherContext queries the OS for the provider's app-specific fields.
	GatherContext(ctx context.Context) AppContext
	// Active reports whether the provider's status applies this cycle.
	Active(c Context) bool
	// BuildStatus returns the provider's status. It must only be called
	// when Active reported true for the same context.
	BuildStatus(c Context) status.Status
}

// Flatten builds the context p decides from: g verbatim plus the apps p
// gathers itself. Nothing gathered by another provider is included.
func Flatten(ctx context.Context, p Provider, g Global) Context {
	g.Enabled = slices.Clone(g.Enabled)
	apps := p.GatherContext(ctx)
	if apps == nil {
		apps = AppContext{}
	}
	return Context{Global: g, Apps: apps}
}

// ///////////////////////////////////////////////
// Base Provider
// ///////////////////////////////////////////////

// Options carries what every provider is built from.
type Options struct {
	// Config is the settings snapshot. Providers never modify it.
	Config *config.Config
	// Probe answers OS queries during gathering.
	Probe probe.SystemProbe
	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
	// Now returns the current time for the time suffix. Nil uses time.Now.
	Now func() time.Time
}

// Base implements the identity, the default gathering and activation rules,
// and the formatting helpers shared by every provider. Providers embed it and
// override what they need.
type Base struct {
	id      string
	cfg     *config.Config
	probe   probe.SystemProbe
	log     *slog.Logger
	now     func() time.Time
	timeFmt *strftime.Strftime
}

// NewBase prepares the shared state for the provider id. It fails when the
// configured time format is not a valid strftime pattern.
func NewBase(id string, opts Options) (Base, error) {
	if opts.Config == nil {
		return Base{}, fmt.Errorf("%s: nil config", id)
	}
	pattern := opts.Config.Statuses.TimeFormat
	if pattern == "" {
		pattern = config.DefaultTimeFormat
	}
	tf, err := strftime.New(pattern)
	if err != nil {
		return Base{}, fmt.Errorf("%s: time format %q: %w", id, pattern, err)
	}
	b := Base{
		id:      id,
		cfg:     opts.Config,
		probe:   opts.Probe,
		log:     opts.Logger,
		now:     opts.Now,
		timeFmt: tf,
	}
	if b.log == nil {
		b.log = logger.Discard()
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.log = b.log.With("plugin", id)
	return b, nil
}

// ID returns the provider's identifier.
func (b *Base) ID() string { return b.id }

// GatherContext gathers nothing.
func (b *Base) GatherContext(context.Context) AppContext { return AppContext{} }

// Active reports whether the provider's ID is in the enabled list.
func (b *Base) Active(c Context) bool { return slices.Contains(c.Enabled, b.id) }

// Config returns the settings snapshot.
func (b *Base) Config() *config.Config { return b.cfg }

// Probe returns the OS probe, which may be nil for providers that gather
// nothing.
func (b *Base) Probe() probe.SystemProbe { return b.probe }

// Logger returns the provider's logger.
func (b *Base) Logger() *slog.Logger { return b.log }

// Gather runs [Gather] with the provider's logger.
func (b *Base) Gather(ctx context.Context, apps []string, rules map[string]Rule) AppContext {
	return Gather(ctx, b.log, apps, rules)
}

// TimeSuffix returns the current time in the configured format, or "" when
// time display is off.
func (b *Base) TimeSuffix() string {
	if !b.cfg.Statuses.ShowTime {
		return ""
	}
	return b.timeFmt.FormatString(b.now())
}

// Separator returns the configured separator, or "" when time display is off.
func (b *Base) Separator() string {
	if !b.cfg.Statuses.ShowTime {
		return ""
	}
	return b.cfg.Statuses.Separator
}

// AppStatus returns the apps table entry for appID. Without one it returns
// the fallback icon with appID as text. A missing type is online.
func (b *Base) AppStatus(appID string) status.Status {
	if s, ok := b.cfg.Statuses.Apps[appID].Status(); ok {
		return s
	}
	return status.Status{Emoji: status.FallbackEmoji, Text: appID, Type: status.Online}
}
