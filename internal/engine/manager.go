// Package engine resolves the status for one poll cycle by walking an ordered
// chain of providers and taking the first one that is active.
//
// The chain is fixed when a [Manager] is built: the idle provider first, the
// enabled providers in configured order, and the fallback provider last. A
// configuration reload builds a new Manager rather than changing an existing
// one.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dombom/mark/internal/logger"
	"github.com/dombom/mark/internal/plugin"
	"github.com/dombom/mark/internal/plugin/core"
	"github.com/dombom/mark/internal/probe"
	"github.com/dombom/mark/internal/status"
)

// Manager holds the provider chain for one configuration snapshot.
type Manager struct {
	providers []plugin.Provider
	def       status.Status
	log       *slog.Logger
}

// New builds a Manager from the built-in registry.
func New(opts plugin.Options) (*Manager, error) {
	return NewWithRegistry(DefaultRegistry(), opts)
}

// NewWithRegistry builds a Manager whose providers come from reg. Enabled IDs
// that are blank, repeated, unknown, lacking a settings section or failing to
// build are logged and skipped. It only fails without a configuration.
func NewWithRegistry(reg Registry, opts plugin.Options) (*Manager, error) {
	if opts.Config == nil {
		return nil, errors.New("engine: nil config")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	m := &Manager{def: opts.Config.DefaultStatus(), log: opts.Logger}

	enabled := opts.Config.Statuses.Plugins.Enabled
	m.add(reg, core.IdleID, opts)
	seen := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		id = strings.TrimSpace(id)
		switch {
		case id == "":
			continue
		case id == core.IdleID || id == core.FallbackID:
			m.log.Warn("plugin is always enabled", "plugin", id)
			continue
		case seen[id]:
			m.log.Warn("plugin listed twice", "plugin", id)
			continue
		}
		seen[id] = true
		if _, ok := reg[id]; !ok {
			m.log.Warn("plugin not found in library", "plugin", id)
			continue
		}
		m.add(reg, id, opts)
	}
	m.add(reg, core.FallbackID, opts)

	m.log.Debug("plugins initialized", "count", len(m.providers), "order", strings.Join(m.IDs(), ","))
	return m, nil
}

func (m *Manager) add(reg Registry, id string, opts plugin.Options) {
	build, ok := reg[id]
	if !ok {
		m.log.Warn("plugin not found in library", "plugin", id)
		return
	}
	p, err := build(opts)
	switch {
	case errors.Is(err, plugin.ErrNoSettings):
		m.log.Warn("plugin has no settings object", "plugin", id)
	case err != nil:
		m.log.Error("plugin failed to initialize", "plugin", id, "error", err)
	default:
		m.providers = append(m.providers, p)
		logger.Success(m.log, "plugin initialized", "plugin", id)
	}
}

// IDs returns the provider IDs in evaluation order.
func (m *Manager) IDs() []string {
	ids := make([]string, len(m.providers))
	for i, p := range m.providers {
		ids[i] = p.ID()
	}
	return ids
}

// Resolve returns the status of the first active provider for g, or the
// configured default when none is active. It fails when ctx is done or a
// provider panics; the panic does not escape. Providers share one process
// listing per call through [probe.WithCycle].
func (m *Manager) Resolve(ctx context.Context, g plugin.Global) (st status.Status, err error) {
	ctx = probe.WithCycle(ctx)
	var current string
	defer func() {
		if r := recover(); r != nil {
			st, err = status.Status{}, fmt.Errorf("plugin %s: panic: %v", current, r)
		}
	}()

	for _, p := range m.providers {
		if err := ctx.Err(); err != nil {
			return status.Status{}, err
		}
		current = p.ID()
		c := plugin.Flatten(ctx, p, g)
		if !p.Active(c) {
			logger.Trace(m.log, "plugin inactive", "plugin", current)
			continue
		}
		st = p.BuildStatus(c)
		m.log.Debug("plugin matched", "plugin", current, "status", st.String())
		return st, nil
	}
	m.log.Debug("no plugin matched, using default status")
	return m.def, nil
}

// ///////////////////////////////////////////////
// Global Snapshot
// ///////////////////////////////////////////////

// Snapshot reads the frontmost app and idle time from p and pairs them with
// the enabled list.
func Snapshot(ctx context.Context, p probe.SystemProbe, enabled []string) (plugin.Global, error) {
	front, err := p.FrontmostApp(ctx)
	if err != nil {
		return plugin.Global{}, err
	}
	idle, err := p.IdleTime(ctx)
	if err != nil {
		return plugin.Global{}, err
	}
	return plugin.Global{Frontmost: front, Idle: idle, Enabled: enabled}, nil
}
