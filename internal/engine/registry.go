package engine

import (
	"github.com/dombom/mark/internal/plugin"
	"github.com/dombom/mark/internal/plugin/core"
	"github.com/dombom/mark/internal/plugin/extra"
)

// Factory builds a provider. Returning an error wrapping
// [plugin.ErrNoSettings] reports that the configuration has no section for
// it.
type Factory func(opts plugin.Options) (plugin.Provider, error)

// Registry maps provider IDs to factories.
type Registry map[string]Factory

// DefaultRegistry returns the built-in providers.
func DefaultRegistry() Registry {
	return Registry{
		core.IdleID:     factory(core.NewIdle),
		core.FallbackID: factory(core.NewFallback),
		extra.MusicID:   factory(extra.NewMusic),
		extra.BrowserID: factory(extra.NewBrowser),
		extra.CodeID:    factory(extra.NewCode),
	}
}

// factory adapts a constructor returning a concrete provider type.
func factory[P plugin.Provider](build func(plugin.Options) (P, error)) Factory {
	return func(opts plugin.Options) (plugin.Provider, error) {
		p, err := build(opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
