// Package extra holds the optional providers a user turns on through
// statuses.plugins._enabled: Music, Browser and Code.
//
// Each one gathers app-specific fields through the probe for the apps listed
// in its settings section, and builds its text from the apps table entry of
// the relevant app.
package extra

import (
	"context"
	"fmt"

	"github.com/dombom/mark/internal/plugin"
	"github.com/dombom/mark/internal/probe"
)

// runningCheck returns a gather check that passes when appID has a process.
func runningCheck(p probe.SystemProbe, appID string) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		return p.IsRunning(ctx, appID)
	}
}

// gatherRunning builds one rule per app from build, each gated on the app
// running. It gathers nothing without a probe.
func gatherRunning(ctx context.Context, b *plugin.Base, apps []string, build func(appID string) func(context.Context) (plugin.Fields, error)) plugin.AppContext {
	p := b.Probe()
	if p == nil {
		return plugin.AppContext{}
	}
	rules := make(map[string]plugin.Rule, len(apps))
	for _, app := range apps {
		rules[app] = plugin.Rule{Check: runningCheck(p, app), Build: build(app)}
	}
	return b.Gather(ctx, apps, rules)
}

func noSettings(id string) error {
	return fmt.Errorf("%s: %w", id, plugin.ErrNoSettings)
}

func or(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
