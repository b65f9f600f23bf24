// Package plugin defines the contract every status provider implements and
// the shared machinery providers are built from.
//
// Each poll cycle the engine builds a [Global] from the probe, then for every
// provider in priority order calls [Flatten] to merge the global values with
// the provider's own gathered [AppContext], asks [Provider.Active], and takes
// [Provider.BuildStatus] from the first provider that says yes.
//
// Providers embed [Base] for identity, the default activation rule and the
// time, separator and app status helpers, and use [Gather] to query the OS
// only for apps that pass a cheap check first.
package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// ///////////////////////////////////////////////
// Context Types
// ///////////////////////////////////////////////

// Global is the per-cycle state every provider sees. It is rebuilt each cycle
// and never mutated once built.
type Global struct {
	// Frontmost is the lowercased identifier of the focused app.
	Frontmost string
	// Idle is the time since the last keyboard or mouse input.
	Idle time.Duration
	// Enabled lists the optional provider IDs turned on in configuration.
	Enabled []string
}

// Fields holds the values gathered for one app, such as a track title or a
// window title.
type Fields map[string]any

// String returns the string stored under key, or "" when absent or not a
// string.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Bool returns the bool stored under key, or false when absent or not a bool.
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// AppContext maps an app ID to its gathered fields. An absent key means no
// data was gathered for that app, which differs from present but empty.
type AppContext map[string]Fields

// Context is the flattened view a provider decides and builds from: the
// global values verbatim plus the provider's own gathered apps.
type Context struct {
	Global
	Apps AppContext
}

// App returns the fields gathered for appID, or nil.
func (c Context) App(appID string) Fields {
	return c.Apps[appID]
}

// ///////////////////////////////////////////////
// Gathering
// ///////////////////////////////////////////////

// Rule gathers fields for one app. Build only runs when Check reports true.
type Rule struct {
	// Check is a cheap test, usually whether the app is running.
	Check func(ctx context.Context) (bool, error)
	// Build queries the app for its fields.
	Build func(ctx context.Context) (Fields, error)
}

// Gather walks apps in order and returns the fields built for every app whose
// rule passes its check. Apps without a rule, apps whose check is false and
// apps whose check or build fails or panics are left out. Gathering stops
// early when ctx is done and returns what was collected.
func Gather(ctx context.Context, log *slog.Logger, apps []string, rules map[string]Rule) AppContext {
	out := make(AppContext)
	for _, app := range apps {
		if ctx.Err() != nil {
			break
		}
		rule, ok := rules[app]
		if !ok {
			continue
		}
		fields, err := gatherOne(ctx, rule)
		if err != nil {
			log.Debug("gather skipped", "app", app, "error", err)
			continue
		}
		if fields != nil {
			out[app] = fields
		}
	}
	return out
}

// gatherOne runs one rule. A nil result with a nil error means the check was
// false.
func gatherOne(ctx context.Context, rule Rule) (fields Fields, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if rule.Check != nil {
		ok, err := rule.Check(ctx)
		if err != nil {
			return nil, fmt.Errorf("check: %w", err)
		}
		if !ok {
			return nil, nil
		}
	}
	fields, err = rule.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	if fields == nil {
		fields = Fields{}
	}
	return fields, nil
}

// Prioritize returns the fields of the first app in order holding a non-empty
// value under any of keys, or nil when none does.
func Prioritize(apps AppContext, order []string, keys ...string) Fields {
	for _, app := range order {
		f, ok := apps[app]
		if !ok {
			continue
		}
		for _, k := range keys {
			switch v := f[k].(type) {
			case string:
				if v != "" {
					return f
				}
			case bool:
				if v {
					return f
				}
			case nil:
			default:
				return f
			}
		}
	}
	return nil
}

// FrontFirst returns apps with frontmost moved to the front when present.
func FrontFirst(frontmost string, apps []string) []string {
	i := slices.Index(apps, frontmost)
	if i <= 0 {
		return apps
	}
	out := make([]string, 0, len(apps))
	out = append(out, frontmost)
	out = append(out, apps[:i]...)
	return append(out, apps[i+1:]...)
}
