package probe

import (
	"context"
	"sync"
)

// cycleKey is the context key for a poll cycle's shared query results.
type cycleKey struct{}

// cycle holds what one poll cycle has already asked the OS.
type cycle struct {
	once    sync.Once
	running map[string]bool
	err     error
}

// WithCycle returns a context under which the process list is read at most
// once, however many providers ask whether their apps are running. Wrapping
// a context that already carries a cycle returns it unchanged.
func WithCycle(ctx context.Context) context.Context {
	if _, ok := ctx.Value(cycleKey{}).(*cycle); ok {
		return ctx
	}
	return context.WithValue(ctx, cycleKey{}, &cycle{})
}

// runningApps returns the normalized names of running processes. Under
// [WithCycle] the first call lists them and later calls share the result,
// error included.
func runningApps(ctx context.Context, list func(context.Context) ([]string, error)) (map[string]bool, error) {
	c, ok := ctx.Value(cycleKey{}).(*cycle)
	if !ok {
		return appSet(list(ctx))
	}
	c.once.Do(func() {
		c.running, c.err = appSet(list(ctx))
	})
	return c.running, c.err
}

func appSet(names []string, err error) (map[string]bool, error) {
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[normalizeApp(n)] = true
	}
	return set, nil
}
