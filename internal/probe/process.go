//go:build linux || windows

package probe

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// processNames lists the names of all running processes.
func processNames(ctx context.Context) ([]string, error) {
	ps, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // exited between listing and reading
		}
		names = append(names, name)
	}
	return names, nil
}

// processName resolves a pid to its process name.
func processName(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", fmt.Errorf("process %d: %w", pid, err)
	}
	return p.NameWithContext(ctx)
}
