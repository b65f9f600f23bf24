//go:build windows

package discord

import (
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// pipeDialTimeout bounds each named pipe attempt.
const pipeDialTimeout = 500 * time.Millisecond

// pipePaths lists the named pipes Discord may listen on. Stable, Canary and
// PTB builds share the discord-ipc-N names on Windows.
func pipePaths() []string {
	paths := make([]string, maxIPCSlots)
	for i := range paths {
		paths[i] = fmt.Sprintf(`\\.\pipe\discord-ipc-%d`, i)
	}
	return paths
}

// connectToDiscord returns the first pipe that answers.
func connectToDiscord() (net.Conn, error) {
	timeout := pipeDialTimeout
	var lastErr error
	for _, path := range pipePaths() {
		conn, err := winio.DialPipe(path, &timeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrIPCNotAvailable, lastErr)
}
