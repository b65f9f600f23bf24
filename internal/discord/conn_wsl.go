//go:build linux

package discord

import (
	"os"
	"strings"
)

// isWSL reports whether the process runs inside WSL. Discord then lives on
// the Windows side and is only reachable through a relay that exposes the
// named pipe as a socket under XDG_RUNTIME_DIR or /tmp, which socketPaths
// already covers:
//
//	socat UNIX-LISTEN:/tmp/discord-ipc-0,fork EXEC:"npiperelay.exe -ep -s //./pipe/discord-ipc-0"
func isWSL() bool {
	if os.Getenv("WSL_DISTRO_NAME") != "" {
		return true
	}
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return wslKernel(string(data))
}

// wslKernel reports whether a /proc/version line names a Microsoft kernel.
func wslKernel(version string) bool {
	v := strings.ToLower(version)
	return strings.Contains(v, "microsoft") || strings.Contains(v, "wsl")
}
