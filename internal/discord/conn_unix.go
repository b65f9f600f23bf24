//go:build !windows

package discord

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// ipcVariants are the socket name prefixes of the stable, Canary and PTB
// Discord builds.
var ipcVariants = []string{"discord-ipc", "discordcanary-ipc", "discordptb-ipc"}

// sandboxDirs are the app-scoped runtime directories of Snap and Flatpak
// Discord packages, relative to /run/user/<uid>.
var sandboxDirs = []string{
	"snap.discord",
	"snap.discord-canary",
	"snap.discord-ptb",
	"app/com.discordapp.Discord",
	"app/com.discordapp.DiscordCanary",
	"app/com.discordapp.DiscordPTB",
}

// socketPaths lists every IPC socket Discord may listen on, most likely
// first: XDG_RUNTIME_DIR (or TMPDIR on macOS), /tmp, then sandboxed packages.
func socketPaths() []string {
	var roots []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR"} {
		if dir := os.Getenv(env); dir != "" {
			roots = append(roots, dir)
		}
	}
	roots = append(roots, "/tmp")

	var paths []string
	for _, root := range roots {
		for _, v := range ipcVariants {
			for i := range maxIPCSlots {
				paths = append(paths, filepath.Join(root, fmt.Sprintf("%s-%d", v, i)))
			}
		}
	}

	userRun := filepath.Join("/run/user", strconv.Itoa(os.Getuid()))
	for _, dir := range sandboxDirs {
		for i := range maxIPCSlots {
			paths = append(paths, filepath.Join(userRun, dir, fmt.Sprintf("discord-ipc-%d", i)))
		}
	}
	return paths
}

// connectToDiscord dials each candidate socket and returns the first that
// answers.
func connectToDiscord() (net.Conn, error) {
	for _, path := range socketPaths() {
		conn, err := net.Dial("unix", path)
		if err == nil {
			return conn, nil
		}
	}
	if isWSL() {
		return nil, fmt.Errorf("%w: running under WSL, a socat + npiperelay.exe relay is required", ErrIPCNotAvailable)
	}
	return nil, ErrIPCNotAvailable
}
