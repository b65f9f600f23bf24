//go:build !linux && !windows

package discord

func isWSL() bool { return false }
