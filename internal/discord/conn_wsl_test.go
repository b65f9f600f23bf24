//go:build linux

package discord

import "testing"

func TestWSLKernel(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"Linux version 5.15.153.1-microsoft-standard-WSL2 (root@941d701f84f1)", true},
		{"Linux version 4.4.0-19041-Microsoft (Microsoft@Microsoft.com)", true},
		{"Linux version 6.8.0-45-generic (buildd@lcy02-amd64-075)", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := wslKernel(tt.version); got != tt.want {
			t.Errorf("wslKernel(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestIsWSL_DistroEnv(t *testing.T) {
	t.Setenv("WSL_DISTRO_NAME", "Ubuntu")
	if !isWSL() {
		t.Error("isWSL() = false with WSL_DISTRO_NAME set")
	}
}
