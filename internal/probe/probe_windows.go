//go:build windows

package probe

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetWindowTextW   = user32.NewProc("GetWindowTextW")
	procGetLastInputInfo = user32.NewProc("GetLastInputInfo")
	procGetTickCount     = kernel32.NewProc("GetTickCount")
)

// lastInputInfo mirrors the LASTINPUTINFO struct.
type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

// windowsProbe answers queries through user32 and gopsutil.
type windowsProbe struct{}

// New returns the Windows probe.
func New() (SystemProbe, error) {
	return windowsProbe{}, nil
}

func windowText(hwnd windows.HWND) string {
	buf := make([]uint16, 512)
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

func windowApp(ctx context.Context, hwnd windows.HWND) (string, error) {
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return "", fmt.Errorf("window pid: %w", err)
	}
	name, err := processName(ctx, int32(pid))
	if err != nil {
		return "", err
	}
	return normalizeApp(name), nil
}

// ///////////////////////////////////////////////
// Window Enumeration
// ///////////////////////////////////////////////

// EnumWindows callbacks cannot be freed, so one callback serves every call
// and collects into enumFound under enumMu.
var (
	enumMu    sync.Mutex
	enumFound []windows.HWND
	enumCB    = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		if windows.IsWindowVisible(hwnd) {
			enumFound = append(enumFound, hwnd)
		}
		return 1
	})
)

func visibleWindows() ([]windows.HWND, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumFound = nil
	if err := windows.EnumWindows(enumCB, nil); err != nil {
		return nil, fmt.Errorf("enum windows: %w", err)
	}
	return append([]windows.HWND(nil), enumFound...), nil
}

// ///////////////////////////////////////////////
// Global Queries
// ///////////////////////////////////////////////

func (windowsProbe) FrontmostApp(ctx context.Context) (string, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return "", fmt.Errorf("frontmost app: no foreground window")
	}
	app, err := windowApp(ctx, hwnd)
	if err != nil {
		return "", fmt.Errorf("frontmost app: %w", err)
	}
	return app, nil
}

func (windowsProbe) IdleTime(context.Context) (time.Duration, error) {
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}
	if r, _, err := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info))); r == 0 {
		return 0, fmt.Errorf("idle time: %w", err)
	}
	tick, _, _ := procGetTickCount.Call()
	// Both counters are 32-bit milliseconds and wrap together.
	return time.Duration(uint32(tick)-info.dwTime) * time.Millisecond, nil
}

// ///////////////////////////////////////////////
// Per-App Queries
// ///////////////////////////////////////////////

func (windowsProbe) IsRunning(ctx context.Context, appID string) (bool, error) {
	running, err := runningApps(ctx, processNames)
	if err != nil {
		return false, fmt.Errorf("is running %q: %w", appID, err)
	}
	return running[appID], nil
}

// WindowTitle prefers the foreground window and otherwise returns the first
// titled visible window owned by the app.
func (windowsProbe) WindowTitle(ctx context.Context, appID string) (string, error) {
	if fg := windows.GetForegroundWindow(); fg != 0 {
		if app, err := windowApp(ctx, fg); err == nil && app == appID {
			return windowText(fg), nil
		}
	}
	hwnds, err := visibleWindows()
	if err != nil {
		return "", fmt.Errorf("window title %q: %w", appID, err)
	}
	for _, hwnd := range hwnds {
		title := windowText(hwnd)
		if title == "" {
			continue
		}
		if app, err := windowApp(ctx, hwnd); err == nil && app == appID {
			return title, nil
		}
	}
	return "", nil
}

// Playback reads Spotify's window title. Other players expose nothing
// comparable without their own APIs.
func (p windowsProbe) Playback(ctx context.Context, appID string) (Playback, error) {
	if appID != "spotify" {
		return Playback{}, unsupported("playback", appID)
	}
	title, err := p.WindowTitle(ctx, appID)
	if err != nil {
		return Playback{}, fmt.Errorf("playback %q: %w", appID, err)
	}
	return parseSpotifyTitle(title), nil
}

func (p windowsProbe) BrowserTab(ctx context.Context, appID string) (Tab, error) {
	title, err := p.WindowTitle(ctx, appID)
	if err != nil {
		return Tab{}, fmt.Errorf("browser tab: %w", err)
	}
	return Tab{Title: tabTitle(title)}, nil
}
