//go:build !darwin && !linux && !windows

package probe

// New reports that this platform has no probe.
func New() (SystemProbe, error) {
	return nil, ErrUnsupported
}
