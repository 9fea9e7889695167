//go:build !windows && !linux

package capture

// NewCursorProbe reports ErrUnsupported on this platform.
func NewCursorProbe() (CursorProbe, error) { return nil, ErrUnsupported }
