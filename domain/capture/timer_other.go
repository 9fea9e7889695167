//go:build !windows

package capture

// beginTimerResolution is a no-op: timers are already fine grained.
func beginTimerResolution() (func(), error) { return func() {}, nil }
