package project

import "time"

// Tick resolution used for every timestamp in recordings and projects.
const (
	TickDuration        = 100 * time.Nanosecond
	TicksPerMillisecond = uint64(time.Millisecond / TickDuration)
	TicksPerSecond      = uint64(time.Second / TickDuration)
)

// dotNetEpochOffset is the tick count between 0001-01-01 and the Unix epoch.
const dotNetEpochOffset = 621355968000000000

// TicksFromDuration converts d to ticks, truncating sub-tick precision.
// Negative durations map to zero.
func TicksFromDuration(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / TickDuration)
}

// DurationFromTicks converts a tick count back to a time.Duration.
func DurationFromTicks(t uint64) time.Duration { return time.Duration(t) * TickDuration }

// DateTicks encodes a wall-clock time as ticks since 0001-01-01 UTC, the
// creation date representation used in properties files.
func DateTicks(t time.Time) uint64 {
	return uint64(t.UTC().UnixNano()/int64(TickDuration)) + dotNetEpochOffset
}

// TimeFromDateTicks is the inverse of DateTicks.
func TimeFromDateTicks(v uint64) time.Time {
	if v < dotNetEpochOffset {
		return time.Time{}
	}
	return time.Unix(0, int64(v-dotNetEpochOffset)*int64(TickDuration)).UTC()
}
