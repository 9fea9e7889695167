package capture

import "time"

// Stats summarises capture behaviour for instrumentation.
type Stats struct {
	Frames        uint64
	Skipped       uint64
	NoFrame       uint64
	DeviceLost    uint64
	Events        uint64
	AvgCapture    time.Duration
	LastCapture   time.Time
	QueueDepth    int
	QueueCapacity int
}
