package capture

import (
	"image"
	"time"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

// Engine is the boundary the recorder shell drives. Both capture strategies
// implement it with the same observable behaviour.
type Engine interface {
	Start(opts StartOptions, rec *project.RecordingProject) error
	Capture(f *project.Frame) int
	CaptureWithCursor(f *project.Frame) int
	ManualCapture(f *project.Frame, showCursor bool) int
	Stop() error
	Pause()
	Resume()
	FrameCount() int
	Stats() Stats
}

// Sink receives captured frames and events on the consumer goroutine.
// *recording.Writer satisfies it.
type Sink interface {
	WriteFrame(*project.Frame) error
	WriteEvent(project.InputEvent) error
	Finalize() error
}

// StartOptions configure one capture session.
type StartOptions struct {
	// Automatic selects fixed interval capture; otherwise capture is
	// triggered manually.
	Automatic bool
	Interval  time.Duration
	// Region is the captured screen area in virtual screen coordinates.
	Region image.Rectangle
	// QueueCapacity bounds frames waiting for the writer. Zero derives it
	// from QueueMemoryBytes.
	QueueCapacity    int
	QueueMemoryBytes int64
	// PreventBlackFrames drops frames that are entirely zero.
	PreventBlackFrames bool
	// FixedTimestamps stamps frames at n*Interval instead of wall time.
	FixedTimestamps bool
	// Sink overrides the default recording writer.
	Sink Sink
	// OnError is called once with the failure that stopped the session.
	OnError func(error)
}

// Grabber copies the pixels of region into dst as BGRA8 rows.
type Grabber interface {
	Grab(region image.Rectangle, dst []byte) error
}

// CursorShape is a raw pointer image. Height is the visible height; a
// monochrome payload holds 2*Height mask rows.
type CursorShape struct {
	Type     project.CursorType
	Width    int
	Height   int
	XHotspot int
	YHotspot int
	Pixels   []byte
}

// Buttons is a pointer button snapshot.
type Buttons struct {
	Left, Right, Middle, FirstExtra, SecondExtra bool
}

// CursorSample is one pointer reading in screen coordinates. Shape is set
// only when the shape changed since the previous sample.
type CursorSample struct {
	Visible  bool
	Position image.Point
	Buttons  Buttons
	Shape    *CursorShape
}

// CursorProbe samples the pointer for the software blit strategy.
type CursorProbe interface {
	Sample() (CursorSample, error)
}

// MoveRect is a region the source reports as moved from Source.
type MoveRect struct {
	Source image.Point
	Dest   image.Rectangle
}

// DuplicatedFrame is one update from a duplication device. Pixels holds the
// full output and is valid at least inside DirtyRects.
type DuplicatedFrame struct {
	Width      int
	Height     int
	Stride     int
	Pixels     []byte
	MoveRects  []MoveRect
	DirtyRects []image.Rectangle
	// Pointer is nil when the pointer did not change.
	Pointer *CursorSample
}

// DuplicationDevice is a desktop duplication source. The first frame after
// creation must report the whole output as dirty.
type DuplicationDevice interface {
	AcquireNextFrame(timeout time.Duration) (*DuplicatedFrame, error)
	Close() error
}

// DeviceFactory creates a device covering region.
type DeviceFactory func(region image.Rectangle) (DuplicationDevice, error)
