package capture

import (
	"io"
	"log/slog"
	"sync"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

// BlitCapture copies the region from the screen on every call. The pointer
// is sampled separately through a CursorProbe.
type BlitCapture struct {
	*engine
	grabber Grabber
	probe   CursorProbe

	mu         sync.Mutex // one grab at a time
	lastCursor CursorSample
}

var _ Engine = (*BlitCapture)(nil)

// NewBlitCapture returns a blit engine. probe may be nil, in which case
// CaptureWithCursor records no pointer events.
func NewBlitCapture(g Grabber, probe CursorProbe, logger *slog.Logger) *BlitCapture {
	return &BlitCapture{engine: newEngine(logger), grabber: g, probe: probe}
}

func (b *BlitCapture) Start(opts StartOptions, rec *project.RecordingProject) error {
	return b.start(opts, rec)
}

// Capture grabs one frame without pointer information and returns the
// number of frames taken so far.
func (b *BlitCapture) Capture(f *project.Frame) int { return b.capture(f, false) }

// CaptureWithCursor grabs one frame and records pointer changes.
func (b *BlitCapture) CaptureWithCursor(f *project.Frame) int { return b.capture(f, true) }

// ManualCapture is a user-triggered capture.
func (b *BlitCapture) ManualCapture(f *project.Frame, showCursor bool) int {
	return b.capture(f, showCursor)
}

func (b *BlitCapture) capture(f *project.Frame, withCursor bool) int {
	if !b.started.Load() || !b.Accepting() {
		return b.FrameCount()
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	began := b.now()
	f = b.newFrame(f)
	pix := b.pool.get()
	if err := b.grabber.Grab(b.region, pix); err != nil {
		b.pool.put(pix)
		return b.handle(err)
	}
	ticks := b.clock.next()
	if withCursor && b.probe != nil {
		s, err := b.probe.Sample()
		if err != nil {
			if b.logger != nil {
				b.logger.Debug("cursor sample failed", "error", err)
			}
		} else {
			b.emitCursor(s, ticks, &b.lastCursor)
		}
	}
	return b.submit(f, pix, ticks, began)
}

// Stop drains the queue, finalizes the recording and releases the grabber
// and probe when they hold native resources.
func (b *BlitCapture) Stop() error {
	return b.stop(func() error {
		var err error
		if c, ok := b.grabber.(io.Closer); ok {
			err = c.Close()
		}
		if c, ok := b.probe.(io.Closer); ok {
			if cerr := c.Close(); err == nil {
				err = cerr
			}
		}
		return err
	})
}
