package capture

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newRecording(t *testing.T, r image.Rectangle) *project.RecordingProject {
	t.Helper()
	rec, err := project.NewRecordingProject(t.TempDir(), r.Dx(), r.Dy(), 96)
	require.NoError(t, err)
	return rec
}

// fakeSink records what the consumer hands it. gate, when set, blocks every
// write until it is closed.
type fakeSink struct {
	mu        sync.Mutex
	gate      chan struct{}
	failAfter int
	frames    []project.Frame
	pixels    [][]byte
	events    []project.InputEvent
	finalized int
}

var errSinkFull = errors.New("disk full")

func (s *fakeSink) WriteFrame(f *project.Frame) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	defer f.Release()
	if s.failAfter > 0 && len(s.frames) >= s.failAfter {
		return errSinkFull
	}
	s.pixels = append(s.pixels, append([]byte(nil), f.Pixels...))
	cp := *f
	cp.Pixels = nil
	s.frames = append(s.frames, cp)
	return nil
}

func (s *fakeSink) WriteEvent(ev project.InputEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *fakeSink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized++
	return nil
}

func (s *fakeSink) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// fakeGrabber fills the buffer with fill, or returns the next scripted
// error.
type fakeGrabber struct {
	mu     sync.Mutex
	fill   byte
	errs   []error
	calls  int
	closed bool
}

func (g *fakeGrabber) Grab(_ image.Rectangle, dst []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		if err != nil {
			return err
		}
	}
	for i := range dst {
		dst[i] = g.fill
	}
	return nil
}

func (g *fakeGrabber) Close() error {
	g.closed = true
	return nil
}

type fakeProbe struct {
	samples []CursorSample
}

func (p *fakeProbe) Sample() (CursorSample, error) {
	if len(p.samples) == 0 {
		return CursorSample{}, errors.New("no sample")
	}
	s := p.samples[0]
	if len(p.samples) > 1 {
		p.samples = p.samples[1:]
	}
	return s, nil
}

// fakeDevice replays scripted acquisitions.
type fakeDevice struct {
	script []acquisition
	closed bool
}

type acquisition struct {
	frame *DuplicatedFrame
	err   error
}

func (d *fakeDevice) AcquireNextFrame(time.Duration) (*DuplicatedFrame, error) {
	if len(d.script) == 0 {
		return nil, ErrNoFrame
	}
	a := d.script[0]
	d.script = d.script[1:]
	return a.frame, a.err
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

// fakeFactory hands out devices in order, or the scripted error.
type fakeFactory struct {
	devices []*fakeDevice
	errs    []error
	calls   int
}

func (f *fakeFactory) open(image.Rectangle) (DuplicationDevice, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.devices) {
		return &fakeDevice{}, nil
	}
	return f.devices[i], nil
}

// solid returns a full-region frame with every byte set to v.
func solid(w, h int, v byte) *DuplicatedFrame {
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = v
	}
	return &DuplicatedFrame{
		Width:      w,
		Height:     h,
		Stride:     w * 4,
		Pixels:     pix,
		DirtyRects: []image.Rectangle{image.Rect(0, 0, w, h)},
	}
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1700000000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
