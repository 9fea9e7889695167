package capture

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

// DefaultAcquireTimeout bounds how long one capture waits for a new desktop
// frame.
const DefaultAcquireTimeout = 100 * time.Millisecond

// DeviceState is the duplication device lifecycle.
type DeviceState int

const (
	DeviceReady DeviceState = iota
	DeviceLost
	DeviceReinitializing
)

func (s DeviceState) String() string {
	switch s {
	case DeviceReady:
		return "ready"
	case DeviceLost:
		return "lost"
	case DeviceReinitializing:
		return "reinitializing"
	default:
		return fmt.Sprintf("DeviceState(%d)", int(s))
	}
}

// DuplicationCapture keeps a staging copy of the region and updates it from
// the move and dirty rectangles reported by a DuplicationDevice.
type DuplicationCapture struct {
	*engine
	factory DeviceFactory
	timeout time.Duration

	mu         sync.Mutex // guards everything below
	device     DuplicationDevice
	state      DeviceState
	listeners  []func(from, to DeviceState)
	staging    []byte
	scratch    []byte
	lastCursor CursorSample
}

var _ Engine = (*DuplicationCapture)(nil)

// NewDuplicationCapture returns a duplication engine. A zero timeout uses
// DefaultAcquireTimeout.
func NewDuplicationCapture(factory DeviceFactory, timeout time.Duration, logger *slog.Logger) *DuplicationCapture {
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}
	return &DuplicationCapture{engine: newEngine(logger), factory: factory, timeout: timeout}
}

// AddStateListener registers fn for device state transitions. fn runs with
// the capture lock held and must not call back into d.
func (d *DuplicationCapture) AddStateListener(fn func(from, to DeviceState)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// State returns the current device state.
func (d *DuplicationCapture) State() DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start creates the device before the engine so an unsupported display is
// reported without leaving a recording behind.
func (d *DuplicationCapture) Start(opts StartOptions, rec *project.RecordingProject) error {
	switch {
	case d.stopped.Load():
		return ErrStopped
	case d.started.Load():
		return ErrAlreadyStarted
	case opts.Region.Empty():
		return fmt.Errorf("%w: %v", ErrInvalidRegion, opts.Region)
	}
	dev, err := d.factory(opts.Region)
	if err != nil {
		return &Error{Kind: Classify(err), Err: err}
	}
	d.mu.Lock()
	d.device = dev
	d.state = DeviceReady
	d.staging = make([]byte, opts.Region.Dx()*opts.Region.Dy()*4)
	d.mu.Unlock()
	if err := d.start(opts, rec); err != nil {
		d.mu.Lock()
		d.device = nil
		d.staging = nil
		d.mu.Unlock()
		dev.Close()
		return err
	}
	return nil
}

func (d *DuplicationCapture) Capture(f *project.Frame) int { return d.capture(f, false) }

func (d *DuplicationCapture) CaptureWithCursor(f *project.Frame) int { return d.capture(f, true) }

func (d *DuplicationCapture) ManualCapture(f *project.Frame, showCursor bool) int {
	return d.capture(f, showCursor)
}

func (d *DuplicationCapture) capture(f *project.Frame, withCursor bool) int {
	if !d.started.Load() || !d.Accepting() {
		return d.FrameCount()
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != DeviceReady {
		if err := d.reinitialize(); err != nil {
			return d.handleReinit(err)
		}
	}
	began := d.now()
	fr, err := d.device.AcquireNextFrame(d.timeout)
	switch {
	case err == nil:
	case errors.Is(err, ErrDeviceLost):
		return d.lost(err)
	default:
		return d.handle(err)
	}

	if err := d.apply(fr); err != nil {
		return d.lost(err)
	}
	ticks := d.clock.next()
	if withCursor && fr.Pointer != nil {
		d.emitCursor(*fr.Pointer, ticks, &d.lastCursor)
	}
	f = d.newFrame(f)
	pix := d.pool.get()
	copy(pix, d.staging)
	return d.submit(f, pix, ticks, began)
}

// apply moves then repaints the staging buffer. Rectangles are relative to
// the region.
func (d *DuplicationCapture) apply(fr *DuplicatedFrame) error {
	w, h := d.region.Dx(), d.region.Dy()
	if fr.Width != w || fr.Height != h {
		return fmt.Errorf("%w: frame %dx%d does not match region %dx%d", ErrDeviceLost, fr.Width, fr.Height, w, h)
	}
	bounds := image.Rect(0, 0, w, h)
	stride := w * 4
	for _, mv := range fr.MoveRects {
		dst := mv.Dest.Intersect(bounds)
		src := dst.Add(mv.Source.Sub(mv.Dest.Min))
		if dst.Empty() || !src.In(bounds) {
			continue
		}
		rowBytes := dst.Dx() * 4
		need := rowBytes * dst.Dy()
		if cap(d.scratch) < need {
			d.scratch = make([]byte, need)
		}
		tmp := d.scratch[:need]
		for y := 0; y < dst.Dy(); y++ {
			o := (src.Min.Y+y)*stride + src.Min.X*4
			copy(tmp[y*rowBytes:], d.staging[o:o+rowBytes])
		}
		for y := 0; y < dst.Dy(); y++ {
			o := (dst.Min.Y+y)*stride + dst.Min.X*4
			copy(d.staging[o:o+rowBytes], tmp[y*rowBytes:(y+1)*rowBytes])
		}
	}
	for _, r := range fr.DirtyRects {
		r = r.Intersect(bounds)
		if r.Empty() {
			continue
		}
		rowBytes := r.Dx() * 4
		for y := r.Min.Y; y < r.Max.Y; y++ {
			so := y*fr.Stride + r.Min.X*4
			do := y*stride + r.Min.X*4
			copy(d.staging[do:do+rowBytes], fr.Pixels[so:so+rowBytes])
		}
	}
	return nil
}

// lost records a device loss and tries to recover right away.
func (d *DuplicationCapture) lost(err error) int {
	d.deviceLost.Add(1)
	if d.logger != nil {
		d.logger.Warn("capture device lost", "error", err)
	}
	d.transition(DeviceLost)
	if rerr := d.reinitialize(); rerr != nil {
		return d.handleReinit(rerr)
	}
	return d.FrameCount()
}

// reinitialize walks Lost → Reinitializing → Ready. On failure the device
// stays lost and the next capture retries.
func (d *DuplicationCapture) reinitialize() error {
	if d.device != nil {
		d.device.Close()
		d.device = nil
	}
	d.transition(DeviceReinitializing)
	dev, err := d.factory(d.region)
	if err != nil {
		d.transition(DeviceLost)
		return err
	}
	d.device = dev
	d.transition(DeviceReady)
	if d.logger != nil {
		d.logger.Info("capture device reinitialized")
	}
	return nil
}

func (d *DuplicationCapture) handleReinit(err error) int {
	if errors.Is(err, ErrUnsupported) {
		return d.handle(err)
	}
	if d.logger != nil {
		d.logger.Warn("capture device reinitialization failed", "error", err)
	}
	return d.FrameCount()
}

func (d *DuplicationCapture) transition(to DeviceState) {
	from := d.state
	if from == to {
		return
	}
	d.state = to
	if d.logger != nil {
		d.logger.Debug("capture device state", "from", from.String(), "to", to.String())
	}
	for _, fn := range d.listeners {
		fn(from, to)
	}
}

func (d *DuplicationCapture) Stop() error {
	return d.stop(func() error {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.device == nil {
			return nil
		}
		err := d.device.Close()
		d.device = nil
		return err
	})
}
