// Package capture turns a live screen into timestamped frames and input
// events and hands them to a single writer goroutine over a bounded queue.
package capture

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soocke/pixel-recorder-go/domain/project"
	"github.com/soocke/pixel-recorder-go/domain/recording"
)

// Queue bounds.
const (
	MinQueueCapacity        = 2
	MaxQueueCapacity        = 256
	DefaultQueueMemoryBytes = 512 << 20
)

// QueueCapacityFor sizes the frame queue so that queued frames stay within
// budget bytes.
func QueueCapacityFor(frameBytes int, budget int64) int {
	if budget <= 0 {
		budget = DefaultQueueMemoryBytes
	}
	if frameBytes <= 0 {
		return MaxQueueCapacity
	}
	n := budget / int64(frameBytes)
	return int(min(max(n, MinQueueCapacity), MaxQueueCapacity))
}

// item is one queued frame or event.
type item struct {
	frame *project.Frame
	event project.InputEvent
}

// engine is the state shared by both strategies: queue, consumer, clock,
// counters and error reporting.
type engine struct {
	logger *slog.Logger
	now    func() time.Time

	opts   StartOptions
	rec    *project.RecordingProject
	sink   Sink
	region image.Rectangle
	pool   *bufferPool
	clock  *stopwatch

	mu        sync.RWMutex // serializes sends against closing the queue
	queue     chan item
	group     errgroup.Group
	started   atomic.Bool
	stopped   atomic.Bool
	accepting atomic.Bool
	stopOnce  sync.Once
	errOnce   sync.Once
	stopErr   error

	frames       atomic.Int64
	skipped      atomic.Uint64
	noFrame      atomic.Uint64
	deviceLost   atomic.Uint64
	events       atomic.Uint64
	captureNanos atomic.Uint64
	lastCapture  atomic.Int64
}

func newEngine(logger *slog.Logger) *engine {
	return &engine{logger: logger, now: time.Now}
}

// start validates opts, opens the sink and launches the consumer.
func (e *engine) start(opts StartOptions, rec *project.RecordingProject) error {
	if e.stopped.Load() {
		return ErrStopped
	}
	if e.started.Load() {
		return ErrAlreadyStarted
	}
	if opts.Region.Empty() {
		return fmt.Errorf("%w: %v", ErrInvalidRegion, opts.Region)
	}
	if rec == nil {
		return errors.New("capture: nil recording project")
	}
	sink := opts.Sink
	if sink == nil {
		w, err := recording.NewWriter(rec, e.logger)
		if err != nil {
			return err
		}
		sink = w
	}
	e.opts = opts
	e.rec = rec
	e.sink = sink
	e.region = opts.Region
	frameBytes := opts.Region.Dx() * opts.Region.Dy() * 4
	e.pool = newBufferPool(frameBytes)
	e.clock = newStopwatch(opts.FixedTimestamps && opts.Automatic, opts.Interval, e.now)

	capacity := opts.QueueCapacity
	if capacity <= 0 {
		capacity = QueueCapacityFor(frameBytes, opts.QueueMemoryBytes)
	}
	e.queue = make(chan item, capacity)
	e.group.Go(e.consume)
	e.started.Store(true)
	e.accepting.Store(true)
	if e.logger != nil {
		e.logger.Info("capture started",
			"region", opts.Region.String(),
			"automatic", opts.Automatic,
			"interval", opts.Interval,
			"queue", capacity,
		)
	}
	return nil
}

// consume is the single consumer. It drains the queue until it is closed,
// releasing frames even after the sink failed.
func (e *engine) consume() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.Error("capture consumer panic", "error", r, "stack", string(debug.Stack()))
			}
			err = fmt.Errorf("capture consumer panic: %v", r)
			e.fail(err)
			for it := range e.queue {
				it.frame.Release()
			}
		}
	}()
	var first error
	for it := range e.queue {
		if first != nil {
			it.frame.Release()
			continue
		}
		var werr error
		if it.frame != nil {
			werr = e.sink.WriteFrame(it.frame)
		} else {
			werr = e.sink.WriteEvent(it.event)
		}
		if werr != nil {
			first = werr
			e.fail(&Error{Kind: KindIO, Err: werr})
		}
	}
	return first
}

// fail stops accepting frames and reports err once.
func (e *engine) fail(err error) {
	e.accepting.Store(false)
	e.errOnce.Do(func() {
		if e.logger != nil {
			e.logger.Error("capture failed", "error", err, "kind", Classify(err).String())
		}
		if e.opts.OnError != nil {
			e.opts.OnError(err)
		}
	})
}

// enqueue blocks while the queue is full. It reports false once the engine
// stopped accepting.
func (e *engine) enqueue(it item) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.accepting.Load() {
		return false
	}
	e.queue <- it
	return true
}

// Accepting reports whether frames are still taken.
func (e *engine) Accepting() bool { return e.accepting.Load() }

func (e *engine) FrameCount() int { return int(e.frames.Load()) }

// submit stamps and queues a filled frame and returns the frame count.
func (e *engine) submit(f *project.Frame, pix []byte, ticks uint64, began time.Time) int {
	f.Ticks = ticks
	f.Pixels = pix
	f.DataLength = uint64(len(pix))
	f.Recycle = e.pool.put
	if e.opts.PreventBlackFrames && f.IsBlack() {
		f.WasSkipped = true
		e.skipped.Add(1)
	}
	if !e.enqueue(item{frame: f}) {
		f.Release()
		return e.FrameCount()
	}
	now := e.now()
	e.captureNanos.Add(uint64(now.Sub(began)))
	e.lastCapture.Store(now.UnixNano())
	return int(e.frames.Add(1))
}

func (e *engine) submitEvent(ev project.InputEvent) {
	if e.enqueue(item{event: ev}) {
		e.events.Add(1)
	}
}

// newFrame prepares f for filling, applying the legacy delay.
func (e *engine) newFrame(f *project.Frame) *project.Frame {
	if f == nil {
		f = &project.Frame{}
	}
	if f.Delay == 0 && e.opts.Automatic {
		f.Delay = e.opts.Interval.Milliseconds()
	}
	return f
}

// emitCursor converts a pointer sample into shape and move events relative
// to the capture region. last tracks the previous sample.
func (e *engine) emitCursor(s CursorSample, ticks uint64, last *CursorSample) {
	if s.Shape != nil {
		shape := s.Shape
		ev := project.NewCursorShapeEvent(ticks, shape.Type,
			int32(shape.Width), int32(shape.Height), int32(shape.XHotspot), int32(shape.YHotspot), shape.Pixels)
		ev.Left = int32(s.Position.X - e.region.Min.X)
		ev.Top = int32(s.Position.Y - e.region.Min.Y)
		e.submitEvent(ev)
	}
	if !s.Visible {
		last.Visible = false
		return
	}
	if last.Visible && s.Position == last.Position && s.Buttons == last.Buttons && s.Shape == nil {
		return
	}
	ev := project.NewCursorMoveEvent(ticks, int32(s.Position.X-e.region.Min.X), int32(s.Position.Y-e.region.Min.Y))
	ev.LeftButton = s.Buttons.Left
	ev.RightButton = s.Buttons.Right
	ev.MiddleButton = s.Buttons.Middle
	ev.FirstExtraButton = s.Buttons.FirstExtra
	ev.SecondExtraButton = s.Buttons.SecondExtra
	e.submitEvent(ev)
	*last = CursorSample{Visible: true, Position: s.Position, Buttons: s.Buttons}
}

// handle applies the shared outcome rules for a failed capture attempt.
func (e *engine) handle(err error) int {
	switch {
	case errors.Is(err, ErrNoFrame):
		e.noFrame.Add(1)
	case errors.Is(err, ErrUnsupported), errors.Is(err, ErrInvalidRegion):
		e.fail(&Error{Kind: KindConfiguration, Err: err})
	default:
		e.fail(&Error{Kind: Classify(err), Err: err})
	}
	return e.FrameCount()
}

func (e *engine) Pause() {
	if e.clock != nil {
		e.clock.pause()
	}
}

func (e *engine) Resume() {
	if e.clock != nil {
		e.clock.resume()
	}
}

// stop closes the queue, waits for the consumer to drain it and finalizes
// the sink. release frees strategy resources afterwards.
func (e *engine) stop(release func() error) error {
	if !e.started.Load() {
		return ErrNotStarted
	}
	e.stopOnce.Do(func() {
		e.stopped.Store(true)
		e.accepting.Store(false)
		e.mu.Lock()
		close(e.queue)
		e.mu.Unlock()
		consumeErr := e.group.Wait()
		finalizeErr := e.sink.Finalize()
		var releaseErr error
		if release != nil {
			releaseErr = release()
		}
		e.stopErr = errors.Join(consumeErr, finalizeErr, releaseErr)
		if e.logger != nil {
			st := e.Stats()
			e.logger.Info("capture.stats",
				"frames", st.Frames,
				"skipped", st.Skipped,
				"no_frame", st.NoFrame,
				"device_lost", st.DeviceLost,
				"events", st.Events,
				"avg_capture", st.AvgCapture,
			)
		}
	})
	return e.stopErr
}

func (e *engine) Stats() Stats {
	frames := uint64(e.frames.Load())
	var avg time.Duration
	if frames > 0 {
		avg = time.Duration(e.captureNanos.Load() / frames)
	}
	var last time.Time
	if ns := e.lastCapture.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	st := Stats{
		Frames:      frames,
		Skipped:     e.skipped.Load(),
		NoFrame:     e.noFrame.Load(),
		DeviceLost:  e.deviceLost.Load(),
		Events:      e.events.Load(),
		AvgCapture:  avg,
		LastCapture: last,
	}
	if e.queue != nil {
		st.QueueDepth = len(e.queue)
		st.QueueCapacity = cap(e.queue)
	}
	return st
}
