// Package recording writes and reads the append-only recording log of a
// capture session: a frame stream and an event stream, each compressed,
// plus a small properties file.
package recording

import (
	"bufio"
	"compress/flate"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/soocke/pixel-recorder-go/domain/binio"
	"github.com/soocke/pixel-recorder-go/domain/project"
)

// CompressionLevel trades CPU for disk while recording.
const CompressionLevel = flate.BestSpeed

type stream struct {
	path string
	file *os.File
	buf  *bufio.Writer
	zw   *flate.Writer
	w    *binio.Writer
}

func openStream(path string) (*stream, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	buf := bufio.NewWriterSize(f, 1<<20)
	zw, err := flate.NewWriter(buf, CompressionLevel)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("init compressor: %w", err)
	}
	return &stream{path: path, file: f, buf: buf, zw: zw, w: binio.NewWriter(zw, 0)}, nil
}

func (s *stream) close() error {
	errs := []error{s.zw.Close(), s.buf.Flush(), s.file.Sync(), s.file.Close()}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

// Writer appends frames and events of one recording. It is the single
// consumer of the capture queue and is not safe for concurrent use.
type Writer struct {
	rec    *project.RecordingProject
	logger *slog.Logger

	frames *stream
	events *stream

	// pending holds the last frame back so skipped frames can fold their
	// delay into it.
	pending *project.Frame
	err     error
	closed  bool

	framesWritten uint64
	eventsWritten uint64
}

// NewWriter writes the properties file and opens both log streams.
func NewWriter(rec *project.RecordingProject, logger *slog.Logger) (*Writer, error) {
	if err := WriteProperties(rec); err != nil {
		return nil, err
	}
	frames, err := openStream(rec.FramesPath())
	if err != nil {
		return nil, err
	}
	events, err := openStream(rec.EventsPath())
	if err != nil {
		frames.close()
		return nil, err
	}
	return &Writer{rec: rec, logger: logger, frames: frames, events: events}, nil
}

// WriteFrame appends f, or folds it into the previous frame when skipped.
// Pixels are released in every case.
func (w *Writer) WriteFrame(f *project.Frame) error {
	if w.closed {
		f.Release()
		return w.closedErr()
	}
	if f.WasSkipped {
		if w.pending != nil {
			w.pending.Delay += f.Delay
		}
		f.Release()
		return nil
	}
	if err := w.flushPending(); err != nil {
		f.Release()
		return err
	}
	w.pending = f
	return nil
}

func (w *Writer) flushPending() error {
	f := w.pending
	if f == nil {
		return nil
	}
	w.pending = nil
	defer f.Release()
	f.StreamPosition = w.frames.w.Pos()
	f.DataLength = uint64(len(f.Pixels))
	encodeFrame(w.frames.w, f)
	if err := w.frames.w.Err(); err != nil {
		return w.fail(fmt.Errorf("write frame at %d: %w", f.StreamPosition, err))
	}
	w.rec.Frames = append(w.rec.Frames, f)
	w.framesWritten++
	return nil
}

// WriteEvent appends one input event and records its stream position.
// Cursor shape pixels are dropped after writing, like frame pixels.
func (w *Writer) WriteEvent(ev project.InputEvent) error {
	if w.closed {
		return w.closedErr()
	}
	pos := w.events.w.Pos()
	if err := encodeEvent(w.events.w, ev); err != nil {
		if errors.Is(err, ErrRecordType) {
			return err
		}
		return w.fail(fmt.Errorf("write %s event at %d: %w", ev.Kind(), pos, err))
	}
	ev.SetStreamPos(pos)
	if shape, ok := ev.(*project.CursorShapeEvent); ok {
		shape.DataLength = uint64(len(shape.Pixels))
		shape.Pixels = nil
	}
	w.rec.Events = append(w.rec.Events, ev)
	w.eventsWritten++
	return nil
}

// Finalize flushes the held frame and closes both streams. Calling it
// again is a no-op.
func (w *Writer) Finalize() error {
	if w.closed {
		return w.err
	}
	flushErr := w.flushPending()
	w.closed = true
	closeErr := errors.Join(w.frames.close(), w.events.close())
	if w.logger != nil {
		w.logger.Debug("recording.finalized",
			"frames", w.framesWritten,
			"events", w.eventsWritten,
			"dir", w.rec.Dir,
		)
	}
	if err := errors.Join(flushErr, closeErr); err != nil {
		if w.err == nil {
			w.err = err
		}
		return err
	}
	return nil
}

// Err returns the I/O failure that closed the writer, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) fail(err error) error {
	w.err = err
	w.closed = true
	if w.pending != nil {
		w.pending.Release()
		w.pending = nil
	}
	// Best effort: keep whatever was already compressed readable.
	_ = w.frames.close()
	_ = w.events.close()
	if w.logger != nil {
		w.logger.Error("recording write failed", "error", err, "dir", w.rec.Dir)
	}
	return err
}

func (w *Writer) closedErr() error {
	if w.err != nil {
		return fmt.Errorf("%w: %v", ErrWriterClosed, w.err)
	}
	return ErrWriterClosed
}
