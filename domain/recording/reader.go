package recording

import (
	"bufio"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/soocke/pixel-recorder-go/domain/binio"
	"github.com/soocke/pixel-recorder-go/domain/project"
)

// RecordHeader is one decoded record minus its payload. Exactly one of Frame
// and Event is set.
type RecordHeader struct {
	Type          project.RecordType
	Offset        uint64
	Ticks         uint64
	Frame         *project.Frame
	Event         project.InputEvent
	PayloadLength uint64
}

// Reader iterates the records of one log stream in order.
type Reader struct {
	file    *os.File
	zr      io.ReadCloser
	r       *binio.Reader
	pending uint64
}

// OpenStream opens a compressed log stream for sequential reading.
func OpenStream(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	zr := flate.NewReader(bufio.NewReaderSize(f, 1<<20))
	return &Reader{file: f, zr: zr, r: binio.NewReader(zr, 0)}, nil
}

// Offset is the uncompressed position of the next unread byte.
func (r *Reader) Offset() uint64 { return r.r.Pos() }

// Next skips any unread payload and decodes the next record header. It
// returns io.EOF at a clean end of stream.
func (r *Reader) Next() (*RecordHeader, error) {
	if err := r.discard(); err != nil {
		return nil, err
	}
	h, err := decodeHeader(r.r)
	if err != nil {
		return nil, err
	}
	r.pending = h.PayloadLength
	return h, nil
}

func (r *Reader) discard() error {
	if r.pending == 0 {
		return nil
	}
	r.r.Skip(r.pending)
	r.pending = 0
	if err := r.r.Err(); err != nil {
		return fmt.Errorf("skip payload: %w", err)
	}
	return nil
}

// CopyPayload streams the current record payload into w.
func (r *Reader) CopyPayload(w io.Writer) error {
	n := r.pending
	r.pending = 0
	r.r.CopyTo(w, n)
	if err := r.r.Err(); err != nil {
		return fmt.Errorf("copy payload: %w", err)
	}
	return nil
}

// ReadPayload returns the current record payload.
func (r *Reader) ReadPayload() ([]byte, error) {
	n := r.pending
	r.pending = 0
	p := r.r.Bytes(n)
	if err := r.r.Err(); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return p, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.zr.Close(), r.file.Close())
}

// Load reopens a recording directory left on disk, for example after a
// failed conversion, and rebuilds its frame and event lists. Pixels are not
// loaded. A truncated tail is tolerated: records decoded before it are kept.
func Load(dir string) (*project.RecordingProject, error) {
	rec := &project.RecordingProject{Dir: dir}
	if err := readProperties(rec); err != nil {
		return nil, err
	}
	if err := scan(rec.FramesPath(), func(h *RecordHeader) {
		rec.Frames = append(rec.Frames, h.Frame)
	}); err != nil {
		return nil, err
	}
	if err := scan(rec.EventsPath(), func(h *RecordHeader) {
		rec.Events = append(rec.Events, h.Event)
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

func scan(path string, fn func(*RecordHeader)) error {
	r, err := OpenStream(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer r.Close()
	for {
		h, err := r.Next()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan %s: %w", path, err)
		}
		// A record whose payload is cut short is not kept.
		if err := r.discard(); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("scan %s: %w", path, err)
		}
		fn(h)
	}
}
