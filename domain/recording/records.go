package recording

import (
	"fmt"

	"github.com/soocke/pixel-recorder-go/domain/binio"
	"github.com/soocke/pixel-recorder-go/domain/project"
)

// Record sizes, tag and tick included.
const (
	frameHeaderSize      = 1 + 8 + 8 + 8
	cursorRecordSize     = 1 + 8 + 4 + 4 + 5 + 2
	keyRecordSize        = 1 + 8 + 4
	cursorDataHeaderSize = 1 + 8 + 1 + 6*4 + 8
)

func encodeFrame(w *binio.Writer, f *project.Frame) {
	w.U8(uint8(project.RecordFrame))
	w.U64(f.Ticks)
	w.I64(f.Delay)
	w.I64(int64(len(f.Pixels)))
	w.Bytes(f.Pixels)
}

// encodeEvent rejects unknown variants before writing a byte.
func encodeEvent(w *binio.Writer, ev project.InputEvent) error {
	switch ev.(type) {
	case *project.CursorMoveEvent, *project.KeyEvent, *project.CursorShapeEvent:
	default:
		return fmt.Errorf("%w: %T", ErrRecordType, ev)
	}
	w.U8(uint8(ev.Kind()))
	w.U64(ev.TimeStamp())
	switch e := ev.(type) {
	case *project.CursorMoveEvent:
		w.I32(e.X)
		w.I32(e.Y)
		w.Bool(e.LeftButton)
		w.Bool(e.RightButton)
		w.Bool(e.MiddleButton)
		w.Bool(e.FirstExtraButton)
		w.Bool(e.SecondExtraButton)
		w.I16(e.MouseDelta)
	case *project.KeyEvent:
		w.U8(e.Key)
		w.U8(e.Modifiers)
		w.Bool(e.IsUppercase)
		w.Bool(e.WasInjected)
	case *project.CursorShapeEvent:
		w.U8(uint8(e.CursorType))
		w.I32(e.Left)
		w.I32(e.Top)
		w.I32(e.Width)
		w.I32(e.Height)
		w.I32(e.XHotspot)
		w.I32(e.YHotspot)
		w.U64(uint64(len(e.Pixels)))
		w.Bytes(e.Pixels)
	}
	return w.Err()
}

// decodeHeader reads one record up to, but excluding, its payload.
func decodeHeader(r *binio.Reader) (*RecordHeader, error) {
	h := &RecordHeader{Offset: r.Pos()}
	h.Type = project.RecordType(r.U8())
	if err := r.Err(); err != nil {
		return nil, err
	}
	h.Ticks = r.U64()
	switch h.Type {
	case project.RecordFrame:
		f := &project.Frame{Ticks: h.Ticks, StreamPosition: h.Offset}
		f.Delay = r.I64()
		length := r.I64()
		if length < 0 {
			return nil, fmt.Errorf("recording: negative frame length %d at %d", length, h.Offset)
		}
		f.DataLength = uint64(length)
		h.Frame = f
		h.PayloadLength = f.DataLength
	case project.RecordCursor:
		e := project.NewCursorMoveEvent(h.Ticks, 0, 0)
		e.X = r.I32()
		e.Y = r.I32()
		e.LeftButton = r.Bool()
		e.RightButton = r.Bool()
		e.MiddleButton = r.Bool()
		e.FirstExtraButton = r.Bool()
		e.SecondExtraButton = r.Bool()
		e.MouseDelta = r.I16()
		e.SetStreamPos(h.Offset)
		h.Event = e
	case project.RecordKey:
		e := project.NewKeyEvent(h.Ticks, 0, 0)
		e.Key = r.U8()
		e.Modifiers = r.U8()
		e.IsUppercase = r.Bool()
		e.WasInjected = r.Bool()
		e.SetStreamPos(h.Offset)
		h.Event = e
	case project.RecordCursorData:
		e := project.NewCursorShapeEvent(h.Ticks, 0, 0, 0, 0, 0, nil)
		e.CursorType = project.CursorType(r.U8())
		e.Left = r.I32()
		e.Top = r.I32()
		e.Width = r.I32()
		e.Height = r.I32()
		e.XHotspot = r.I32()
		e.YHotspot = r.I32()
		e.DataLength = r.U64()
		e.SetStreamPos(h.Offset)
		h.Event = e
		h.PayloadLength = e.DataLength
	default:
		return nil, fmt.Errorf("%w %d at offset %d", ErrRecordType, h.Type, h.Offset)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("recording: truncated %s record at %d: %w", h.Type, h.Offset, err)
	}
	return h, nil
}
