// Package binio reads and writes the little-endian primitives shared by the
// recording log and the project cache files. Both sides keep a running byte
// offset and a sticky error, so a record can be encoded field by field and
// checked once.
package binio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer encodes primitives and counts bytes written.
type Writer struct {
	w   io.Writer
	pos uint64
	err error
	buf [8]byte
}

// NewWriter wraps w; pos is the offset of the first byte that will be written.
func NewWriter(w io.Writer, pos uint64) *Writer { return &Writer{w: w, pos: pos} }

// Pos is the offset of the next byte.
func (w *Writer) Pos() uint64 { return w.pos }

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.pos += uint64(n)
	if err != nil {
		w.err = err
	}
}

func (w *Writer) U8(v uint8) { w.buf[0] = v; w.write(w.buf[:1]) }

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
		return
	}
	w.U8(0)
}

func (w *Writer) U16(v uint16)  { binary.LittleEndian.PutUint16(w.buf[:2], v); w.write(w.buf[:2]) }
func (w *Writer) U32(v uint32)  { binary.LittleEndian.PutUint32(w.buf[:4], v); w.write(w.buf[:4]) }
func (w *Writer) U64(v uint64)  { binary.LittleEndian.PutUint64(w.buf[:8], v); w.write(w.buf[:8]) }
func (w *Writer) I16(v int16)   { w.U16(uint16(v)) }
func (w *Writer) I32(v int32)   { w.U32(uint32(v)) }
func (w *Writer) I64(v int64)   { w.U64(uint64(v)) }
func (w *Writer) F32(v float64) { w.U32(math.Float32bits(float32(v))) }

// Write implements io.Writer so payloads can be streamed through the
// position counter.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	before := w.pos
	w.write(p)
	return int(w.pos - before), w.err
}

// Bytes writes p verbatim.
func (w *Writer) Bytes(p []byte) { w.write(p) }

// Pascal8 writes a string prefixed by a one byte length.
func (w *Writer) Pascal8(s string) {
	if len(s) > math.MaxUint8 {
		w.fail(fmt.Errorf("binio: string too long for u8 prefix (%d)", len(s)))
		return
	}
	w.U8(uint8(len(s)))
	w.write([]byte(s))
}

// Pascal16 writes a string prefixed by a two byte length.
func (w *Writer) Pascal16(s string) {
	if len(s) > math.MaxUint16 {
		w.fail(fmt.Errorf("binio: string too long for u16 prefix (%d)", len(s)))
		return
	}
	w.U16(uint16(len(s)))
	w.write([]byte(s))
}

// Pascal32 writes a string prefixed by a four byte length.
func (w *Writer) Pascal32(s string) {
	w.U32(uint32(len(s)))
	w.write([]byte(s))
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}
