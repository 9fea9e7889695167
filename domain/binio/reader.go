package binio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MaxString bounds length-prefixed strings so corrupt input cannot trigger
// huge allocations.
const MaxString = 1 << 20

// Reader decodes primitives and counts bytes consumed.
type Reader struct {
	r   io.Reader
	pos uint64
	err error
	buf [8]byte
}

// NewReader wraps r; pos is the offset of the next byte r will yield.
func NewReader(r io.Reader, pos uint64) *Reader { return &Reader{r: r, pos: pos} }

// Reset repositions the reader onto src, whose next byte is at pos, and
// clears any error.
func (r *Reader) Reset(src io.Reader, pos uint64) {
	r.r = src
	r.pos = pos
	r.err = nil
}

func (r *Reader) Pos() uint64 { return r.pos }
func (r *Reader) Err() error  { return r.err }

func (r *Reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.r, p)
	r.pos += uint64(n)
	if err != nil {
		r.err = err
		return false
	}
	return true
}

func (r *Reader) U8() uint8 {
	if !r.read(r.buf[:1]) {
		return 0
	}
	return r.buf[0]
}

func (r *Reader) Bool() bool { return r.U8() != 0 }

func (r *Reader) U16() uint16 {
	if !r.read(r.buf[:2]) {
		return 0
	}
	return binary.LittleEndian.Uint16(r.buf[:2])
}

func (r *Reader) U32() uint32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

func (r *Reader) U64() uint64 {
	if !r.read(r.buf[:8]) {
		return 0
	}
	return binary.LittleEndian.Uint64(r.buf[:8])
}

func (r *Reader) I16() int16   { return int16(r.U16()) }
func (r *Reader) I32() int32   { return int32(r.U32()) }
func (r *Reader) I64() int64   { return int64(r.U64()) }
func (r *Reader) F32() float64 { return float64(math.Float32frombits(r.U32())) }

// Bytes reads exactly n bytes into a new slice.
func (r *Reader) Bytes(n uint64) []byte {
	if r.err != nil {
		return nil
	}
	if n > math.MaxInt32 {
		r.err = fmt.Errorf("binio: payload too large (%d)", n)
		return nil
	}
	p := make([]byte, n)
	if !r.read(p) {
		return nil
	}
	return p
}

// Skip advances n bytes, seeking when the underlying reader allows it.
func (r *Reader) Skip(n uint64) {
	if r.err != nil || n == 0 {
		return
	}
	if s, ok := r.r.(io.Seeker); ok {
		if _, err := s.Seek(int64(n), io.SeekCurrent); err != nil {
			r.err = err
			return
		}
		r.pos += n
		return
	}
	copied, err := io.CopyN(io.Discard, r.r, int64(n))
	r.pos += uint64(copied)
	if err != nil {
		r.err = err
	}
}

// CopyTo streams n bytes into w.
func (r *Reader) CopyTo(w io.Writer, n uint64) {
	if r.err != nil || n == 0 {
		return
	}
	copied, err := io.CopyN(w, r.r, int64(n))
	r.pos += uint64(copied)
	if err != nil {
		r.err = err
	}
}

func (r *Reader) pascal(n uint64) string {
	if r.err != nil {
		return ""
	}
	if n > MaxString {
		r.err = fmt.Errorf("binio: string length %d exceeds limit", n)
		return ""
	}
	return string(r.Bytes(n))
}

func (r *Reader) Pascal8() string  { return r.pascal(uint64(r.U8())) }
func (r *Reader) Pascal16() string { return r.pascal(uint64(r.U16())) }
func (r *Reader) Pascal32() string { return r.pascal(uint64(r.U32())) }

// Signature reads n bytes and reports whether they equal want.
func (r *Reader) Signature(want string) bool {
	got := r.Bytes(uint64(len(want)))
	return r.err == nil && string(got) == want
}
