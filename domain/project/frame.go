package project

// Frame is one captured bitmap. Pixels are BGRA8 rows with stride width*4.
// The writer consumes a frame exactly once and drops its pixels afterwards.
type Frame struct {
	Ticks      uint64
	Delay      int64 // legacy, milliseconds; skipped frames fold into it
	Pixels     []byte
	DataLength uint64
	WasSkipped bool

	// StreamPosition is the record offset in the uncompressed frame stream,
	// valid once written.
	StreamPosition uint64

	// Recycle, when set, receives Pixels back after serialization.
	Recycle func([]byte)
}

// Release drops the pixel buffer, handing it to Recycle when present.
func (f *Frame) Release() {
	if f == nil || f.Pixels == nil {
		return
	}
	buf := f.Pixels
	f.Pixels = nil
	if f.Recycle != nil {
		f.Recycle(buf)
		f.Recycle = nil
	}
}

// IsBlack reports whether every byte of the pixel buffer is zero.
func (f *Frame) IsBlack() bool {
	for _, b := range f.Pixels {
		if b != 0 {
			return false
		}
	}
	return true
}
