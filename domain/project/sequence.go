package project

// Sequence is one of *FrameSequence, *CursorSequence or *KeySequence.
type Sequence interface {
	Base() *SequenceBase
	SubSequenceCount() int
}

// Rect places content on the canvas.
type Rect struct {
	Left   int32
	Top    int32
	Width  uint16
	Height uint16
	Angle  float64
}

// Raster describes stored pixel content.
type Raster struct {
	OriginalWidth  uint16
	OriginalHeight uint16
	HorizontalDpi  float64
	VerticalDpi    float64
	ChannelCount   uint8
	BitsPerChannel uint8
}

// NeedsTransform reports whether drawing stored content into r requires
// a resize or rotation.
func (r Raster) NeedsTransform(rect Rect) bool {
	return rect.Angle != 0 || int(r.OriginalWidth) != int(rect.Width) || int(r.OriginalHeight) != int(rect.Height)
}

// SequenceBase holds the fields common to every sequence variant.
type SequenceBase struct {
	ID             uint16
	Type           SequenceType
	StartTime      uint64
	EndTime        uint64
	Opacity        float64
	Background     string
	Effects        []Effect
	StreamPosition uint64
	CachePath      string
	Rect
}

func (b *SequenceBase) Base() *SequenceBase { return b }

// Active reports start <= ts < end.
func (b *SequenceBase) Active(ts uint64) bool { return b.StartTime <= ts && ts < b.EndTime }

// FrameSequence holds captured bitmaps.
type FrameSequence struct {
	SequenceBase
	Origin RasterOrigin
	Raster
	Frames []FrameSubSequence
}

func (s *FrameSequence) SubSequenceCount() int { return len(s.Frames) }

// CursorSequence holds pointer samples with their shapes.
type CursorSequence struct {
	SequenceBase
	Cursors []CursorSubSequence
}

func (s *CursorSequence) SubSequenceCount() int { return len(s.Cursors) }

// KeySequence holds key strokes.
type KeySequence struct {
	SequenceBase
	Keys []KeySubSequence
}

func (s *KeySequence) SubSequenceCount() int { return len(s.Keys) }

var (
	_ Sequence = (*FrameSequence)(nil)
	_ Sequence = (*CursorSequence)(nil)
	_ Sequence = (*KeySequence)(nil)
)
