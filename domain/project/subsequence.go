package project

// Fixed header sizes of sub-sequence records; the payload starts right
// after the header.
const (
	FrameSubHeaderSize  = 55
	CursorSubHeaderSize = 59
	KeySubHeaderSize    = 13
)

// SubSequenceBase holds the fields shared by every sub-sequence.
type SubSequenceBase struct {
	Type             SubSequenceType
	TimeStampInTicks uint64
	StreamPosition   uint64
	DataLength       uint64
}

// FrameSubSequence is one stored bitmap. Its Rect is relative to the
// parent sequence.
type FrameSubSequence struct {
	SubSequenceBase
	Rect
	Raster
	Delay uint64
}

func (s *FrameSubSequence) DataStreamPosition() uint64 { return s.StreamPosition + FrameSubHeaderSize }

// CursorSubSequence is one pointer sample with the shape active at that time.
// Left/Top is the hotspot position relative to the parent sequence.
type CursorSubSequence struct {
	SubSequenceBase
	Rect
	Raster
	CursorType        CursorType
	XHotspot          uint16
	YHotspot          uint16
	LeftButton        bool
	RightButton       bool
	MiddleButton      bool
	FirstExtraButton  bool
	SecondExtraButton bool
	MouseDelta        int16
}

func (s *CursorSubSequence) DataStreamPosition() uint64 { return s.StreamPosition + CursorSubHeaderSize }

// KeySubSequence is one key stroke.
type KeySubSequence struct {
	SubSequenceBase
	Key         uint8
	Modifiers   uint8
	IsUppercase bool
	WasInjected bool
}

func (s *KeySubSequence) DataStreamPosition() uint64 { return s.StreamPosition + KeySubHeaderSize }
