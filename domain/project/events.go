package project

// InputEvent is one of *CursorMoveEvent, *CursorShapeEvent or *KeyEvent.
// The set is closed.
type InputEvent interface {
	eventKind()
	Kind() RecordType
	TimeStamp() uint64
	StreamPos() uint64
	SetStreamPos(uint64)
}

type eventBase struct {
	Ticks          uint64
	StreamPosition uint64
}

func (e *eventBase) TimeStamp() uint64     { return e.Ticks }
func (e *eventBase) StreamPos() uint64     { return e.StreamPosition }
func (e *eventBase) SetStreamPos(p uint64) { e.StreamPosition = p }

// CursorMoveEvent samples the pointer position and button state.
type CursorMoveEvent struct {
	eventBase
	X, Y              int32
	LeftButton        bool
	RightButton       bool
	MiddleButton      bool
	FirstExtraButton  bool
	SecondExtraButton bool
	MouseDelta        int16
}

// NewCursorMoveEvent returns a move event stamped at ticks.
func NewCursorMoveEvent(ticks uint64, x, y int32) *CursorMoveEvent {
	return &CursorMoveEvent{eventBase: eventBase{Ticks: ticks}, X: x, Y: y}
}

func (*CursorMoveEvent) eventKind()       {}
func (*CursorMoveEvent) Kind() RecordType { return RecordCursor }

// CursorShapeEvent carries a raw pointer shape. Left/Top is the hotspot
// location on screen relative to the capture region.
type CursorShapeEvent struct {
	eventBase
	CursorType CursorType
	Left, Top  int32
	Width      int32
	Height     int32
	XHotspot   int32
	YHotspot   int32
	Pixels     []byte
	DataLength uint64
}

// NewCursorShapeEvent returns a shape event stamped at ticks.
func NewCursorShapeEvent(ticks uint64, typ CursorType, width, height, xHot, yHot int32, pixels []byte) *CursorShapeEvent {
	return &CursorShapeEvent{
		eventBase:  eventBase{Ticks: ticks},
		CursorType: typ,
		Width:      width,
		Height:     height,
		XHotspot:   xHot,
		YHotspot:   yHot,
		Pixels:     pixels,
		DataLength: uint64(len(pixels)),
	}
}

func (*CursorShapeEvent) eventKind()       {}
func (*CursorShapeEvent) Kind() RecordType { return RecordCursorData }

// KeyEvent records a key press.
type KeyEvent struct {
	eventBase
	Key         uint8
	Modifiers   uint8
	IsUppercase bool
	WasInjected bool
}

// NewKeyEvent returns a key event stamped at ticks.
func NewKeyEvent(ticks uint64, key, modifiers uint8) *KeyEvent {
	return &KeyEvent{eventBase: eventBase{Ticks: ticks}, Key: key, Modifiers: modifiers}
}

func (*KeyEvent) eventKind()       {}
func (*KeyEvent) Kind() RecordType { return RecordKey }
