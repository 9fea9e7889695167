package project

// RecordType tags each record of a recording log stream.
type RecordType uint8

const (
	RecordUnknown RecordType = iota
	RecordFrame
	RecordCursor
	RecordKey
	RecordCursorData
)

func (t RecordType) String() string {
	switch t {
	case RecordFrame:
		return "frame"
	case RecordCursor:
		return "cursor"
	case RecordKey:
		return "key"
	case RecordCursorData:
		return "cursor-data"
	default:
		return "unknown"
	}
}

// SequenceType identifies the variant stored in a sequence cache file.
type SequenceType uint8

const (
	SequenceUnknown SequenceType = iota
	SequenceBrush
	SequenceFrame
	SequenceCursor
	SequenceKey
	SequenceText
	SequenceShape
	SequenceDrawing
	SequenceObfuscation
	SequenceProgress
)

func (t SequenceType) String() string {
	switch t {
	case SequenceBrush:
		return "brush"
	case SequenceFrame:
		return "frame"
	case SequenceCursor:
		return "cursor"
	case SequenceKey:
		return "key"
	case SequenceText:
		return "text"
	case SequenceShape:
		return "shape"
	case SequenceDrawing:
		return "drawing"
	case SequenceObfuscation:
		return "obfuscation"
	case SequenceProgress:
		return "progress"
	default:
		return "unknown"
	}
}

// IsRaster reports whether sequences of this type carry raster fields.
func (t SequenceType) IsRaster() bool { return t == SequenceFrame }

// SubSequenceType tags each sub-sequence record inside a sequence file.
type SubSequenceType uint8

const (
	SubSequenceUnknown SubSequenceType = iota
	SubSequenceFrame
	SubSequenceCursor
	SubSequenceKey
)

func (t SubSequenceType) String() string {
	switch t {
	case SubSequenceFrame:
		return "frame"
	case SubSequenceCursor:
		return "cursor"
	case SubSequenceKey:
		return "key"
	default:
		return "unknown"
	}
}

// RasterOrigin records where raster content came from.
type RasterOrigin uint8

const (
	OriginUnknown RasterOrigin = iota
	OriginScreen
	OriginWebcam
	OriginMedia
	OriginRasterization
)

func (o RasterOrigin) String() string {
	switch o {
	case OriginScreen:
		return "screen"
	case OriginWebcam:
		return "webcam"
	case OriginMedia:
		return "media"
	case OriginRasterization:
		return "rasterization"
	default:
		return "unknown"
	}
}

// ProjectSource identifies the recorder that created a project.
type ProjectSource uint8

const (
	SourceUnknown ProjectSource = iota
	SourceScreenRecorder
	SourceWebcamRecorder
	SourceBoardRecorder
	SourceEditor
)

func (s ProjectSource) String() string {
	switch s {
	case SourceScreenRecorder:
		return "screen"
	case SourceWebcamRecorder:
		return "webcam"
	case SourceBoardRecorder:
		return "board"
	case SourceEditor:
		return "editor"
	default:
		return "unknown"
	}
}

// CursorType is the pointer shape encoding reported by the capture source.
type CursorType uint8

const (
	CursorMonochrome  CursorType = 1
	CursorColor       CursorType = 2
	CursorMaskedColor CursorType = 4
)

func (c CursorType) String() string {
	switch c {
	case CursorMonochrome:
		return "monochrome"
	case CursorColor:
		return "color"
	case CursorMaskedColor:
		return "masked-color"
	default:
		return "unknown"
	}
}

// EffectKind tags an effect attached to a sequence.
type EffectKind uint8

const (
	EffectUnknown EffectKind = iota
	EffectShadow
	EffectFade
)

func (k EffectKind) String() string {
	switch k {
	case EffectShadow:
		return "shadow"
	case EffectFade:
		return "fade"
	default:
		return "unknown"
	}
}
