package cache

import (
	"fmt"

	"github.com/soocke/pixel-recorder-go/domain/binio"
	"github.com/soocke/pixel-recorder-go/domain/project"
)

const (
	signature     = "stgC"
	formatVersion = 1
)

func writeProperties(w *binio.Writer, p *project.CachedProject) {
	w.Bytes([]byte(signature))
	w.U16(formatVersion)
	w.U16(uint16(p.Width))
	w.U16(uint16(p.Height))
	w.F32(p.HorizontalDpi)
	w.F32(p.VerticalDpi)
	w.Pascal32(p.Background)
	w.U8(p.ChannelCount)
	w.U8(p.BitsPerChannel)
	w.Pascal8(project.AppName)
	w.Pascal8(project.AppVersion)
	w.U8(uint8(p.Source))
	w.U64(project.DateTicks(p.CreationDate))
	w.Pascal8(p.Name)
	w.Pascal16(p.Dir)
}

func readProperties(r *binio.Reader, p *project.CachedProject) error {
	if !r.Signature(signature) {
		if r.Err() != nil {
			return r.Err()
		}
		return ErrSignature
	}
	if v := r.U16(); r.Err() == nil && v != formatVersion {
		return fmt.Errorf("%w %d", ErrVersion, v)
	}
	p.Width = int(r.U16())
	p.Height = int(r.U16())
	p.HorizontalDpi = r.F32()
	p.VerticalDpi = r.F32()
	p.Background = r.Pascal32()
	p.ChannelCount = r.U8()
	p.BitsPerChannel = r.U8()
	_ = r.Pascal8() // app name
	_ = r.Pascal8() // app version
	p.Source = project.ProjectSource(r.U8())
	p.CreationDate = project.TimeFromDateTicks(r.U64())
	p.Name = r.Pascal8()
	_ = r.Pascal16() // path at creation time; the opened directory wins
	return r.Err()
}

func writeTrack(w *binio.Writer, t *project.Track, sequences int) {
	w.U16(t.ID)
	w.Pascal8(t.Name)
	w.Bool(t.IsVisible)
	w.Bool(t.IsLocked)
	w.U16(uint16(sequences))
}

func readTrack(r *binio.Reader) (*project.Track, int) {
	t := &project.Track{}
	t.ID = r.U16()
	t.Name = r.Pascal8()
	t.IsVisible = r.Bool()
	t.IsLocked = r.Bool()
	return t, int(r.U16())
}

// writeSequenceHeader writes everything up to and including the
// sub-sequence count.
func writeSequenceHeader(w *binio.Writer, s project.Sequence, subs int) {
	b := s.Base()
	w.U16(b.ID)
	w.U8(uint8(b.Type))
	w.U64(b.StartTime)
	w.U64(b.EndTime)
	w.F32(b.Opacity)
	w.Pascal32(b.Background)
	w.U8(uint8(len(b.Effects)))
	for _, e := range b.Effects {
		w.U8(uint8(e.Kind))
		w.U16(uint16(len(e.Data)))
		w.Bytes(e.Data)
	}
	w.I32(b.Left)
	w.I32(b.Top)
	w.U16(b.Width)
	w.U16(b.Height)
	w.F32(b.Angle)
	if fs, ok := s.(*project.FrameSequence); ok {
		w.U8(uint8(fs.Origin))
		writeRaster(w, fs.Raster)
	}
	w.U32(uint32(subs))
}

// readSequenceHeader decodes a sequence header and returns the empty
// variant plus its declared sub-sequence count.
func readSequenceHeader(r *binio.Reader) (project.Sequence, uint32, error) {
	var b project.SequenceBase
	b.ID = r.U16()
	b.Type = project.SequenceType(r.U8())
	b.StartTime = r.U64()
	b.EndTime = r.U64()
	b.Opacity = r.F32()
	b.Background = r.Pascal32()
	effects := int(r.U8())
	for i := 0; i < effects && r.Err() == nil; i++ {
		kind := project.EffectKind(r.U8())
		data := r.Bytes(uint64(r.U16()))
		b.Effects = append(b.Effects, project.Effect{Kind: kind, Data: data})
	}
	b.Left = r.I32()
	b.Top = r.I32()
	b.Width = r.U16()
	b.Height = r.U16()
	b.Angle = r.F32()

	var seq project.Sequence
	switch b.Type {
	case project.SequenceFrame:
		fs := &project.FrameSequence{SequenceBase: b}
		fs.Origin = project.RasterOrigin(r.U8())
		fs.Raster = readRaster(r)
		seq = fs
	case project.SequenceCursor:
		seq = &project.CursorSequence{SequenceBase: b}
	case project.SequenceKey:
		seq = &project.KeySequence{SequenceBase: b}
	default:
		if r.Err() != nil {
			return nil, 0, r.Err()
		}
		return nil, 0, fmt.Errorf("%w: unsupported sequence type %s", ErrCorrupt, b.Type)
	}
	count := r.U32()
	return seq, count, r.Err()
}

func writeRect(w *binio.Writer, rc project.Rect) {
	w.I32(rc.Left)
	w.I32(rc.Top)
	w.U16(rc.Width)
	w.U16(rc.Height)
	w.F32(rc.Angle)
}

func readRect(r *binio.Reader) project.Rect {
	return project.Rect{Left: r.I32(), Top: r.I32(), Width: r.U16(), Height: r.U16(), Angle: r.F32()}
}

func writeRaster(w *binio.Writer, rs project.Raster) {
	w.U16(rs.OriginalWidth)
	w.U16(rs.OriginalHeight)
	w.F32(rs.HorizontalDpi)
	w.F32(rs.VerticalDpi)
	w.U8(rs.ChannelCount)
	w.U8(rs.BitsPerChannel)
}

func readRaster(r *binio.Reader) project.Raster {
	return project.Raster{
		OriginalWidth:  r.U16(),
		OriginalHeight: r.U16(),
		HorizontalDpi:  r.F32(),
		VerticalDpi:    r.F32(),
		ChannelCount:   r.U8(),
		BitsPerChannel: r.U8(),
	}
}

func writeFrameSub(w *binio.Writer, s *project.FrameSubSequence) {
	w.U8(uint8(project.SubSequenceFrame))
	w.U64(s.TimeStampInTicks)
	writeRect(w, s.Rect)
	writeRaster(w, s.Raster)
	w.U64(s.Delay)
	w.U64(s.DataLength)
}

func readFrameSub(r *binio.Reader) project.FrameSubSequence {
	s := project.FrameSubSequence{}
	s.Type = project.SubSequenceFrame
	s.TimeStampInTicks = r.U64()
	s.Rect = readRect(r)
	s.Raster = readRaster(r)
	s.Delay = r.U64()
	s.DataLength = r.U64()
	return s
}

func writeCursorSub(w *binio.Writer, s *project.CursorSubSequence) {
	w.U8(uint8(project.SubSequenceCursor))
	w.U64(s.TimeStampInTicks)
	writeRect(w, s.Rect)
	writeRaster(w, s.Raster)
	w.U64(s.DataLength)
	w.U8(uint8(s.CursorType))
	w.U16(s.XHotspot)
	w.U16(s.YHotspot)
	w.Bool(s.LeftButton)
	w.Bool(s.RightButton)
	w.Bool(s.MiddleButton)
	w.Bool(s.FirstExtraButton)
	w.Bool(s.SecondExtraButton)
	w.I16(s.MouseDelta)
}

func readCursorSub(r *binio.Reader) project.CursorSubSequence {
	s := project.CursorSubSequence{}
	s.Type = project.SubSequenceCursor
	s.TimeStampInTicks = r.U64()
	s.Rect = readRect(r)
	s.Raster = readRaster(r)
	s.DataLength = r.U64()
	s.CursorType = project.CursorType(r.U8())
	s.XHotspot = r.U16()
	s.YHotspot = r.U16()
	s.LeftButton = r.Bool()
	s.RightButton = r.Bool()
	s.MiddleButton = r.Bool()
	s.FirstExtraButton = r.Bool()
	s.SecondExtraButton = r.Bool()
	s.MouseDelta = r.I16()
	return s
}

func writeKeySub(w *binio.Writer, s *project.KeySubSequence) {
	w.U8(uint8(project.SubSequenceKey))
	w.U64(s.TimeStampInTicks)
	w.U8(s.Key)
	w.U8(s.Modifiers)
	w.Bool(s.IsUppercase)
	w.Bool(s.WasInjected)
}

func readKeySub(r *binio.Reader) project.KeySubSequence {
	s := project.KeySubSequence{}
	s.Type = project.SubSequenceKey
	s.TimeStampInTicks = r.U64()
	s.Key = r.U8()
	s.Modifiers = r.U8()
	s.IsUppercase = r.Bool()
	s.WasInjected = r.Bool()
	return s
}
