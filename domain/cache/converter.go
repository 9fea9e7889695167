// Package cache converts a linear recording log into the track based,
// randomly seekable project cache and loads such projects back.
package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/pixel-recorder-go/domain/binio"
	"github.com/soocke/pixel-recorder-go/domain/project"
	"github.com/soocke/pixel-recorder-go/domain/recording"
)

// Track names written by the converter.
const (
	FramesTrackName = "Frames"
	CursorTrackName = "Cursor Events"
	KeyTrackName    = "Key Events"
)

// DefaultBackground is an opaque white canvas.
const DefaultBackground = "#FFFFFFFF"

// Converter turns recordings into cached projects under Root.
type Converter struct {
	Root       string
	Background string
	Logger     *slog.Logger
}

// NewConverter returns a converter writing projects below root.
func NewConverter(root string, logger *slog.Logger) *Converter {
	return &Converter{Root: root, Background: DefaultBackground, Logger: logger}
}

// seqFile is one sequence cache file being written.
type seqFile struct {
	path string
	file *os.File
	buf  *bufio.Writer
	w    *binio.Writer
}

func createSeqFile(path string) (*seqFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	buf := bufio.NewWriterSize(f, 1<<20)
	return &seqFile{path: path, file: f, buf: buf, w: binio.NewWriter(buf, 0)}, nil
}

func (s *seqFile) close() error {
	if s == nil {
		return nil
	}
	if err := errors.Join(s.w.Err(), s.buf.Flush(), s.file.Close()); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(s.path), err)
	}
	return nil
}

// checkHeader asserts the payload of a sub-sequence starts exactly where
// its header says it does.
func (s *seqFile) checkHeader(start uint64, size uint64) error {
	if err := s.w.Err(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(s.path), err)
	}
	if got := s.w.Pos(); got != start+size {
		return &InvariantError{Path: s.path, What: "sub-sequence header", Expected: start + size, Actual: got}
	}
	return nil
}

// Convert writes a cached project for rec. On success the recording is
// discarded; on any failure the partial project is removed and rec is left
// untouched so the conversion can be retried.
func (c *Converter) Convert(ctx context.Context, rec *project.RecordingProject) (*project.CachedProject, error) {
	started := time.Now()
	name := filepath.Base(rec.Dir)
	dir := filepath.Join(c.Root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	background := c.Background
	if background == "" {
		background = DefaultBackground
	}
	cp := &project.CachedProject{
		Name:           name,
		Dir:            dir,
		Width:          rec.Width,
		Height:         rec.Height,
		HorizontalDpi:  rec.Dpi,
		VerticalDpi:    rec.Dpi,
		Background:     background,
		ChannelCount:   rec.ChannelCount,
		BitsPerChannel: rec.BitsPerChannel,
		Source:         rec.Source,
		CreationDate:   rec.CreationDate,
	}
	conv := &conversion{ctx: ctx, rec: rec, cp: cp, end: rec.EndTimestamp()}
	if err := conv.run(); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil && c.Logger != nil {
			c.Logger.Warn("remove partial project", "dir", dir, "error", rmErr)
		}
		if c.Logger != nil {
			c.Logger.Error("convert failed", "recording", rec.Dir, "error", err)
		}
		return nil, err
	}
	if err := writePropertiesFile(cp); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if err := rec.Discard(); err != nil && c.Logger != nil {
		c.Logger.Warn("discard recording", "dir", rec.Dir, "error", err)
	}
	if c.Logger != nil {
		c.Logger.Info("convert done",
			"project", dir,
			"tracks", len(cp.Tracks),
			"size", humanize.Bytes(conv.written),
			"took", time.Since(started),
		)
	}
	return cp, nil
}

func writePropertiesFile(cp *project.CachedProject) error {
	f, err := os.Create(cp.PropertiesPath())
	if err != nil {
		return fmt.Errorf("create project properties: %w", err)
	}
	buf := bufio.NewWriter(f)
	w := binio.NewWriter(buf, 0)
	writeProperties(w, cp)
	if err := errors.Join(w.Err(), buf.Flush(), f.Close()); err != nil {
		return fmt.Errorf("write project properties: %w", err)
	}
	return nil
}

type conversion struct {
	ctx     context.Context
	rec     *project.RecordingProject
	cp      *project.CachedProject
	end     uint64
	nextID  uint16
	written uint64
}

func (c *conversion) run() error {
	if err := c.frames(); err != nil {
		return err
	}
	return c.events()
}

func (c *conversion) newTrack(name string, sequences int) (*project.Track, error) {
	c.nextID++
	t := &project.Track{ID: c.nextID, Name: name, IsVisible: true, CachePath: project.TrackPath(c.cp.Dir, c.nextID)}
	f, err := os.Create(t.CachePath)
	if err != nil {
		return nil, fmt.Errorf("create track %d: %w", t.ID, err)
	}
	buf := bufio.NewWriter(f)
	w := binio.NewWriter(buf, 0)
	writeTrack(w, t, sequences)
	if err := errors.Join(w.Err(), buf.Flush(), f.Close()); err != nil {
		return nil, fmt.Errorf("write track %d: %w", t.ID, err)
	}
	c.cp.Tracks = append(c.cp.Tracks, t)
	return t, nil
}

func (c *conversion) canvasBase(id uint16, typ project.SequenceType, path string) project.SequenceBase {
	return project.SequenceBase{
		ID:        id,
		Type:      typ,
		StartTime: 0,
		EndTime:   c.end,
		Opacity:   1,
		CachePath: path,
		Rect:      project.Rect{Width: uint16(c.rec.Width), Height: uint16(c.rec.Height)},
	}
}

func (c *conversion) raster(width, height uint16) project.Raster {
	return project.Raster{
		OriginalWidth:  width,
		OriginalHeight: height,
		HorizontalDpi:  c.rec.Dpi,
		VerticalDpi:    c.rec.Dpi,
		ChannelCount:   c.rec.ChannelCount,
		BitsPerChannel: c.rec.BitsPerChannel,
	}
}

func (c *conversion) frames() error {
	track, err := c.newTrack(FramesTrackName, 1)
	if err != nil {
		return err
	}
	path := project.SequencePath(c.cp.Dir, track.ID, 1)
	seq := &project.FrameSequence{
		SequenceBase: c.canvasBase(1, project.SequenceFrame, path),
		Origin:       project.OriginScreen,
		Raster:       c.raster(uint16(c.rec.Width), uint16(c.rec.Height)),
	}
	out, err := createSeqFile(path)
	if err != nil {
		return err
	}
	err = c.copyFrames(out, seq)
	if cerr := out.close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	c.written += out.w.Pos()
	track.Sequences = append(track.Sequences, seq)
	return nil
}

func (c *conversion) copyFrames(out *seqFile, seq *project.FrameSequence) error {
	writeSequenceHeader(out.w, seq, len(c.rec.Frames))
	if len(c.rec.Frames) == 0 {
		return out.w.Err()
	}
	in, err := recording.OpenStream(c.rec.FramesPath())
	if err != nil {
		return err
	}
	defer in.Close()

	seq.Frames = make([]project.FrameSubSequence, 0, len(c.rec.Frames))
	for _, meta := range c.rec.Frames {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		h, err := in.Next()
		if err != nil {
			return fmt.Errorf("read frame record: %w", err)
		}
		if h.Type != project.RecordFrame || h.Offset != meta.StreamPosition {
			return &InvariantError{Path: c.rec.FramesPath(), What: "frame record", Expected: meta.StreamPosition, Actual: h.Offset}
		}
		sub := project.FrameSubSequence{
			Rect:   seq.Rect,
			Raster: seq.Raster,
			Delay:  uint64(max(h.Frame.Delay, 0)),
		}
		sub.Type = project.SubSequenceFrame
		sub.TimeStampInTicks = h.Ticks
		sub.StreamPosition = out.w.Pos()
		sub.DataLength = h.PayloadLength
		writeFrameSub(out.w, &sub)
		if err := out.checkHeader(sub.StreamPosition, project.FrameSubHeaderSize); err != nil {
			return err
		}
		if err := in.CopyPayload(out.w); err != nil {
			return fmt.Errorf("copy frame at %d: %w", h.Offset, err)
		}
		seq.Frames = append(seq.Frames, sub)
	}
	return nil
}

// shapeState is the most recent cursor shape seen in the event stream.
type shapeState struct {
	typ     project.CursorType
	width   int32
	height  int32
	xHot    int32
	yHot    int32
	pixels  []byte
	buttons *project.CursorMoveEvent
}

func (c *conversion) events() error {
	cursors, keys := 0, 0
	for _, ev := range c.rec.Events {
		switch ev.Kind() {
		case project.RecordCursor, project.RecordCursorData:
			cursors++
		case project.RecordKey:
			keys++
		}
	}
	if cursors == 0 && keys == 0 {
		return nil
	}

	var cursorSeq *project.CursorSequence
	var keySeq *project.KeySequence
	var cursorOut, keyOut *seqFile
	var cursorTrack, keyTrack *project.Track
	closeAll := func() error { return errors.Join(cursorOut.close(), keyOut.close()) }

	if cursors > 0 {
		t, err := c.newTrack(CursorTrackName, 1)
		if err != nil {
			return err
		}
		path := project.SequencePath(c.cp.Dir, t.ID, 1)
		cursorSeq = &project.CursorSequence{SequenceBase: c.canvasBase(1, project.SequenceCursor, path)}
		if cursorOut, err = createSeqFile(path); err != nil {
			return err
		}
		writeSequenceHeader(cursorOut.w, cursorSeq, cursors)
		cursorTrack = t
	}
	if keys > 0 {
		t, err := c.newTrack(KeyTrackName, 1)
		if err != nil {
			_ = closeAll()
			return err
		}
		path := project.SequencePath(c.cp.Dir, t.ID, 1)
		keySeq = &project.KeySequence{SequenceBase: c.canvasBase(1, project.SequenceKey, path)}
		if keyOut, err = createSeqFile(path); err != nil {
			_ = closeAll()
			return err
		}
		writeSequenceHeader(keyOut.w, keySeq, keys)
		keyTrack = t
	}

	err := c.copyEvents(cursorOut, cursorSeq, keyOut, keySeq)
	if cerr := closeAll(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if cursorTrack != nil {
		c.written += cursorOut.w.Pos()
		cursorTrack.Sequences = append(cursorTrack.Sequences, cursorSeq)
	}
	if keyTrack != nil {
		c.written += keyOut.w.Pos()
		keyTrack.Sequences = append(keyTrack.Sequences, keySeq)
	}
	return nil
}

func (c *conversion) copyEvents(cursorOut *seqFile, cursorSeq *project.CursorSequence, keyOut *seqFile, keySeq *project.KeySequence) error {
	in, err := recording.OpenStream(c.rec.EventsPath())
	if err != nil {
		return err
	}
	defer in.Close()

	var shape shapeState
	for _, meta := range c.rec.Events {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		h, err := in.Next()
		if err != nil {
			return fmt.Errorf("read event record: %w", err)
		}
		if h.Type != meta.Kind() || h.Offset != meta.StreamPos() {
			return &InvariantError{Path: c.rec.EventsPath(), What: meta.Kind().String() + " record", Expected: meta.StreamPos(), Actual: h.Offset}
		}
		switch e := h.Event.(type) {
		case *project.CursorShapeEvent:
			pixels, err := in.ReadPayload()
			if err != nil {
				return fmt.Errorf("read cursor shape at %d: %w", h.Offset, err)
			}
			shape.typ, shape.width, shape.height = e.CursorType, e.Width, e.Height
			shape.xHot, shape.yHot, shape.pixels = e.XHotspot, e.YHotspot, pixels
			if err := c.writeCursor(cursorOut, cursorSeq, h.Ticks, e.Left, e.Top, 0, &shape); err != nil {
				return err
			}
		case *project.CursorMoveEvent:
			shape.buttons = e
			if err := c.writeCursor(cursorOut, cursorSeq, h.Ticks, e.X, e.Y, e.MouseDelta, &shape); err != nil {
				return err
			}
		case *project.KeyEvent:
			sub := project.KeySubSequence{Key: e.Key, Modifiers: e.Modifiers, IsUppercase: e.IsUppercase, WasInjected: e.WasInjected}
			sub.Type = project.SubSequenceKey
			sub.TimeStampInTicks = h.Ticks
			sub.StreamPosition = keyOut.w.Pos()
			writeKeySub(keyOut.w, &sub)
			if err := keyOut.checkHeader(sub.StreamPosition, project.KeySubHeaderSize); err != nil {
				return err
			}
			keySeq.Keys = append(keySeq.Keys, sub)
		}
	}
	return nil
}

// writeCursor emits one cursor sub-sequence carrying the current shape.
func (c *conversion) writeCursor(out *seqFile, seq *project.CursorSequence, ticks uint64, x, y int32, delta int16, shape *shapeState) error {
	sub := project.CursorSubSequence{
		Rect:       project.Rect{Left: x, Top: y, Width: uint16(shape.width), Height: uint16(shape.height)},
		Raster:     c.raster(uint16(shape.width), uint16(shape.height)),
		CursorType: shape.typ,
		XHotspot:   uint16(shape.xHot),
		YHotspot:   uint16(shape.yHot),
		MouseDelta: delta,
	}
	if b := shape.buttons; b != nil {
		sub.LeftButton = b.LeftButton
		sub.RightButton = b.RightButton
		sub.MiddleButton = b.MiddleButton
		sub.FirstExtraButton = b.FirstExtraButton
		sub.SecondExtraButton = b.SecondExtraButton
	}
	sub.Type = project.SubSequenceCursor
	sub.TimeStampInTicks = ticks
	sub.StreamPosition = out.w.Pos()
	sub.DataLength = uint64(len(shape.pixels))
	writeCursorSub(out.w, &sub)
	if err := out.checkHeader(sub.StreamPosition, project.CursorSubHeaderSize); err != nil {
		return err
	}
	out.w.Bytes(shape.pixels)
	if err := out.w.Err(); err != nil {
		return fmt.Errorf("write cursor payload: %w", err)
	}
	seq.Cursors = append(seq.Cursors, sub)
	return nil
}
