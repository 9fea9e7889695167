// Package render composites a cached project into BGRA8 pixels for any
// timestamp.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

// seqState tracks one sequence through a render call.
type seqState int

const (
	stateIdle seqState = iota
	stateLocated
	stateDecoded
	stateComposited
)

func (s seqState) String() string {
	switch s {
	case stateLocated:
		return "located"
	case stateDecoded:
		return "decoded"
	case stateComposited:
		return "composited"
	default:
		return "idle"
	}
}

// Compositor renders one project. It keeps no state between calls and
// opens its own file handle per sequence, so separate instances may render
// the same project concurrently.
type Compositor struct {
	project    *project.CachedProject
	background BGRA
	logger     *slog.Logger
}

// NewCompositor prepares a compositor for p.
func NewCompositor(p *project.CachedProject, logger *slog.Logger) *Compositor {
	c := &Compositor{project: p, logger: logger}
	bg, err := ParseColor(p.Background)
	if err != nil {
		if logger != nil {
			logger.Warn("render: bad project background", "background", p.Background, "error", err)
		}
		bg = BGRA{}
	}
	c.background = bg
	return c
}

// Render paints the project at ts into pix, a width*height BGRA8 buffer.
// A sequence that fails to decode is skipped; only an unusable canvas is
// reported as an error.
func (c *Compositor) Render(pix []byte, width, height int, ts uint64) error {
	cv, err := newCanvas(pix, width, height)
	if err != nil {
		return err
	}
	cv.clear(c.background)
	for _, track := range c.project.Tracks {
		if !track.IsVisible {
			continue
		}
		for _, seq := range track.Sequences {
			if !seq.Base().Active(ts) {
				continue
			}
			state, err := c.drawSequence(cv, seq, ts)
			if err != nil && c.logger != nil {
				c.logger.Warn("render: sequence skipped",
					"track", track.ID,
					"sequence", seq.Base().ID,
					"state", state.String(),
					"ts", ts,
					"error", err,
				)
			}
		}
	}
	return nil
}

// drawSequence walks Idle, Located, Decoded, Composited. On error it returns
// the last state reached; the canvas may hold the sequence background only.
func (c *Compositor) drawSequence(cv *canvas, seq project.Sequence, ts uint64) (seqState, error) {
	b := seq.Base()
	if b.Background != "" {
		if px, err := ParseColor(b.Background); err == nil {
			fill(cv, int(b.Left), int(b.Top), int(b.Left)+int(b.Width), int(b.Top)+int(b.Height), px, b.Opacity)
		}
	}

	switch s := seq.(type) {
	case *project.FrameSequence:
		i := latestAtOrBefore(len(s.Frames), func(i int) uint64 { return s.Frames[i].TimeStampInTicks }, ts)
		if i < 0 {
			return stateIdle, nil
		}
		sub := &s.Frames[i]
		data, err := readPayload(b.CachePath, sub.DataStreamPosition(), sub.DataLength)
		if err != nil {
			return stateLocated, err
		}
		bm, err := decodeRaster(data, int(sub.OriginalWidth), int(sub.OriginalHeight), sub.ChannelCount, sub.BitsPerChannel)
		if err != nil {
			return stateLocated, err
		}
		if sub.Raster.NeedsTransform(sub.Rect) {
			bm = transform(bm, int(sub.Width), int(sub.Height), sub.Angle)
		}
		drawBitmap(cv, bm, int(sub.Left)+int(b.Left), int(sub.Top)+int(b.Top), b.Opacity)
		return stateComposited, nil

	case *project.CursorSequence:
		i := latestAtOrBefore(len(s.Cursors), func(i int) uint64 { return s.Cursors[i].TimeStampInTicks }, ts)
		if i < 0 {
			return stateIdle, nil
		}
		sub := &s.Cursors[i]
		if sub.DataLength == 0 {
			return stateLocated, nil
		}
		data, err := readPayload(b.CachePath, sub.DataStreamPosition(), sub.DataLength)
		if err != nil {
			return stateLocated, err
		}
		x := int(sub.Left) - int(sub.XHotspot) + int(b.Left)
		y := int(sub.Top) - int(sub.YHotspot) + int(b.Top)
		if err := drawCursor(cv, sub, data, x, y, b.Opacity); err != nil {
			return stateDecoded, err
		}
		return stateComposited, nil

	case *project.KeySequence:
		// Key strokes carry no pixels.
		return stateIdle, nil
	default:
		return stateIdle, fmt.Errorf("render: unsupported sequence %T", seq)
	}
}

// readPayload opens path and reads exactly n bytes at pos.
func readPayload(path string, pos, n uint64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, int64(pos)); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("render: payload at %d truncated: %w", pos, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	return buf, nil
}
