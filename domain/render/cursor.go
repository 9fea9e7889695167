package render

import (
	"fmt"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

// drawCursor composites a pointer shape whose top-left lands at (x, y).
func drawCursor(c *canvas, sub *project.CursorSubSequence, data []byte, x, y int, opacity float64) error {
	w, h := int(sub.Width), int(sub.Height)
	if w <= 0 || h <= 0 || len(data) == 0 {
		return nil
	}
	switch sub.CursorType {
	case project.CursorMonochrome:
		return drawMonochrome(c, data, w, h, x, y)
	case project.CursorColor:
		return drawColorCursor(c, data, w, h, x, y, opacity)
	case project.CursorMaskedColor:
		return drawMaskedColor(c, data, w, h, x, y)
	default:
		return fmt.Errorf("render: unknown cursor type %d", sub.CursorType)
	}
}

// drawMonochrome applies a 1bpp AND mask followed by a 1bpp XOR mask. The
// payload holds both masks stacked, each h rows of pitch bytes.
func drawMonochrome(c *canvas, data []byte, w, h, x, y int) error {
	pitch := len(data) / (2 * h)
	if pitch*8 < w {
		return fmt.Errorf("render: monochrome cursor payload too small (%d bytes for %dx%d)", len(data), w, h)
	}
	xorBase := h * pitch
	rc := c.clip(x, y, x+w, y+h)
	for dy := rc.Min.Y; dy < rc.Max.Y; dy++ {
		row := dy - y
		for dx := rc.Min.X; dx < rc.Max.X; dx++ {
			col := dx - x
			idx := row*pitch + col/8
			bit := byte(0x80) >> uint(col%8)
			var and, xor byte
			if data[idx]&bit != 0 {
				and = 0xFF
			}
			if data[xorBase+idx]&bit != 0 {
				xor = 0xFF
			}
			o := dy*c.stride + dx*4
			c.pix[o] = (c.pix[o] & and) ^ xor
			c.pix[o+1] = (c.pix[o+1] & and) ^ xor
			c.pix[o+2] = (c.pix[o+2] & and) ^ xor
			c.pix[o+3] = 0xFF
		}
	}
	return nil
}

// drawColorCursor blends a 32bpp shape using its own alpha channel.
func drawColorCursor(c *canvas, data []byte, w, h, x, y int, opacity float64) error {
	pitch := len(data) / h
	if pitch < w*4 {
		return fmt.Errorf("render: color cursor payload too small (%d bytes for %dx%d)", len(data), w, h)
	}
	rc := c.clip(x, y, x+w, y+h)
	for dy := rc.Min.Y; dy < rc.Max.Y; dy++ {
		src := data[(dy-y)*pitch:]
		dst := c.pix[dy*c.stride:]
		for dx := rc.Min.X; dx < rc.Max.X; dx++ {
			s := (dx - x) * 4
			if src[s+3] == 0 {
				continue
			}
			blendOver(dst[dx*4:dx*4+4], src[s], src[s+1], src[s+2], scaleAlpha(src[s+3], opacity))
		}
	}
	return nil
}

// drawMaskedColor copies RGB where the mask byte is 0 and XORs RGB where it
// is 0xFF.
func drawMaskedColor(c *canvas, data []byte, w, h, x, y int) error {
	pitch := len(data) / h
	if pitch < w*4 {
		return fmt.Errorf("render: masked cursor payload too small (%d bytes for %dx%d)", len(data), w, h)
	}
	rc := c.clip(x, y, x+w, y+h)
	for dy := rc.Min.Y; dy < rc.Max.Y; dy++ {
		src := data[(dy-y)*pitch:]
		dst := c.pix[dy*c.stride:]
		for dx := rc.Min.X; dx < rc.Max.X; dx++ {
			s, d := (dx-x)*4, dx*4
			switch src[s+3] {
			case 0x00:
				dst[d], dst[d+1], dst[d+2] = src[s], src[s+1], src[s+2]
			case 0xFF:
				dst[d] ^= src[s]
				dst[d+1] ^= src[s+1]
				dst[d+2] ^= src[s+2]
			}
		}
	}
	return nil
}
