package render

import (
	"fmt"
	"image"
)

// canvas is a BGRA8 target with stride width*4.
type canvas struct {
	pix    []byte
	width  int
	height int
	stride int
}

func newCanvas(pix []byte, width, height int) (*canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid canvas size %dx%d", width, height)
	}
	if len(pix) < width*height*4 {
		return nil, fmt.Errorf("render: canvas buffer too small: %d < %d", len(pix), width*height*4)
	}
	return &canvas{pix: pix, width: width, height: height, stride: width * 4}, nil
}

func (c *canvas) bounds() image.Rectangle { return image.Rect(0, 0, c.width, c.height) }

// clip intersects a destination rectangle with the canvas, every edge
// clamped independently.
func (c *canvas) clip(x0, y0, x1, y1 int) image.Rectangle {
	return image.Rect(x0, y0, x1, y1).Intersect(c.bounds())
}

func (c *canvas) clear(px BGRA) {
	n := c.width * c.height * 4
	for i := 0; i < n; i += 4 {
		c.pix[i], c.pix[i+1], c.pix[i+2], c.pix[i+3] = px[0], px[1], px[2], px[3]
	}
}
