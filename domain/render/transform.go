package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// bitmap is a decoded 4-channel payload ready to composite.
type bitmap struct {
	pix    []byte
	width  int
	height int
	stride int
}

// decodeRaster turns a stored payload into a 4-channel bitmap.
func decodeRaster(data []byte, width, height int, channels, bits uint8) (*bitmap, error) {
	if bits != 8 {
		return nil, fmt.Errorf("render: unsupported bits per channel %d", bits)
	}
	switch channels {
	case 4:
		if len(data) < width*height*4 {
			return nil, fmt.Errorf("render: payload %d bytes, want %d", len(data), width*height*4)
		}
		return &bitmap{pix: data, width: width, height: height, stride: width * 4}, nil
	case 3:
		if len(data) < width*height*3 {
			return nil, fmt.Errorf("render: payload %d bytes, want %d", len(data), width*height*3)
		}
		out := make([]byte, width*height*4)
		for i, j := 0, 0; j < len(out); i, j = i+3, j+4 {
			out[j], out[j+1], out[j+2], out[j+3] = data[i], data[i+1], data[i+2], 0xFF
		}
		return &bitmap{pix: out, width: width, height: height, stride: width * 4}, nil
	default:
		return nil, fmt.Errorf("render: unsupported channel count %d", channels)
	}
}

// transform resizes and rotates b to the display geometry. Channel order
// does not matter to either operation, so BGRA bytes pass through an RGBA
// view unchanged.
func transform(b *bitmap, width, height int, angle float64) *bitmap {
	var img image.Image = &image.RGBA{Pix: b.pix, Stride: b.stride, Rect: image.Rect(0, 0, b.width, b.height)}
	if width > 0 && height > 0 && (width != b.width || height != b.height) {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		img = dst
	}
	if angle != 0 {
		rot := imaging.Rotate(img, angle, color.Transparent)
		return &bitmap{pix: rot.Pix, width: rot.Rect.Dx(), height: rot.Rect.Dy(), stride: rot.Stride}
	}
	rgba := img.(*image.RGBA)
	return &bitmap{pix: rgba.Pix, width: rgba.Rect.Dx(), height: rgba.Rect.Dy(), stride: rgba.Stride}
}

// drawBitmap blends b onto c with its top-left at (x, y).
func drawBitmap(c *canvas, b *bitmap, x, y int, opacity float64) {
	rc := c.clip(x, y, x+b.width, y+b.height)
	for dy := rc.Min.Y; dy < rc.Max.Y; dy++ {
		src := b.pix[(dy-y)*b.stride:]
		dst := c.pix[dy*c.stride:]
		for dx := rc.Min.X; dx < rc.Max.X; dx++ {
			s := (dx - x) * 4
			blendOver(dst[dx*4:dx*4+4], src[s], src[s+1], src[s+2], scaleAlpha(src[s+3], opacity))
		}
	}
}
