//go:build linux

package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// screenshotGrabber reads the region through X11 GetImage.
type screenshotGrabber struct{}

// NewScreenGrabber returns the platform grabber.
func NewScreenGrabber() (Grabber, error) { return screenshotGrabber{}, nil }

// ScreenBounds returns the root window rectangle.
func ScreenBounds() (image.Rectangle, error) {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("capture: screen bounds: %w", err)
	}
	return r, nil
}

func (screenshotGrabber) Grab(r image.Rectangle, dst []byte) error {
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return fmt.Errorf("capture: grab %v: %w", r, err)
	}
	return rgbaToBGRA(img, dst)
}

// rgbaToBGRA copies img into dst as tightly packed BGRA rows with opaque
// alpha.
func rgbaToBGRA(img *image.RGBA, dst []byte) error {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if len(dst) < w*h*4 {
		return fmt.Errorf("capture: buffer too small: %d < %d", len(dst), w*h*4)
	}
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		row := dst[y*w*4 : (y+1)*w*4]
		for i := 0; i < len(src); i += 4 {
			row[i+0] = src[i+2]
			row[i+1] = src[i+1]
			row[i+2] = src[i+0]
			row[i+3] = 0xFF
		}
	}
	return nil
}
