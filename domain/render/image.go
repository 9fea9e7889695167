package render

import (
	"image"

	"github.com/disintegration/imaging"
)

// ToImage converts a straight-alpha BGRA8 canvas into an NRGBA image.
func ToImage(pix []byte, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	n := width * height * 4
	for i := 0; i < n && i+3 < len(pix); i += 4 {
		img.Pix[i] = pix[i+2]
		img.Pix[i+1] = pix[i+1]
		img.Pix[i+2] = pix[i]
		img.Pix[i+3] = pix[i+3]
	}
	return img
}

// ScaleToFit shrinks src to fit within maxW x maxH preserving aspect ratio.
// If the source already fits, it is returned unchanged.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return src
	}
	return imaging.Fit(src, max(maxW, 1), max(maxH, 1), imaging.Lanczos)
}

// Thumbnail renders the canvas at ts and shrinks it to fit within
// maxW x maxH.
func Thumbnail(p *Previewer, ts uint64, maxW, maxH int) (image.Image, error) {
	pix, err := p.Frame(ts)
	if err != nil {
		return nil, err
	}
	w, h := p.Size()
	return ScaleToFit(ToImage(pix, w, h), maxW, maxH), nil
}
