package render

// blendOver composites one straight-alpha source pixel over dst in place:
//
//	out = src*sa/255 + dst*da*(255-sa)/(255*255)
//	a   = sa + da*(255-sa)/255
func blendOver(dst []byte, b, g, r byte, sa int) {
	if sa <= 0 {
		return
	}
	if sa >= 255 {
		dst[0], dst[1], dst[2], dst[3] = b, g, r, 255
		return
	}
	da := int(dst[3])
	inv := 255 - sa
	dst[0] = byte(int(b)*sa/255 + int(dst[0])*da*inv/(255*255))
	dst[1] = byte(int(g)*sa/255 + int(dst[1])*da*inv/(255*255))
	dst[2] = byte(int(r)*sa/255 + int(dst[2])*da*inv/(255*255))
	dst[3] = byte(sa + da*inv/255)
}

// scaleAlpha applies a sequence opacity in [0,1] to an 8-bit alpha.
func scaleAlpha(a byte, opacity float64) int {
	if opacity >= 1 {
		return int(a)
	}
	if opacity <= 0 {
		return 0
	}
	return int(float64(a)*opacity + 0.5)
}

// fill paints c over every pixel of the clipped rectangle.
func fill(c *canvas, x0, y0, x1, y1 int, px BGRA, opacity float64) {
	rc := c.clip(x0, y0, x1, y1)
	if rc.Empty() {
		return
	}
	sa := scaleAlpha(px[3], opacity)
	for y := rc.Min.Y; y < rc.Max.Y; y++ {
		row := c.pix[y*c.stride:]
		for x := rc.Min.X; x < rc.Max.X; x++ {
			blendOver(row[x*4:x*4+4], px[0], px[1], px[2], sa)
		}
	}
}
