//go:build windows

package capture

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

const (
	cursorShowing = 0x00000001

	vkLButton  = 0x01
	vkRButton  = 0x02
	vkMButton  = 0x04
	vkXButton1 = 0x05
	vkXButton2 = 0x06
)

var (
	procGetCursorInfo    = user32.NewProc("GetCursorInfo")
	procGetIconInfo      = user32.NewProc("GetIconInfo")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

type point struct{ X, Y int32 }

type cursorInfo struct {
	CbSize  uint32
	Flags   uint32
	HCursor uintptr
	Pos     point
}

type iconInfo struct {
	FIcon    int32
	XHotspot uint32
	YHotspot uint32
	HbmMask  uintptr
	HbmColor uintptr
}

type bitmapObject struct {
	BmType       int32
	BmWidth      int32
	BmHeight     int32
	BmWidthBytes int32
	BmPlanes     uint16
	BmBitsPixel  uint16
	BmBits       uintptr
}

// win32CursorProbe reads the pointer through GetCursorInfo and extracts the
// shape bitmaps whenever the cursor handle changes.
type win32CursorProbe struct {
	last uintptr
}

// NewCursorProbe returns the platform pointer probe.
func NewCursorProbe() (CursorProbe, error) { return &win32CursorProbe{}, nil }

func (p *win32CursorProbe) Sample() (CursorSample, error) {
	ci := cursorInfo{CbSize: uint32(unsafe.Sizeof(cursorInfo{}))}
	ok, _, err := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci)))
	if ok == 0 {
		return CursorSample{}, fmt.Errorf("capture: GetCursorInfo failed: %w", err)
	}
	s := CursorSample{
		Visible:  ci.Flags&cursorShowing != 0,
		Position: image.Pt(int(ci.Pos.X), int(ci.Pos.Y)),
		Buttons: Buttons{
			Left:        keyDown(vkLButton),
			Right:       keyDown(vkRButton),
			Middle:      keyDown(vkMButton),
			FirstExtra:  keyDown(vkXButton1),
			SecondExtra: keyDown(vkXButton2),
		},
	}
	if s.Visible && ci.HCursor != 0 && ci.HCursor != p.last {
		shape, err := cursorShape(ci.HCursor)
		if err != nil {
			return s, err
		}
		p.last = ci.HCursor
		s.Shape = shape
	}
	return s, nil
}

func keyDown(vk int) bool {
	v, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return v&0x8000 != 0
}

// cursorShape converts an HCURSOR into a raw shape. Cursors without a color
// bitmap are monochrome (AND rows then XOR rows). Color cursors whose alpha
// is empty carry their AND mask in the alpha byte.
func cursorShape(h uintptr) (*CursorShape, error) {
	var ii iconInfo
	ok, _, err := procGetIconInfo.Call(h, uintptr(unsafe.Pointer(&ii)))
	if ok == 0 {
		return nil, fmt.Errorf("capture: GetIconInfo failed: %w", err)
	}
	defer procDeleteObject.Call(ii.HbmMask)
	if ii.HbmColor != 0 {
		defer procDeleteObject.Call(ii.HbmColor)
	}

	dc, _, err := procGetDC.Call(0)
	if dc == 0 {
		return nil, fmt.Errorf("capture: GetDC failed: %w", err)
	}
	defer procReleaseDC.Call(0, dc)

	var mask bitmapObject
	if err := getObject(ii.HbmMask, &mask); err != nil {
		return nil, err
	}
	w := int(mask.BmWidth)

	if ii.HbmColor == 0 {
		rows := int(mask.BmHeight)
		pitch := ((w + 31) / 32) * 4
		bits := make([]byte, pitch*rows)
		if err := getDIBits(dc, ii.HbmMask, w, rows, 1, bits); err != nil {
			return nil, err
		}
		return &CursorShape{
			Type:     project.CursorMonochrome,
			Width:    w,
			Height:   rows / 2,
			XHotspot: int(ii.XHotspot),
			YHotspot: int(ii.YHotspot),
			Pixels:   bits,
		}, nil
	}

	hgt := int(mask.BmHeight)
	pix := make([]byte, w*hgt*4)
	if err := getDIBits(dc, ii.HbmColor, w, hgt, 32, pix); err != nil {
		return nil, err
	}
	typ := project.CursorColor
	if !hasAlpha(pix) {
		pitch := ((w + 31) / 32) * 4
		bits := make([]byte, pitch*hgt)
		if err := getDIBits(dc, ii.HbmMask, w, hgt, 1, bits); err != nil {
			return nil, err
		}
		for y := 0; y < hgt; y++ {
			for x := 0; x < w; x++ {
				if bits[y*pitch+x/8]&(0x80>>(x%8)) != 0 {
					pix[(y*w+x)*4+3] = 0xFF
				}
			}
		}
		typ = project.CursorMaskedColor
	}
	return &CursorShape{
		Type:     typ,
		Width:    w,
		Height:   hgt,
		XHotspot: int(ii.XHotspot),
		YHotspot: int(ii.YHotspot),
		Pixels:   pix,
	}, nil
}

func hasAlpha(pix []byte) bool {
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			return true
		}
	}
	return false
}

func getObject(h uintptr, out *bitmapObject) error {
	n, _, err := procGetObject.Call(h, unsafe.Sizeof(*out), uintptr(unsafe.Pointer(out)))
	if n == 0 {
		return fmt.Errorf("capture: GetObject failed: %w", err)
	}
	return nil
}

func getDIBits(dc, bmp uintptr, w, h int, bitCount uint16, dst []byte) error {
	bi := topDownInfo(w, h, bitCount)
	n, _, err := procGetDIBits.Call(dc, bmp, 0, uintptr(h), uintptr(unsafe.Pointer(&dst[0])),
		uintptr(unsafe.Pointer(&bi)), dibRGBColors)
	if n == 0 {
		return fmt.Errorf("capture: GetDIBits failed: %w", err)
	}
	return nil
}
