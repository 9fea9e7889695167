//go:build windows

package capture

import (
	"fmt"
	"image"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCxVirtualScreen = 78
	smCyVirtualScreen = 79
	srccopy           = 0x00CC0020
	captureblt        = 0x40000000
	dibRGBColors      = 0
	biRgb             = 0
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procGetDIBits          = gdi32.NewProc("GetDIBits")
	procGetObject          = gdi32.NewProc("GetObjectW")
)

type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [2]uint32 // room for a monochrome palette
}

func topDownInfo(w, h int, bits uint16) bitmapInfo {
	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h)
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = bits
	bi.Header.BiCompression = biRgb
	return bi
}

// gdiGrabber blits the screen into a DIB section that is kept across calls
// while the region size stays the same.
type gdiGrabber struct {
	mu     sync.Mutex
	memDC  uintptr
	bmp    uintptr
	prev   uintptr
	bits   unsafe.Pointer
	width  int
	height int
}

// NewScreenGrabber returns the platform grabber.
func NewScreenGrabber() (Grabber, error) { return &gdiGrabber{}, nil }

// ScreenBounds returns the virtual screen rectangle.
func ScreenBounds() (image.Rectangle, error) {
	x := getSystemMetric(smXVirtualScreen)
	y := getSystemMetric(smYVirtualScreen)
	w := getSystemMetric(smCxVirtualScreen)
	h := getSystemMetric(smCyVirtualScreen)
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("capture: invalid screen size w=%d h=%d", w, h)
	}
	return image.Rect(int(x), int(y), int(x+w), int(y+h)), nil
}

func (g *gdiGrabber) Grab(r image.Rectangle, dst []byte) error {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRegion, r)
	}
	if len(dst) < w*h*4 {
		return fmt.Errorf("capture: buffer too small: %d < %d", len(dst), w*h*4)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	screenDC, _, err := procGetDC.Call(0)
	if screenDC == 0 {
		return fmt.Errorf("capture: GetDC failed: %w", err)
	}
	defer procReleaseDC.Call(0, screenDC)

	if err := g.ensure(screenDC, w, h); err != nil {
		return err
	}
	ok, _, err := procBitBlt.Call(g.memDC, 0, 0, uintptr(w), uintptr(h), screenDC,
		uintptr(int32(r.Min.X)), uintptr(int32(r.Min.Y)), srccopy|captureblt)
	if ok == 0 {
		return fmt.Errorf("capture: BitBlt failed x=%d y=%d w=%d h=%d: %w", r.Min.X, r.Min.Y, w, h, err)
	}

	n := w * h * 4
	src := unsafe.Slice((*byte)(g.bits), n)
	copy(dst, src)
	// The DIB alpha byte is undefined.
	for i := 3; i < n; i += 4 {
		dst[i] = 0xFF
	}
	return nil
}

func (g *gdiGrabber) ensure(screenDC uintptr, w, h int) error {
	if g.memDC != 0 && g.width == w && g.height == h {
		return nil
	}
	g.release()

	memDC, _, err := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		return fmt.Errorf("capture: CreateCompatibleDC failed: %w", err)
	}
	bi := topDownInfo(w, h, 32)
	bi.Header.BiSizeImage = uint32(w * h * 4)
	var bits unsafe.Pointer
	bmp, _, err := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors,
		uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bmp == 0 {
		procDeleteDC.Call(memDC)
		return fmt.Errorf("capture: CreateDIBSection failed: %w", err)
	}
	prev, _, err := procSelectObject.Call(memDC, bmp)
	if prev == 0 || prev == ^uintptr(0) {
		procDeleteObject.Call(bmp)
		procDeleteDC.Call(memDC)
		return fmt.Errorf("capture: SelectObject failed: %w", err)
	}
	g.memDC, g.bmp, g.prev, g.bits = memDC, bmp, prev, bits
	g.width, g.height = w, h
	return nil
}

func (g *gdiGrabber) release() {
	if g.memDC == 0 {
		return
	}
	procSelectObject.Call(g.memDC, g.prev)
	procDeleteObject.Call(g.bmp)
	procDeleteDC.Call(g.memDC)
	g.memDC, g.bmp, g.prev, g.bits = 0, 0, 0, nil
}

// Close frees the GDI objects.
func (g *gdiGrabber) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release()
	return nil
}

func getSystemMetric(idx int) int32 {
	v, _, _ := procGetSystemMetrics.Call(uintptr(idx))
	return int32(v)
}
