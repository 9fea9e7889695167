//go:build linux

package capture

import (
	"fmt"
	"image"
	"time"

	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
)

const (
	x11PollInterval = 4 * time.Millisecond
	// maxDirtyRects collapses larger damage lists into their bounding box.
	maxDirtyRects = 32
)

// x11Device reports root window damage through the DAMAGE extension and
// pointer changes through XFIXES.
type x11Device struct {
	x       *x11Conn
	region  image.Rectangle
	damage  damage.Damage
	screen  image.Rectangle
	pixels  []byte
	first   bool
	pointer CursorSample
	fetched bool
}

// OpenDevice is the platform DeviceFactory.
func OpenDevice(region image.Rectangle) (DuplicationDevice, error) {
	x, err := dialX11()
	if err != nil {
		return nil, err
	}
	d, err := newX11Device(x, region)
	if err != nil {
		x.close()
		return nil, err
	}
	return d, nil
}

func newX11Device(x *x11Conn, region image.Rectangle) (*x11Device, error) {
	if err := damage.Init(x.conn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if _, err := damage.QueryVersion(x.conn, 1, 1).Reply(); err != nil {
		return nil, fmt.Errorf("%w: damage version: %v", ErrUnsupported, err)
	}
	screen, err := x.screen()
	if err != nil {
		return nil, err
	}
	if !region.In(screen) {
		return nil, fmt.Errorf("%w: %v outside screen %v", ErrInvalidRegion, region, screen)
	}
	id, err := damage.NewDamageId(x.conn)
	if err != nil {
		return nil, err
	}
	if err := damage.CreateChecked(x.conn, id, xproto.Drawable(x.root), damage.ReportLevelRawRectangles).Check(); err != nil {
		return nil, fmt.Errorf("%w: create damage: %v", ErrUnsupported, err)
	}
	x.watchCursor()
	return &x11Device{
		x:      x,
		region: region,
		damage: id,
		screen: screen,
		pixels: make([]byte, region.Dx()*region.Dy()*4),
		first:  true,
	}, nil
}

func (x *x11Conn) screen() (image.Rectangle, error) {
	geo, err := xproto.GetGeometry(x.conn, xproto.Drawable(x.root)).Reply()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("%w: %v", ErrDeviceLost, err)
	}
	return image.Rect(0, 0, int(geo.Width), int(geo.Height)), nil
}

func (d *x11Device) AcquireNextFrame(timeout time.Duration) (*DuplicatedFrame, error) {
	deadline := time.Now().Add(timeout)
	var dirty []image.Rectangle
	var pointer *CursorSample
	for {
		cursorChanged := d.drain(&dirty)
		p, err := d.samplePointer(cursorChanged || !d.fetched)
		if err != nil {
			return nil, err
		}
		pointer = p
		if d.first || len(dirty) > 0 || pointer != nil {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNoFrame
		}
		time.Sleep(x11PollInterval)
	}

	screen, err := d.x.screen()
	if err != nil {
		return nil, err
	}
	if screen != d.screen {
		return nil, fmt.Errorf("%w: screen changed from %v to %v", ErrDeviceLost, d.screen, screen)
	}
	if d.first {
		dirty = []image.Rectangle{d.region}
		d.first = false
	} else if len(dirty) > maxDirtyRects {
		u := dirty[0]
		for _, r := range dirty[1:] {
			u = u.Union(r)
		}
		dirty = []image.Rectangle{u}
	}
	damage.Subtract(d.x.conn, d.damage, xfixes.RegionNone, xfixes.RegionNone)

	w, h := d.region.Dx(), d.region.Dy()
	rel := make([]image.Rectangle, 0, len(dirty))
	for _, r := range dirty {
		r = r.Intersect(d.region)
		if r.Empty() {
			continue
		}
		if err := d.fetch(r); err != nil {
			return nil, err
		}
		rel = append(rel, r.Sub(d.region.Min))
	}
	if len(rel) == 0 && pointer == nil {
		return nil, ErrNoFrame
	}
	return &DuplicatedFrame{
		Width:      w,
		Height:     h,
		Stride:     w * 4,
		Pixels:     d.pixels,
		DirtyRects: rel,
		Pointer:    pointer,
	}, nil
}

// drain collects pending damage rectangles and reports whether the cursor
// shape changed.
func (d *x11Device) drain(dirty *[]image.Rectangle) bool {
	changed := false
	for {
		ev, xerr := d.x.conn.PollForEvent()
		if ev == nil && xerr == nil {
			return changed
		}
		switch e := ev.(type) {
		case damage.NotifyEvent:
			a := e.Area
			*dirty = append(*dirty, image.Rect(int(a.X), int(a.Y), int(a.X)+int(a.Width), int(a.Y)+int(a.Height)))
		case xfixes.CursorNotifyEvent:
			changed = true
		}
	}
}

// samplePointer returns nil when neither the position, the buttons nor the
// shape changed.
func (d *x11Device) samplePointer(shapeChanged bool) (*CursorSample, error) {
	pos, buttons, err := d.x.pointer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceLost, err)
	}
	if !shapeChanged && d.pointer.Visible && pos == d.pointer.Position && buttons == d.pointer.Buttons {
		return nil, nil
	}
	s := CursorSample{Visible: true, Position: pos, Buttons: buttons}
	d.pointer = s
	if shapeChanged {
		shape, _, err := d.x.cursorImage()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceLost, err)
		}
		d.fetched = true
		s.Shape = shape
	}
	return &s, nil
}

// fetch copies r, in root coordinates, into the output buffer.
func (d *x11Device) fetch(r image.Rectangle) error {
	reply, err := xproto.GetImage(d.x.conn, xproto.ImageFormatZPixmap, xproto.Drawable(d.x.root),
		int16(r.Min.X), int16(r.Min.Y), uint16(r.Dx()), uint16(r.Dy()), 0xFFFFFFFF).Reply()
	if err != nil {
		return fmt.Errorf("%w: get image: %v", ErrDeviceLost, err)
	}
	rowBytes := r.Dx() * 4
	if len(reply.Data) < rowBytes*r.Dy() {
		return fmt.Errorf("%w: depth %d is not 32 bits per pixel", ErrUnsupported, reply.Depth)
	}
	stride := d.region.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		src := reply.Data[y*rowBytes : (y+1)*rowBytes]
		o := (r.Min.Y-d.region.Min.Y+y)*stride + (r.Min.X-d.region.Min.X)*4
		dst := d.pixels[o : o+rowBytes]
		copy(dst, src)
		for i := 3; i < rowBytes; i += 4 {
			dst[i] = 0xFF
		}
	}
	return nil
}

func (d *x11Device) Close() error {
	damage.Destroy(d.x.conn, d.damage)
	d.x.close()
	return nil
}
