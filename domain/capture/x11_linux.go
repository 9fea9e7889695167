//go:build linux

package capture

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

// x11Conn is a display connection with XFIXES initialized.
type x11Conn struct {
	conn *xgb.Conn
	root xproto.Window
}

func dialX11() (*x11Conn, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: connect to X server: %v", ErrUnsupported, err)
	}
	if err := xfixes.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if _, err := xfixes.QueryVersion(conn, 5, 0).Reply(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: xfixes version: %v", ErrUnsupported, err)
	}
	root := xproto.Setup(conn).DefaultScreen(conn).Root
	return &x11Conn{conn: conn, root: root}, nil
}

func (c *x11Conn) close() { c.conn.Close() }

// watchCursor asks the server for cursor change notifications on the root.
func (c *x11Conn) watchCursor() {
	xfixes.SelectCursorInput(c.conn, c.root, xfixes.CursorNotifyMaskDisplayCursor)
}

// pointer returns the pointer position in root coordinates and its
// buttons.
func (c *x11Conn) pointer() (image.Point, Buttons, error) {
	reply, err := xproto.QueryPointer(c.conn, c.root).Reply()
	if err != nil {
		return image.Point{}, Buttons{}, err
	}
	return image.Pt(int(reply.RootX), int(reply.RootY)), buttonsFromMask(reply.Mask), nil
}

func buttonsFromMask(mask uint16) Buttons {
	return Buttons{
		Left:   mask&xproto.KeyButMaskButton1 != 0,
		Middle: mask&xproto.KeyButMaskButton2 != 0,
		Right:  mask&xproto.KeyButMaskButton3 != 0,
	}
}

// cursorImage fetches the current cursor. X11 cursors are premultiplied
// ARGB; the shape is returned as straight-alpha BGRA.
func (c *x11Conn) cursorImage() (*CursorShape, uint32, error) {
	reply, err := xfixes.GetCursorImage(c.conn).Reply()
	if err != nil {
		return nil, 0, err
	}
	return cursorFromARGB(reply.CursorImage, int(reply.Width), int(reply.Height),
		int(reply.Xhot), int(reply.Yhot)), reply.CursorSerial, nil
}

func cursorFromARGB(argb []uint32, w, h, xhot, yhot int) *CursorShape {
	n := w * h
	if len(argb) < n {
		n = len(argb)
	}
	pix := make([]byte, w*h*4)
	for i := 0; i < n; i++ {
		v := argb[i]
		a := byte(v >> 24)
		r, g, b := byte(v>>16), byte(v>>8), byte(v)
		if a != 0 && a != 0xFF {
			r = unpremultiply(r, a)
			g = unpremultiply(g, a)
			b = unpremultiply(b, a)
		}
		pix[i*4+0] = b
		pix[i*4+1] = g
		pix[i*4+2] = r
		pix[i*4+3] = a
	}
	return &CursorShape{
		Type:     project.CursorColor,
		Width:    w,
		Height:   h,
		XHotspot: xhot,
		YHotspot: yhot,
		Pixels:   pix,
	}
}

func unpremultiply(c, a byte) byte {
	v := int(c) * 255 / int(a)
	if v > 255 {
		v = 255
	}
	return byte(v)
}
