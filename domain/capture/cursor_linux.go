//go:build linux

package capture

import "github.com/BurntSushi/xgb/xfixes"

// x11CursorProbe queries the pointer and refetches the cursor image only
// after the server reports a cursor change.
type x11CursorProbe struct {
	x       *x11Conn
	fetched bool
}

// NewCursorProbe returns the platform pointer probe.
func NewCursorProbe() (CursorProbe, error) {
	x, err := dialX11()
	if err != nil {
		return nil, err
	}
	x.watchCursor()
	return &x11CursorProbe{x: x}, nil
}

func (p *x11CursorProbe) Sample() (CursorSample, error) {
	changed := !p.fetched
	for {
		ev, xerr := p.x.conn.PollForEvent()
		if ev == nil && xerr == nil {
			break
		}
		if _, ok := ev.(xfixes.CursorNotifyEvent); ok {
			changed = true
		}
	}
	pos, buttons, err := p.x.pointer()
	if err != nil {
		return CursorSample{}, err
	}
	s := CursorSample{Visible: true, Position: pos, Buttons: buttons}
	if changed {
		shape, _, err := p.x.cursorImage()
		if err != nil {
			return s, err
		}
		p.fetched = true
		s.Shape = shape
	}
	return s, nil
}

func (p *x11CursorProbe) Close() error {
	p.x.close()
	return nil
}
