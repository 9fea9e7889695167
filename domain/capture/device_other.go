//go:build !linux

package capture

import "image"

// OpenDevice reports ErrUnsupported: desktop duplication is only wired to
// X11.
func OpenDevice(image.Rectangle) (DuplicationDevice, error) { return nil, ErrUnsupported }
