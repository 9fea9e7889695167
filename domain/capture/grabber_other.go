//go:build !windows && !linux

package capture

import "image"

// NewScreenGrabber reports ErrUnsupported on this platform.
func NewScreenGrabber() (Grabber, error) { return nil, ErrUnsupported }

// ScreenBounds reports ErrUnsupported on this platform.
func ScreenBounds() (image.Rectangle, error) { return image.Rectangle{}, ErrUnsupported }
