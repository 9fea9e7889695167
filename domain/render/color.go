package render

import (
	"fmt"
	"strconv"
	"strings"
)

// BGRA is one canvas pixel in memory order.
type BGRA [4]byte

// ParseColor accepts "#AARRGGBB" or "#RRGGBB". An empty string is fully
// transparent.
func ParseColor(s string) (BGRA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BGRA{}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return BGRA{}, fmt.Errorf("render: invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return BGRA{}, fmt.Errorf("render: invalid color %q: %w", s, err)
	}
	return BGRA{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}, nil
}
