//go:build linux

package capture

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

func TestRGBAToBGRA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	copy(img.Pix, []byte{10, 20, 30, 0, 40, 50, 60, 128})
	dst := make([]byte, 8)
	require.NoError(t, rgbaToBGRA(img, dst))
	assert.Equal(t, []byte{30, 20, 10, 255, 60, 50, 40, 255}, dst)
	assert.Error(t, rgbaToBGRA(img, make([]byte, 4)))
}

func TestCursorFromARGBUnpremultiplies(t *testing.T) {
	shape := cursorFromARGB([]uint32{0xFF102030, 0x80404040, 0x00000000}, 3, 1, 1, 0)
	assert.Equal(t, project.CursorColor, shape.Type)
	assert.Equal(t, 1, shape.XHotspot)
	assert.Equal(t, []byte{0x30, 0x20, 0x10, 0xFF}, shape.Pixels[0:4])
	assert.Equal(t, []byte{0x7F, 0x7F, 0x7F, 0x80}, shape.Pixels[4:8])
	assert.Equal(t, []byte{0, 0, 0, 0}, shape.Pixels[8:12])
}

func TestButtonsFromMask(t *testing.T) {
	b := buttonsFromMask(256 | 1024)
	assert.True(t, b.Left)
	assert.True(t, b.Right)
	assert.False(t, b.Middle)
}
