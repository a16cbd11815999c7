package imagefilter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsBackground_LargeBothDimensions(t *testing.T) {
	assert.True(t, IsBackground([]byte("tiny"), 1920, 1080))
}

func TestIsBackground_SmallDimensionSurvives(t *testing.T) {
	assert.False(t, IsBackground([]byte("tiny"), 1920, 400))
	assert.False(t, IsBackground([]byte("tiny"), 800, 1080))
}

func TestIsBackground_LargeBytesAlwaysBackground(t *testing.T) {
	big := bytes.Repeat([]byte{0xAB}, MaxBackgroundBytes+1)
	assert.True(t, IsBackground(big, 10, 10))
}

func TestIsBackground_UnknownDimensionsDecodesHeader(t *testing.T) {
	data := encodePNG(t, 2000, 2000)
	assert.True(t, IsBackground(data, 0, 0))

	small := encodePNG(t, 10, 10)
	assert.False(t, IsBackground(small, 0, 0))
}

func TestIsBackground_UndecodableUnknownDimensionsNotRejected(t *testing.T) {
	assert.False(t, IsBackground([]byte("not an image"), 0, 0))
}

func TestIsIconLike(t *testing.T) {
	assert.True(t, IsIconLike(bytes.Repeat([]byte{1}, 100)))
	assert.False(t, IsIconLike(bytes.Repeat([]byte{1}, MinIconBytes+1)))
}
