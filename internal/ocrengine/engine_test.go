package ocrengine

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRecognize_JoinsDetectedLines(t *testing.T) {
	e := NewForTest(
		func(img image.Image) ([]image.Image, error) {
			return []image.Image{img, img}, nil
		},
		func(image.Image) (string, error) {
			return "line", nil
		},
	)

	text, err := e.Recognize(encode(t, 100, 50))
	require.NoError(t, err)
	assert.Equal(t, "line\nline", text)
}

func TestRecognize_EmptyLinesOmitted(t *testing.T) {
	calls := 0
	e := NewForTest(
		func(img image.Image) ([]image.Image, error) {
			return []image.Image{img, img}, nil
		},
		func(image.Image) (string, error) {
			calls++
			if calls == 1 {
				return "", nil
			}
			return "second", nil
		},
	)

	text, err := e.Recognize(encode(t, 100, 50))
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestRecognize_MalformedImageIsImageDecodeError(t *testing.T) {
	e := NewForTest(nil, nil)
	_, err := e.Recognize([]byte("not an image"))
	require.Error(t, err)
}

func TestRecognize_EngineFailureIsOcrEngineError(t *testing.T) {
	e := NewForTest(
		func(img image.Image) ([]image.Image, error) { return []image.Image{img}, nil },
		func(image.Image) (string, error) { return "", errors.New("boom") },
	)
	_, err := e.Recognize(encode(t, 100, 50))
	require.Error(t, err)
}

func TestResize_DoesNotUpscaleTinyImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	out := resize(img)
	assert.Equal(t, 10, out.Bounds().Dx())
	assert.Equal(t, 10, out.Bounds().Dy())
}

func TestResize_DownscalesOversizedImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5000, 1000))
	out := resize(img)
	assert.LessOrEqual(t, out.Bounds().Dx(), maxDimension)
}
