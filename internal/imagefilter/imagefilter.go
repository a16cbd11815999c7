// Package imagefilter rejects decorative or background images before they
// are ever handed to the OCR pool, saving the most expensive hop in the
// pipeline (a spawn-isolated OCR worker) for images that are plausibly
// text-bearing.
package imagefilter

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const (
	// MaxBackgroundBytes is the serialized-size ceiling (§4.1).
	MaxBackgroundBytes = 300 * 1024
	// MaxBackgroundWidth is the width half of the dimension OR (§4.1).
	MaxBackgroundWidth = 1600
	// MaxBackgroundHeight is the height half of the dimension OR (§4.1).
	MaxBackgroundHeight = 900
	// MinIconBytes is the floor below which extractors reject icon-like
	// images before a background check is ever run (§4.1).
	MinIconBytes = 5 * 1024
)

// IsBackground reports whether an image should be skipped by OCR.
//
// An image is background when it is large in bytes OR large in both
// dimensions. width/height of 0 mean "unknown": the caller did not
// supply dimensions, so this package tries to decode just the header; if
// that decode fails the image is not rejected — false negatives (OCR
// wasted on a background image) are acceptable, false positives (a
// text-bearing figure silently dropped) are not.
func IsBackground(data []byte, width, height int) bool {
	if width <= 0 || height <= 0 {
		w, h, ok := sniffDimensions(data)
		if !ok {
			return false
		}
		width, height = w, h
	}

	// A surviving image must satisfy BOTH constraints (size AND at least
	// one small-enough dimension); background is the negation of that,
	// so either constraint failing alone is enough to reject it.
	sizeExceeded := len(data) > MaxBackgroundBytes
	bothDimensionsLarge := width > MaxBackgroundWidth && height > MaxBackgroundHeight

	return sizeExceeded || bothDimensionsLarge
}

// sniffDimensions decodes just enough of the header to get width/height
// without decoding the full pixel buffer.
func sniffDimensions(data []byte) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Debug("imagefilter: header decode failed, not rejecting", "error", err)
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// IsIconLike reports whether raw image bytes are small enough that
// extractors should drop them before ever consulting IsBackground (§4.1).
func IsIconLike(data []byte) bool {
	return len(data) < MinIconBytes
}
