package pdfx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
)

// savePNG decodes arbitrary raster bytes and re-encodes them as PNG at
// dest, matching spec §4.6's "cropped out of the page and saved as PNG."
// This repo treats pdfcpu's extracted image as already cropped to the
// image XObject's bounds — true cropping against the page canvas is a
// pdfcpu capability out of this component's scope (spec §1: low-level
// PDF readers are an external collaborator).
func savePNG(data []byte, dest string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Not decodable as a raster image at all (e.g. a format with no
		// registered decoder, or an unsupported colorspace); fall back
		// to writing the raw bytes through so downstream OCR still has a
		// chance to decode it with a more permissive path.
		return os.WriteFile(dest, data, 0o644) //nolint:gosec // G306: artifact is request-scoped and removed on exit
	}

	f, err := os.Create(dest) //nolint:gosec // G304: dest built from our own temp dir
	if err != nil {
		return fmt.Errorf("pdfx: create image file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("pdfx: encode png: %w", err)
	}
	return nil
}
