// Package pdfx is the PDF format extractor (spec §4.6, PDF extractor).
package pdfx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// minImageEdge is the per-image skip floor (§4.6: "smaller than 50x50 px
// is skipped").
const minImageEdge = 50

// extractedImage is one raw image pulled off a page before filtering.
type extractedImage struct {
	path          string
	width, height int
	data          []byte
}

// extractPageImages asks pdfcpu to pull every image on the given page
// (1-indexed internally, per pdfcpu convention) into a scratch directory,
// then loads each one back for dimension/size inspection. This mirrors
// internal/pdf.ExtractImages in the teacher codebase, narrowed to a
// single page at a time since the orchestrator fans pages out
// independently.
func extractPageImages(sourcePath string, pageNumOneIndexed int, scratchDir string) ([]extractedImage, error) {
	pageStr := strconv.Itoa(pageNumOneIndexed)
	if err := api.ExtractImagesFile(sourcePath, scratchDir, []string{pageStr}, nil); err != nil {
		return nil, fmt.Errorf("pdfx: extract images for page %d: %w", pageNumOneIndexed, err)
	}

	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("pdfx: read scratch dir: %w", err)
	}

	var out []extractedImage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(scratchDir, e.Name())
		data, err := os.ReadFile(path) //nolint:gosec // path built from our own scratch dir
		if err != nil {
			continue
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			// Undecodable image: keep the bytes, report zero dimensions
			// so the caller's 50x50 floor treats it conservatively.
			out = append(out, extractedImage{path: path, data: data})
			continue
		}
		out = append(out, extractedImage{path: path, width: cfg.Width, height: cfg.Height, data: data})
	}
	return out, nil
}

// pageCount returns the number of pages in the PDF.
func pageCount(sourcePath string) (int, error) {
	n, err := api.PageCountFile(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("pdfx: page count: %w", err)
	}
	return n, nil
}
