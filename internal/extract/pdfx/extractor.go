package pdfx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docuforge/parsesvc/internal/imagefilter"
	"github.com/docuforge/parsesvc/internal/mdtable"
	"github.com/docuforge/parsesvc/internal/model"
)

// PageCount returns the number of pages in the PDF at sourcePath, used by
// the orchestrator to decide how many page tasks to fan out.
func PageCount(sourcePath string) (int, error) {
	return pageCount(sourcePath)
}

// ExtractPage implements the per-format extractor contract of spec §4.6:
// extract_page(page_index, source_path, temp_dir) -> PageResult. pageIndex
// is zero-based; pdfcpu/dslipak's page numbering is one-based, so this is
// the only place the translation happens.
//
// Order key is a single monotonic counter incremented in the order
// text -> tables -> images, a deliberate simplification carried forward
// from spec §4.6 and recorded as an open-question resolution in
// SPEC_FULL.md: real y-position reading order is not reconstructed.
func ExtractPage(ctx context.Context, pageIndex int, sourcePath, tempDir string) (model.PageResult, error) {
	pageNum := pageIndex + 1
	result := model.PageResult{PageIndex: pageIndex}

	runs, err := readPageTextRuns(sourcePath, pageNum)
	if err != nil {
		return model.PageResult{}, fmt.Errorf("pdfx: page %d: %w", pageIndex, err)
	}

	boxes, grids := detectTables(runs)

	order := 0
	if text := nonTableText(runs, boxes); text != "" {
		result.Fragments = append(result.Fragments, model.TextFragment(order, text))
		order++
	}

	for _, grid := range grids {
		md := mdtable.Normalize(grid)
		if md == "" {
			continue
		}
		result.Fragments = append(result.Fragments, model.TableFragment(order, md))
		order++
	}

	if err := ctx.Err(); err != nil {
		return model.PageResult{}, err
	}

	scratchDir, err := os.MkdirTemp(tempDir, fmt.Sprintf("pdf_page_%d_*", pageIndex))
	if err != nil {
		return model.PageResult{}, fmt.Errorf("pdfx: scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratchDir) }()

	images, err := extractPageImages(sourcePath, pageNum, scratchDir)
	if err != nil {
		slog.Warn("pdfx: image extraction failed, page text/tables still returned", "page", pageIndex, "error", err)
		images = nil
	}

	imgOrdinal := 0
	for _, img := range images {
		if img.width > 0 && img.height > 0 && (img.width < minImageEdge || img.height < minImageEdge) {
			continue
		}

		dest := filepath.Join(tempDir, fmt.Sprintf("page_%d_image_%d.png", pageIndex, imgOrdinal))
		if err := savePNG(img.data, dest); err != nil {
			slog.Warn("pdfx: failed to persist extracted image", "page", pageIndex, "error", err)
			continue
		}

		if imagefilter.IsBackground(img.data, img.width, img.height) {
			_ = os.Remove(dest)
			imgOrdinal++
			continue
		}

		result.AddImage(order, dest)
		order++
		imgOrdinal++
	}

	return result, nil
}
