package docx

import (
	"archive/zip"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docuforge/parsesvc/internal/model"
	"github.com/docuforge/parsesvc/internal/parseerr"
)

// ExtractDocument implements the DOCX extractor of spec §4.6. Unlike PDF
// and PPTX, DOCX is extracted once for the whole document rather than
// per-page (spec §4.7 step 8: DOCX reports page_count = 0); the
// orchestrator calls it once, directly, without the page pool.
//
// On any failure in the rich path it falls back to extractSimple, which
// shares no state with the rich attempt (spec §9).
func ExtractDocument(sourcePath, tempDir string) (model.PageResult, error) {
	if strings.EqualFold(filepath.Ext(sourcePath), ".doc") {
		data, err := os.ReadFile(sourcePath) //nolint:gosec // G304: orchestrator-owned temp path
		if err != nil {
			return model.PageResult{}, parseerr.NewExtractor(err, "docx: read legacy .doc file")
		}
		result, err := extractLegacyDoc(data)
		if err != nil {
			return model.PageResult{}, parseerr.NewExtractor(err, "docx: legacy .doc extraction failed")
		}
		return result, nil
	}

	result, richErr := tryRich(sourcePath, tempDir)
	if richErr == nil {
		return result, nil
	}
	slog.Warn("docx: rich extraction failed, falling back to simple path", "error", richErr)

	result, err := trySimple(sourcePath)
	if err != nil {
		return model.PageResult{}, parseerr.NewExtractor(err, "docx: both rich and simple extraction failed")
	}
	return result, nil
}

func tryRich(sourcePath, tempDir string) (result model.PageResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docx: panic in rich extractor: %v", r)
		}
	}()

	zr, err := zip.OpenReader(sourcePath)
	if err != nil {
		return model.PageResult{}, fmt.Errorf("docx: open zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	return extractRich(&zr.Reader, tempDir)
}

func trySimple(sourcePath string) (model.PageResult, error) {
	zr, err := zip.OpenReader(sourcePath)
	if err != nil {
		return model.PageResult{}, fmt.Errorf("docx: open zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	return extractSimple(&zr.Reader)
}
