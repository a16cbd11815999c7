// Package orchestrator implements the two-level parsing pipeline (spec
// §4.7): select an extractor by extension, fan out page/slide extraction
// across the page worker pool, collect surviving images, batch them to
// the OCR worker pool under a bounded semaphore, and assemble the final
// ordered text artifact with its metadata counters.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/docuforge/parsesvc/internal/extract/docx"
	"github.com/docuforge/parsesvc/internal/extract/markdown"
	"github.com/docuforge/parsesvc/internal/extract/pdfx"
	"github.com/docuforge/parsesvc/internal/extract/pptx"
	"github.com/docuforge/parsesvc/internal/model"
	"github.com/docuforge/parsesvc/internal/narrative"
	"github.com/docuforge/parsesvc/internal/ocrpool"
	"github.com/docuforge/parsesvc/internal/pagepool"
	"github.com/docuforge/parsesvc/internal/parseerr"
)

const (
	perImageTimeout       = 180 * time.Second
	maxConcurrentDocxPdf  = 5
	maxConcurrentPptx     = 10
	pageBreakSeparator    = "\n\n--- Page Break ---\n\n"
	fragmentJoinSeparator = "\n\n"
)

// Options carries the per-request knobs of spec §6's ParseFile surface.
// MaxImageSize and Language are accepted for interface compatibility but
// are not consulted by this package: the spec leaves their effect on the
// orchestration algorithm unspecified, and OCR sizing is already governed
// by the adapter in internal/ocrengine.
type Options struct {
	EnableOCR     bool
	EnableCaption bool // always a no-op: metadata.CaptionCount stays 0
	MaxImageSize  int
	Language      string
}

// Orchestrator wires the two process-wide pools into the per-request
// pipeline. Callers construct exactly one and share it across requests;
// the pools it references are themselves process-wide singletons.
type Orchestrator struct {
	pagePool *pagepool.Pool
	ocrPool  *ocrpool.Pool
}

// New builds an Orchestrator over already-constructed pools.
func New(pagePool *pagepool.Pool, ocrPool *ocrpool.Pool) *Orchestrator {
	return &Orchestrator{pagePool: pagePool, ocrPool: ocrPool}
}

// ParseDocument runs the full pipeline for one request. fileName is used
// only to resolve the extension; unrecognized extensions are the
// caller's responsibility to reject before reaching here (spec §4.9
// validates before dispatch), but an unrecognized extension still
// returns a ValidationError rather than panicking.
func (o *Orchestrator) ParseDocument(ctx context.Context, fileBytes []byte, fileName string, opts Options) (model.ParseResult, error) {
	start := time.Now()
	ext := strings.ToLower(filepath.Ext(fileName))

	if ext == ".md" || ext == ".markdown" {
		return model.ParseResult{
			Content:  markdown.Decode(fileBytes),
			Metadata: model.ParseMetadata{ParseTimeMs: time.Since(start).Milliseconds()},
		}, nil
	}

	tempDir, err := os.MkdirTemp("", "parsesvc-*")
	if err != nil {
		return model.ParseResult{}, parseerr.NewFatal(err, "orchestrator: failed to create request temp directory")
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			slog.Warn("orchestrator: failed to remove temp directory", "dir", tempDir, "error", rmErr)
		}
	}()

	docPath := filepath.Join(tempDir, "document"+ext)
	if err := os.WriteFile(docPath, fileBytes, 0o644); err != nil { //nolint:gosec // G306: request-scoped artifact
		return model.ParseResult{}, parseerr.NewFatal(err, "orchestrator: failed to write source document")
	}

	switch ext {
	case ".pdf":
		return o.parsePDF(ctx, docPath, tempDir, start, opts)
	case ".docx", ".doc":
		return o.parseDOCX(ctx, docPath, tempDir, start, opts)
	case ".pptx":
		return o.parsePPTX(ctx, docPath, tempDir, start, opts)
	default:
		return model.ParseResult{}, parseerr.NewValidation("orchestrator: unrecognized extension %q", ext)
	}
}

func (o *Orchestrator) parsePDF(ctx context.Context, docPath, tempDir string, start time.Time, opts Options) (model.ParseResult, error) {
	n, err := pdfx.PageCount(docPath)
	if err != nil {
		return model.ParseResult{}, parseerr.NewFatal(err, "orchestrator: failed to count pdf pages")
	}

	pages := fanOutPages(ctx, o.pagePool, n, func(ctx context.Context, i int) (model.PageResult, error) {
		return pdfx.ExtractPage(ctx, i, docPath, tempDir)
	})

	ocrText, imageCount, ocrCount := o.runOCRPhase(ctx, pages, maxConcurrentDocxPdf, opts)
	ordinals := imageOrdinals(pages)

	var parts []string
	for _, p := range pages {
		parts = append(parts, assemblePage(p, ocrText, ordinals))
	}
	content := strings.Join(parts, pageBreakSeparator)

	return model.ParseResult{
		Content: content,
		Metadata: model.ParseMetadata{
			PageCount:   n,
			ImageCount:  imageCount,
			TableCount:  countTableFragments(pages),
			OCRCount:    ocrCount,
			ParseTimeMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

func (o *Orchestrator) parseDOCX(ctx context.Context, docPath, tempDir string, start time.Time, opts Options) (model.ParseResult, error) {
	result, err := docx.ExtractDocument(docPath, tempDir)
	if err != nil {
		return model.ParseResult{}, parseerr.NewFatal(err, "orchestrator: docx extraction failed")
	}
	pages := []model.PageResult{result}

	ocrText, imageCount, ocrCount := o.runOCRPhase(ctx, pages, maxConcurrentDocxPdf, opts)
	ordinals := imageOrdinals(pages)

	content := assemblePage(pages[0], ocrText, ordinals)

	return model.ParseResult{
		Content: content,
		Metadata: model.ParseMetadata{
			PageCount:   0, // DOCX reports page_count = 0 (spec §4.7 step 8)
			ImageCount:  imageCount,
			TableCount:  countTableFragments(pages),
			OCRCount:    ocrCount,
			ParseTimeMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

func (o *Orchestrator) parsePPTX(ctx context.Context, docPath, tempDir string, start time.Time, opts Options) (model.ParseResult, error) {
	n, err := pptx.SlideCount(docPath)
	if err != nil {
		return model.ParseResult{}, parseerr.NewFatal(err, "orchestrator: failed to count pptx slides")
	}

	pages := fanOutPages(ctx, o.pagePool, n, func(ctx context.Context, i int) (model.PageResult, error) {
		return pptx.ExtractSlide(docPath, tempDir, i)
	})

	ocrText, imageCount, ocrCount := o.runOCRPhase(ctx, pages, maxConcurrentPptx, opts)
	ordinals := imageOrdinals(pages)

	var parts []string
	for i, p := range pages {
		body := assemblePage(p, ocrText, ordinals)
		parts = append(parts, fmt.Sprintf("## Slide %d%s%s", i+1, fragmentJoinSeparator, body))
	}
	content := narrative.Optimize(strings.Join(parts, fragmentJoinSeparator))

	return model.ParseResult{
		Content: content,
		Metadata: model.ParseMetadata{
			PageCount:   n,
			ImageCount:  imageCount,
			TableCount:  countTableFragments(pages),
			OCRCount:    ocrCount,
			ParseTimeMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

// fanOutPages submits one extraction task per page/slide index to the
// shared page pool and gathers results into an index-ordered slice,
// which satisfies spec §4.7 step 3 ("sort by page_index") by construction
// rather than a separate sort pass. A page that times out or errors is
// recorded as skipped: it contributes an empty PageResult rather than
// failing the whole request (spec §7, ExtractorError/PoolTimeout).
func fanOutPages(ctx context.Context, pool *pagepool.Pool, n int, extract func(ctx context.Context, pageIndex int) (model.PageResult, error)) []model.PageResult {
	results := make([]model.PageResult, n)
	var wg sync.WaitGroup

	for i := range n {
		wg.Add(1)
		go func(pageIndex int) {
			defer wg.Done()

			v, err := pool.Submit(ctx, func(ctx context.Context) (any, error) {
				return extract(ctx, pageIndex)
			})
			if err != nil {
				slog.Warn("orchestrator: page extraction skipped", "page", pageIndex, "error", err)
				results[pageIndex] = model.PageResult{PageIndex: pageIndex}
				return
			}
			pr, ok := v.(model.PageResult)
			if !ok {
				results[pageIndex] = model.PageResult{PageIndex: pageIndex}
				return
			}
			results[pageIndex] = pr
		}(i)
	}

	wg.Wait()
	return results
}

// runOCRPhase collects every ImagePlaceholder ref across pages, runs OCR
// on the survivors under a bounded semaphore, and returns the resulting
// ref -> text map along with the image and successful-OCR counts (spec
// §4.7 steps 4-5, §8 property 3). When opts.EnableOCR is false the image
// count is still reported (images already survived the filter at
// extraction time) but no OCR work is submitted.
func (o *Orchestrator) runOCRPhase(ctx context.Context, pages []model.PageResult, maxConcurrent int, opts Options) (map[string]string, int, int) {
	refs := collectImageRefs(pages)
	if !opts.EnableOCR || len(refs) == 0 {
		return map[string]string{}, len(refs), 0
	}

	text := runOCR(ctx, o.ocrPool, refs, maxConcurrent)
	return text, len(refs), len(text)
}

func collectImageRefs(pages []model.PageResult) []string {
	var refs []string
	for _, p := range pages {
		for _, f := range p.Fragments {
			if f.Kind == model.FragmentImage {
				refs = append(refs, f.ImageRef)
			}
		}
	}
	return refs
}

// imageOrdinals assigns each image ref its 1-based position in document
// order, used to render "[图像 {n} OCR 内容]" placeholders (spec §4.7 step 6).
func imageOrdinals(pages []model.PageResult) map[string]int {
	ordinals := make(map[string]int)
	n := 0
	for _, ref := range collectImageRefs(pages) {
		n++
		ordinals[ref] = n
	}
	return ordinals
}

// runOCR submits every ref's bytes to the OCR pool under a semaphore
// bounding in-flight recognition to maxConcurrent, with a 180s per-image
// deadline. A read failure, pool failure, or empty result simply omits
// that ref from the returned map — no error ever propagates to the
// caller (spec §4.7 step 5, §7 OcrEngineError/ImageDecodeError/PoolTimeout).
func runOCR(ctx context.Context, pool *ocrpool.Pool, refs []string, maxConcurrent int) map[string]string {
	results := make(map[string]string, len(refs))
	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	var wg sync.WaitGroup

	for _, ref := range refs {
		if err := sem.Acquire(ctx, 1); err != nil {
			slog.Warn("orchestrator: ocr fan-out stopped early", "error", err)
			break
		}
		wg.Add(1)
		go func(ref string) {
			defer wg.Done()
			defer sem.Release(1)

			data, err := os.ReadFile(ref) //nolint:gosec // G304: orchestrator-owned temp path
			if err != nil {
				slog.Warn("orchestrator: failed to read image for ocr", "image", ref, "error", err)
				return
			}

			imgCtx, cancel := context.WithTimeout(ctx, perImageTimeout)
			defer cancel()

			text, err := pool.Submit(imgCtx, data)
			if err != nil {
				slog.Warn("orchestrator: ocr submission failed, dropping placeholder", "image", ref, "error", err)
				return
			}
			if strings.TrimSpace(text) == "" {
				return
			}

			mu.Lock()
			results[ref] = text
			mu.Unlock()
		}(ref)
	}

	wg.Wait()
	return results
}

// assemblePage renders one PageResult's fragments, in order-key order,
// into a single string: Text and Table fragments verbatim, ImagePlaceholder
// fragments replaced with their OCR text or dropped entirely if no
// non-empty OCR text exists for that ref (spec §4.7 step 6).
func assemblePage(page model.PageResult, ocrText map[string]string, ordinals map[string]int) string {
	fragments := append([]model.Fragment(nil), page.Fragments...)
	sort.SliceStable(fragments, func(i, j int) bool { return fragments[i].OrderKey < fragments[j].OrderKey })

	var parts []string
	for _, f := range fragments {
		switch f.Kind {
		case model.FragmentText:
			if f.Text != "" {
				parts = append(parts, f.Text)
			}
		case model.FragmentTable:
			if f.Table != "" {
				parts = append(parts, f.Table)
			}
		case model.FragmentImage:
			text, ok := ocrText[f.ImageRef]
			if !ok || strings.TrimSpace(text) == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("[图像 %d OCR 内容]:\n%s", ordinals[f.ImageRef], text))
		}
	}

	return strings.Join(parts, fragmentJoinSeparator)
}

func countTableFragments(pages []model.PageResult) int {
	n := 0
	for _, p := range pages {
		for _, f := range p.Fragments {
			if f.Kind == model.FragmentTable {
				n++
			}
		}
	}
	return n
}
