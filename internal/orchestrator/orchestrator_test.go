package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuforge/parsesvc/internal/model"
	"github.com/docuforge/parsesvc/internal/pagepool"
)

func TestAssemblePage_OrdersByOrderKeyAndDropsEmptyImagePlaceholders(t *testing.T) {
	page := model.PageResult{
		PageIndex: 0,
		Fragments: []model.Fragment{
			model.TextFragment(2, "second"),
			model.TextFragment(0, "first"),
			model.ImageFragment(1, "/tmp/img1.png"),
		},
	}
	ordinals := map[string]int{"/tmp/img1.png": 1}

	withOCR := assemblePage(page, map[string]string{"/tmp/img1.png": "OCR text"}, ordinals)
	assert.Equal(t, "first\n\n[图像 1 OCR 内容]:\nOCR text\n\nsecond", withOCR)

	withoutOCR := assemblePage(page, map[string]string{}, ordinals)
	assert.Equal(t, "first\n\nsecond", withoutOCR)
}

func TestParsePPTX_SlidePrefixAndTitleHeadingMatchExpectedContent(t *testing.T) {
	// Reproduces the PPTX slide-prefix/title-heading composition done in
	// parsePPTX without needing a real pool-backed orchestrator run.
	page := model.PageResult{
		PageIndex: 0,
		Fragments: []model.Fragment{model.TextFragment(0, "### Cover")},
	}
	body := assemblePage(page, map[string]string{}, map[string]int{})
	slide := fmt.Sprintf("## Slide %d%s%s", 1, fragmentJoinSeparator, body)

	assert.Contains(t, slide, "## Slide 1\n\n### Cover")
}

func TestCollectImageRefsAndOrdinals_PreserveDocumentOrder(t *testing.T) {
	pages := []model.PageResult{
		{PageIndex: 0, Fragments: []model.Fragment{model.ImageFragment(0, "a.png")}},
		{PageIndex: 1, Fragments: []model.Fragment{model.ImageFragment(0, "b.png"), model.ImageFragment(1, "c.png")}},
	}

	refs := collectImageRefs(pages)
	require.Equal(t, []string{"a.png", "b.png", "c.png"}, refs)

	ordinals := imageOrdinals(pages)
	assert.Equal(t, 1, ordinals["a.png"])
	assert.Equal(t, 2, ordinals["b.png"])
	assert.Equal(t, 3, ordinals["c.png"])
}

func TestCountTableFragments_CountsAcrossAllPages(t *testing.T) {
	pages := []model.PageResult{
		{Fragments: []model.Fragment{model.TableFragment(0, "| a |\n| --- |")}},
		{Fragments: []model.Fragment{model.TextFragment(0, "x"), model.TableFragment(1, "| b |\n| --- |")}},
	}
	assert.Equal(t, 2, countTableFragments(pages))
}

func TestFanOutPages_GathersResultsIndexedByPage(t *testing.T) {
	pagepool.ResetForTest()
	pool := pagepool.Get(pagepool.Config{MaxWorkers: 2})
	defer pagepool.ResetForTest()

	results := fanOutPages(context.Background(), pool, 3, func(_ context.Context, i int) (model.PageResult, error) {
		return model.PageResult{PageIndex: i, Fragments: []model.Fragment{model.TextFragment(0, "page")}}, nil
	})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.PageIndex)
	}
}

func TestFanOutPages_FailedPageBecomesEmptyPageResult(t *testing.T) {
	pagepool.ResetForTest()
	pool := pagepool.Get(pagepool.Config{MaxWorkers: 1})
	defer pagepool.ResetForTest()

	results := fanOutPages(context.Background(), pool, 2, func(_ context.Context, i int) (model.PageResult, error) {
		if i == 1 {
			return model.PageResult{}, assert.AnError
		}
		return model.PageResult{PageIndex: i}, nil
	})

	require.Len(t, results, 2)
	assert.Empty(t, results[1].Fragments)
	assert.Equal(t, 1, results[1].PageIndex)
}
