package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimize_SlideSeparatorNormalization(t *testing.T) {
	cases := map[string]string{
		"@@@Slide_3@@@":     "## Slide 3",
		"===Slide 4===":     "## Slide 4",
		"---Slide 5---":     "## Slide 5",
		"[Slide 6]":         "## Slide 6",
		"(Slide 7)":         "## Slide 7",
	}
	for in, want := range cases {
		assert.Equal(t, want, Optimize(in))
	}
}

func TestOptimize_ImagePlaceholderNormalization(t *testing.T) {
	assert.Equal(t, "[图片 2 内容]：", Optimize("[图像 2 OCR 内容]:"))
	assert.Equal(t, "[图片 1 内容]：", Optimize("Image 1 Text:"))
	assert.Equal(t, "[图片 3]：", Optimize("[Image 3]"))
}

func TestOptimize_FormulaPrefix(t *testing.T) {
	out := Optimize("  x = y + 1")
	assert.Equal(t, "  公式：x = y + 1", out)
}

func TestOptimize_FormulaPrefixSkippedForHeaders(t *testing.T) {
	out := Optimize("# x = y")
	assert.Equal(t, "# x = y", out)
}

func TestOptimize_SoftPunctuationCJK(t *testing.T) {
	out := Optimize("这是一段很长的中文叙述文本")
	assert.True(t, len(out) > 0)
	assert.Contains(t, out, "。")
}

func TestOptimize_SoftPunctuationSkipsTableRows(t *testing.T) {
	out := Optimize("| a | b |")
	assert.Equal(t, "| a | b |", out)
}

func TestOptimize_KeywordSeparatorsCJK(t *testing.T) {
	out := Optimize("苹果/香蕉/橙子")
	assert.Contains(t, out, "、")
	assert.Contains(t, out, "等内容")
}

func TestOptimize_IsIdempotent(t *testing.T) {
	inputs := []string{
		"@@@Slide_1@@@",
		"[图像 2 OCR 内容]:",
		"x = alpha + beta",
		"苹果/香蕉/橙子 are fruit / vegetable / grain",
		"这是一段很长的中文叙述文本",
		"plain ascii sentence without punctuation that is long enough",
		"| table | row |",
		"",
	}
	for _, in := range inputs {
		once := Optimize(in)
		twice := Optimize(once)
		assert.Equal(t, once, twice, "not idempotent for input %q", in)
	}
}
