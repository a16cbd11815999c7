package mdtable

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Basic(t *testing.T) {
	got := Normalize([][]string{{"A", "B"}, {"1", "2"}})
	assert.Equal(t, "| A | B |\n| --- | --- |\n| 1 | 2 |\n", got)
}

func TestNormalize_EmptyHeaderYieldsEmpty(t *testing.T) {
	assert.Equal(t, "", Normalize([][]string{{"", ""}, {"1", "2"}}))
	assert.Equal(t, "", Normalize(nil))
}

func TestNormalize_SkipsMismatchedAndBlankRows(t *testing.T) {
	got := Normalize([][]string{
		{"A", "B"},
		{"1", "2"},
		{"only-one"},
		{"", ""},
		{"3", "4"},
	})
	assert.Equal(t, "| A | B |\n| --- | --- |\n| 1 | 2 |\n| 3 | 4 |\n", got)
}

func TestNormalize_NewlinesBecomeBr(t *testing.T) {
	got := Normalize([][]string{{"A"}, {"line1\nline2"}})
	assert.Equal(t, "| A |\n| --- |\n| line1<br>line2 |\n", got)
}

var headerSepRe = regexp.MustCompile(`^\| (---\|? ?)+\|?$`)

func TestNormalize_ShapeInvariant(t *testing.T) {
	got := Normalize([][]string{{"A", "B", "C"}, {"1", "2", "3"}})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require := len(lines) >= 2
	assert.True(t, require)

	n := strings.Count(lines[0], "|") - 1
	assert.Equal(t, 3, n)
	for _, l := range lines {
		assert.Equal(t, strings.Count(lines[0], "|"), strings.Count(l, "|"))
	}
}
