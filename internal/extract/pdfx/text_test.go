package pdfx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(text string, x, y, w, h float64) textRun {
	return textRun{text: text, x: x, y: y, w: w, h: h, verticalMid: y + h/2}
}

func TestDetectTables_GridOfRunsDetectedByLinesStrategy(t *testing.T) {
	runs := []textRun{
		run("A", 0, 100, 10, 10),
		run("B", 50, 100, 10, 10),
		run("1", 0, 80, 10, 10),
		run("2", 50, 80, 10, 10),
	}

	boxes, grids := detectTables(runs)
	require.Len(t, grids, 1)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, grids[0])
	require.Len(t, boxes, 1)
}

func TestDetectTables_NoGridReturnsNothing(t *testing.T) {
	runs := []textRun{run("just some prose", 0, 100, 80, 10)}
	boxes, grids := detectTables(runs)
	assert.Empty(t, boxes)
	assert.Empty(t, grids)
}

func TestNonTableText_ExcludesRunsInsideBbox(t *testing.T) {
	runs := []textRun{
		run("Hello.", 0, 200, 40, 10),
		run("A", 0, 100, 10, 10),
		run("B", 50, 100, 10, 10),
	}
	boxes := []bbox{{x0: -1000, y0: 90, x1: 1000, y1: 110}}

	text := nonTableText(runs, boxes)
	assert.Equal(t, "Hello.", text)
}

func TestGroupIntoRows_SplitsOnLargeYGap(t *testing.T) {
	runs := []textRun{
		run("r1c1", 0, 100, 10, 10),
		run("r2c1", 0, 50, 10, 10),
	}
	rows := groupIntoRows(runs, 3)
	assert.Len(t, rows, 2)
}
