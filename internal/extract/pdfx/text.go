package pdfx

import (
	"fmt"
	"sort"

	"github.com/dslipak/pdf"
)

// textRun is one positioned text object read off a page's content stream.
type textRun struct {
	text         string
	x, y         float64
	w, h         float64
	verticalMid  float64
}

// bbox is an axis-aligned bounding box in PDF page coordinates.
type bbox struct{ x0, y0, x1, y1 float64 }

func (b bbox) contains(yMid float64) bool {
	return yMid >= b.y0 && yMid <= b.y1
}

// readPageTextRuns opens the PDF and reads every positioned text object on
// one page via github.com/dslipak/pdf, which yields text with its font
// size and baseline coordinates — the minimum geometry needed for the
// table/text-exclusion heuristics below. The PDF handle is opened fresh
// per call: page workers must not hold a shared handle across the pool
// boundary (spec §4.5).
func readPageTextRuns(sourcePath string, pageNumOneIndexed int) ([]textRun, error) {
	r, err := pdf.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("pdfx: open for text extraction: %w", err)
	}

	if pageNumOneIndexed < 1 || pageNumOneIndexed > r.NumPage() {
		return nil, fmt.Errorf("pdfx: page %d out of range (%d pages)", pageNumOneIndexed, r.NumPage())
	}

	page := r.Page(pageNumOneIndexed)
	content := page.Content()

	runs := make([]textRun, 0, len(content.Text))
	for _, t := range content.Text {
		runs = append(runs, textRun{
			text:        t.S,
			x:           t.X,
			y:           t.Y,
			w:           t.W,
			h:           t.FontSize,
			verticalMid: t.Y + t.FontSize/2,
		})
	}
	return runs, nil
}

// detectTables applies the try-fallback strategy of spec §4.6: attempt
// line-based clustering (rows split on tight Y gaps, columns split on
// wide X gaps) and, if that yields nothing, retry with a looser
// text-based clustering. Returns each detected table's bounding box and
// its cell grid.
func detectTables(runs []textRun) ([]bbox, [][][]string) {
	boxes, grids := clusterTables(runs, linesGapThresholds)
	if len(boxes) > 0 {
		return boxes, grids
	}
	return clusterTables(runs, textGapThresholds)
}

type gapThresholds struct {
	rowGap float64 // Y gap beyond which runs start a new row
	colGap float64 // X gap beyond which runs start a new column
}

var (
	// linesGapThresholds favors tight, grid-like spacing — the
	// equivalent of the "lines" strategy (explicit rulings) in spec
	// §4.6's source system.
	linesGapThresholds = gapThresholds{rowGap: 3, colGap: 8}
	// textGapThresholds is looser, used only when the lines strategy
	// finds nothing — the "text" fallback strategy.
	textGapThresholds = gapThresholds{rowGap: 6, colGap: 20}
)

// minTableRows/minTableCols are the smallest grid judged worth reporting
// as a table at all; anything smaller is left as running text.
const (
	minTableRows = 2
	minTableCols = 2
)

func clusterTables(runs []textRun, gaps gapThresholds) ([]bbox, [][][]string) {
	if len(runs) == 0 {
		return nil, nil
	}

	rows := groupIntoRows(runs, gaps.rowGap)
	if len(rows) < minTableRows {
		return nil, nil
	}

	grid := make([][]string, 0, len(rows))
	var box bbox
	first := true

	for _, row := range rows {
		cols := groupIntoColumns(row, gaps.colGap)
		if len(cols) < minTableCols {
			continue
		}
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = joinRun(col)
		}
		grid = append(grid, cells)

		for _, r := range row {
			if first {
				box = bbox{x0: r.x, y0: r.y, x1: r.x + r.w, y1: r.y + r.h}
				first = false
			} else {
				box = expand(box, r)
			}
		}
	}

	if len(grid) < minTableRows {
		return nil, nil
	}
	return []bbox{box}, [][][]string{grid}
}

func groupIntoRows(runs []textRun, rowGap float64) [][]textRun {
	sorted := append([]textRun(nil), runs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].y > sorted[j].y })

	var rows [][]textRun
	var current []textRun
	var lastY float64
	for i, r := range sorted {
		if i == 0 {
			current = []textRun{r}
			lastY = r.y
			continue
		}
		if lastY-r.y > rowGap {
			rows = append(rows, current)
			current = nil
		}
		current = append(current, r)
		lastY = r.y
	}
	if len(current) > 0 {
		rows = append(rows, current)
	}
	return rows
}

func groupIntoColumns(row []textRun, colGap float64) [][]textRun {
	sorted := append([]textRun(nil), row...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].x < sorted[j].x })

	var cols [][]textRun
	var current []textRun
	var lastX float64
	for i, r := range sorted {
		if i == 0 {
			current = []textRun{r}
			lastX = r.x + r.w
			continue
		}
		if r.x-lastX > colGap {
			cols = append(cols, current)
			current = nil
		}
		current = append(current, r)
		lastX = r.x + r.w
	}
	if len(current) > 0 {
		cols = append(cols, current)
	}
	return cols
}

func joinRun(runs []textRun) string {
	out := ""
	for _, r := range runs {
		out += r.text
	}
	return out
}

func expand(b bbox, r textRun) bbox {
	if r.x < b.x0 {
		b.x0 = r.x
	}
	if r.y < b.y0 {
		b.y0 = r.y
	}
	if r.x+r.w > b.x1 {
		b.x1 = r.x + r.w
	}
	if r.y+r.h > b.y1 {
		b.y1 = r.y + r.h
	}
	return b
}

// nonTableText joins every run whose vertical center falls outside every
// detected table's bbox, in reading order (top to bottom as emitted by
// the content stream), per spec §4.6's text-exclusion rule.
func nonTableText(runs []textRun, boxes []bbox) string {
	out := ""
	for _, r := range runs {
		excluded := false
		for _, b := range boxes {
			if b.contains(r.verticalMid) {
				excluded = true
				break
			}
		}
		if !excluded {
			out += r.text
		}
	}
	return out
}
