// Package model defines the document-wide data types shared by every
// extractor and by the orchestrator: fragments, page results, image
// references, OCR outcomes, and the final parse result.
package model

// FragmentKind discriminates the three fragment variants an extractor
// can emit for a page.
type FragmentKind int

const (
	// FragmentText is a plain text run.
	FragmentText FragmentKind = iota
	// FragmentTable is a pre-rendered Markdown table.
	FragmentTable
	// FragmentImage is a placeholder later resolved to OCR text.
	FragmentImage
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentText:
		return "text"
	case FragmentTable:
		return "table"
	case FragmentImage:
		return "image"
	default:
		return "unknown"
	}
}

// Fragment is one ordered piece of a page's output. Text and Table hold
// the payload for their respective kinds; ImageRef holds the payload for
// FragmentImage. OrderKey is assigned by the extractor and is
// monotonically non-decreasing within a single page; order keys are not
// comparable across pages.
type Fragment struct {
	Kind     FragmentKind `json:"kind"`
	Text     string       `json:"text,omitempty"`
	Table    string       `json:"table,omitempty"`
	ImageRef string       `json:"image_ref,omitempty"`
	OrderKey int          `json:"order_key"`
}

// TextFragment builds a Fragment carrying plain text.
func TextFragment(orderKey int, text string) Fragment {
	return Fragment{Kind: FragmentText, Text: text, OrderKey: orderKey}
}

// TableFragment builds a Fragment carrying a Markdown table.
func TableFragment(orderKey int, table string) Fragment {
	return Fragment{Kind: FragmentTable, Table: table, OrderKey: orderKey}
}

// ImageFragment builds a Fragment carrying an unresolved image placeholder.
func ImageFragment(orderKey int, imageRef string) Fragment {
	return Fragment{Kind: FragmentImage, ImageRef: imageRef, OrderKey: orderKey}
}

// PageResult is everything one page-level worker produced for one page.
// Every ImageRef fragment in Fragments must also appear in ImageRefs and
// vice versa; PageWorkers are responsible for maintaining that invariant.
type PageResult struct {
	PageIndex int        `json:"page_index"`
	Fragments []Fragment `json:"fragments"`
	ImageRefs []string   `json:"image_refs"`
}

// AddImage appends an image placeholder fragment and registers its ref,
// keeping the PageResult invariant (every image fragment has a matching
// entry in ImageRefs) intact by construction.
func (pr *PageResult) AddImage(orderKey int, imageRef string) {
	pr.Fragments = append(pr.Fragments, ImageFragment(orderKey, imageRef))
	pr.ImageRefs = append(pr.ImageRefs, imageRef)
}

// OcrOutcome is the result of running OCR on one image. An outcome whose
// Text is empty after trimming is never inserted into an outcome map by
// convention — see the orchestrator's runOCR.
type OcrOutcome struct {
	ImageRef string `json:"image_ref"`
	Text     string `json:"text"`
	OK       bool   `json:"ok"`
}

// ParseMetadata carries the counters every extractor populates uniformly.
type ParseMetadata struct {
	PageCount    int   `json:"page_count"`
	ImageCount   int   `json:"image_count"`
	TableCount   int   `json:"table_count"`
	OCRCount     int   `json:"ocr_count"`
	CaptionCount int   `json:"caption_count"` // reserved, always 0
	ParseTimeMs  int64 `json:"parse_time_ms"`
}

// ParseResult is the final, user-visible artifact.
type ParseResult struct {
	Content  string        `json:"content"`
	Metadata ParseMetadata `json:"metadata"`
}
