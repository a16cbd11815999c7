package docx

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"

	"github.com/docuforge/parsesvc/internal/model"
)

// extractLegacyDoc handles the pre-OOXML ".doc" binary format: an OLE2
// compound file (CFBF), not a zip of XML parts. This repo does not
// implement the Word 97-2003 "WordDocument" stream's text layout (piece
// tables, character runs); it surfaces whatever plain-text streams mscfb
// exposes via a best-effort scan, which is the same "simple path"
// posture spec §4.6 describes for the OOXML fallback — paragraph text
// only, no images, no tables.
func extractLegacyDoc(data []byte) (model.PageResult, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return model.PageResult{}, fmt.Errorf("docx: open legacy .doc container: %w", err)
	}

	result := model.PageResult{PageIndex: 0}
	order := 0

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "WordDocument" {
			continue
		}
		buf := make([]byte, entry.Size)
		if _, err := entry.Read(buf); err != nil {
			continue
		}
		text := printableRuns(buf)
		if strings.TrimSpace(text) != "" {
			result.Fragments = append(result.Fragments, model.TextFragment(order, text))
			order++
		}
	}

	// SummaryInformation (author/title/etc.) is surfaced only as a log
	// field via msoleps; it never becomes a content fragment.
	if props, err := msoleps.New(bytes.NewReader(data)); err == nil {
		logLegacyProperties(props)
	}

	return result, nil
}

// logLegacyProperties surfaces SummaryInformation as structured log
// fields only; it never becomes content, matching the "simple path"
// posture of the OOXML fallback (no metadata frontmatter in this repo).
func logLegacyProperties(props *msoleps.Reader) {
	fields := make([]any, 0, 4)
	for _, p := range props.Property {
		if p.Name == "" {
			continue
		}
		fields = append(fields, p.Name, p.String())
		if len(fields) >= 8 {
			break
		}
	}
	if len(fields) > 0 {
		slog.Debug("docx: legacy .doc summary properties", fields...)
	}
}

// printableRuns extracts runs of printable UTF-16LE-ish text from the raw
// WordDocument stream. Word's binary layout interleaves formatting
// properties with text; this is a lossy best-effort scan, not a real
// piece-table parser, consistent with spec §1 treating low-level format
// readers as an external collaborator.
func printableRuns(buf []byte) string {
	var out strings.Builder
	var run []rune
	flush := func() {
		if len(run) > 3 {
			out.WriteString(string(run))
			out.WriteByte(' ')
		}
		run = nil
	}
	for i := 0; i+1 < len(buf); i += 2 {
		r := rune(buf[i]) | rune(buf[i+1])<<8
		if r >= 0x20 && r < 0x7F {
			run = append(run, r)
		} else {
			flush()
		}
	}
	flush()
	return strings.TrimSpace(out.String())
}
