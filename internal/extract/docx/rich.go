package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docuforge/parsesvc/internal/imagefilter"
	"github.com/docuforge/parsesvc/internal/mdtable"
	"github.com/docuforge/parsesvc/internal/model"
)

const (
	wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	drawNS = "http://schemas.openxmlformats.org/drawingml/2006/main"
	relNS  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// extractRich walks the body of word/document.xml in document order,
// producing Text and Table fragments, and interleaving ImagePlaceholder
// fragments at the point in the paragraph flow where their drawing
// appears (spec §4.6: "interleaved with the paragraph order").
func extractRich(zr *zip.Reader, tempDir string) (model.PageResult, error) {
	body, err := readZipPart(zr, "word/document.xml")
	if err != nil {
		return model.PageResult{}, fmt.Errorf("docx: read document.xml: %w", err)
	}

	rels, err := readRelationships(zr)
	if err != nil {
		return model.PageResult{}, err
	}

	result := model.PageResult{PageIndex: 0}
	order := 0
	imgOrdinal := 0

	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "p":
			text, blipRIDs := readParagraph(dec)
			if strings.TrimSpace(text) != "" {
				result.Fragments = append(result.Fragments, model.TextFragment(order, text))
				order++
			}
			for _, rid := range blipRIDs {
				ref, ok := resolveImage(zr, rels, rid, tempDir, &imgOrdinal)
				if !ok {
					continue
				}
				result.AddImage(order, ref)
				order++
			}
		case "tbl":
			rows := readTable(dec)
			md := mdtable.Normalize(rows)
			if md != "" {
				result.Fragments = append(result.Fragments, model.TableFragment(order, md))
				order++
			}
		}
	}

	return result, nil
}

// readParagraph consumes a <w:p>...</w:p> subtree, returning its run text
// (concatenated with no separator) and the r:embed/r:link relationship IDs
// of any blips it contains.
func readParagraph(dec *xml.Decoder) (string, []string) {
	var texts []string
	var rids []string
	depth := 1

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "t" {
				texts = append(texts, readCharData(dec))
				depth--
			}
			if t.Name.Local == "blip" {
				if rid := attr(t, relNS, "embed"); rid != "" {
					rids = append(rids, rid)
				} else if rid := attr(t, relNS, "link"); rid != "" {
					rids = append(rids, rid)
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	return strings.Join(texts, ""), rids
}

// readCharData consumes the rest of the element whose start tag was just
// read, through its matching end tag, and returns the character data it
// contained.
func readCharData(dec *xml.Decoder) string {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return sb.String()
}

func attr(se xml.StartElement, space, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local && (a.Name.Space == space || a.Name.Space == "") {
			return a.Value
		}
	}
	return ""
}

// readTable consumes a <w:tbl>...</w:tbl> subtree into a 2-D cell grid.
func readTable(dec *xml.Decoder) [][]string {
	var rows [][]string
	var curRow []string
	var curCellText []string
	inCell := false
	depth := 1

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "tc":
				inCell = true
				curCellText = nil
			case "t":
				if inCell {
					curCellText = append(curCellText, readCharData(dec))
					depth--
				}
			}
		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "tc":
				curRow = append(curRow, strings.Join(curCellText, ""))
				inCell = false
			case "tr":
				rows = append(rows, curRow)
				curRow = nil
			}
		}
	}
	return rows
}

// resolveImage pulls the media bytes for a relationship id, applies the
// size floor and background filter, and — if the image survives — writes
// it to tempDir and returns its ImageRef.
func resolveImage(zr *zip.Reader, rels map[string]string, rid, tempDir string, ordinal *int) (string, bool) {
	target, ok := rels[rid]
	if !ok {
		return "", false
	}
	partName := "word/" + strings.TrimPrefix(target, "/word/")
	if strings.HasPrefix(target, "/") {
		partName = strings.TrimPrefix(target, "/")
	}

	data, err := readZipPart(zr, partName)
	if err != nil {
		slog.Debug("docx: could not read image part", "target", partName, "error", err)
		return "", false
	}

	if imagefilter.IsIconLike(data) {
		return "", false
	}
	// DOCX shapes don't carry pixel dimensions at this layer, so the
	// background filter reads them from the image header; an image whose
	// header cannot be decoded is kept.
	if imagefilter.IsBackground(data, 0, 0) {
		return "", false
	}

	ext := filepath.Ext(partName)
	if ext == "" {
		ext = ".bin"
	}
	dest := filepath.Join(tempDir, fmt.Sprintf("docx_image_%d%s", *ordinal, ext))
	*ordinal++

	if err := os.WriteFile(dest, data, 0o644); err != nil { //nolint:gosec // G306: request-scoped artifact
		slog.Warn("docx: failed to persist image", "error", err)
		return "", false
	}
	return dest, true
}
