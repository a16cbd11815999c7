package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/docuforge/parsesvc/internal/imagefilter"
	"github.com/docuforge/parsesvc/internal/mdtable"
	"github.com/docuforge/parsesvc/internal/model"
)

const (
	relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	// emuPerPixel converts English Metric Units to pixels at 96 dpi
	// (914400 EMU per inch / 96 px per inch).
	emuPerPixel = 9525
	minImageBytes = 5 * 1024
)

var imageExtWhitelist = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".bmp": true, ".gif": true, ".tiff": true, ".tif": true,
}

// ExtractSlide implements the PPTX extractor of spec §4.6 for a single
// slide. slideIndex is 0-based; the spec's "native order" of slides is
// resolved once by slideParts and indexed here.
func ExtractSlide(sourcePath, tempDir string, slideIndex int) (model.PageResult, error) {
	zr, err := zip.OpenReader(sourcePath)
	if err != nil {
		return model.PageResult{}, fmt.Errorf("pptx: open zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	parts, err := slideParts(&zr.Reader)
	if err != nil {
		return model.PageResult{}, err
	}
	if slideIndex < 0 || slideIndex >= len(parts) {
		return model.PageResult{}, fmt.Errorf("pptx: slide index %d out of range (%d slides)", slideIndex, len(parts))
	}
	slidePart := parts[slideIndex]

	body, err := readZipPart(&zr.Reader, slidePart)
	if err != nil {
		return model.PageResult{}, fmt.Errorf("pptx: read %q: %w", slidePart, err)
	}
	rels, err := readRelationships(&zr.Reader, slideRelsPart(slidePart))
	if err != nil {
		return model.PageResult{}, err
	}

	result := model.PageResult{PageIndex: slideIndex}
	order := 1 // order key 0 is reserved for the title
	titleEmitted := false
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
		case "sp":
			shape := readShape(dec)
			if shape.text == "" {
				continue
			}
			if !titleEmitted && shape.isTitle {
				result.Fragments = append(result.Fragments, model.TextFragment(0, "### "+shape.text))
				titleEmitted = true
				continue
			}
			result.Fragments = append(result.Fragments, model.TextFragment(order, shape.text))
			order++
		case "graphicFrame":
			rows, cx, cy := readGraphicFrame(dec)
			_ = cx
			_ = cy
			if len(rows) > 0 {
				md := mdtable.Normalize(rows)
				if md != "" {
					result.Fragments = append(result.Fragments, model.TableFragment(order, md))
					order++
				}
			}
		case "pic":
			ref, ok := readPicture(dec, &zr.Reader, rels, slidePart, tempDir, &imgOrdinal)
			if ok {
				result.AddImage(order, ref)
				order++
			}
		}
	}

	if notesPart, ok := notesPartFor(&zr.Reader, slidePart); ok {
		notes, err := readNotesText(&zr.Reader, notesPart)
		if err != nil {
			slog.Debug("pptx: could not read speaker notes", "slide", slideIndex, "error", err)
		} else if strings.TrimSpace(notes) != "" {
			result.Fragments = append(result.Fragments, model.TextFragment(largeOrderKey, notes))
		}
	}

	return result, nil
}

// largeOrderKey sorts speaker notes after every other fragment on the slide.
const largeOrderKey = 1 << 20

type shapeInfo struct {
	text    string
	isTitle bool
}

// readShape consumes an <p:sp>...</p:sp> subtree, concatenating its text
// runs and noting whether its placeholder type is "title"/"ctrTitle".
func readShape(dec *xml.Decoder) shapeInfo {
	var texts []string
	isTitle := false
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
			case "t":
				texts = append(texts, readCharData(dec))
				depth--
			case "ph":
				if typ := attrLocal(t, "type"); typ == "title" || typ == "ctrTitle" {
					isTitle = true
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	return shapeInfo{text: strings.Join(texts, "\n"), isTitle: isTitle}
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

func attrLocal(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// readGraphicFrame consumes a <p:graphicFrame>...</p:graphicFrame> subtree,
// returning the table's cell grid (if it contains a table) and the frame's
// extent in EMUs.
func readGraphicFrame(dec *xml.Decoder) (rows [][]string, cx, cy int) {
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
			case "ext":
				if v := attrLocal(t, "cx"); v != "" {
					cx, _ = strconv.Atoi(v)
				}
				if v := attrLocal(t, "cy"); v != "" {
					cy, _ = strconv.Atoi(v)
				}
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
	return rows, cx, cy
}

// readPicture consumes a <p:pic>...</p:pic> subtree and, if the embedded
// image survives the size floor, extension whitelist, and background
// filter, persists it under tempDir and returns its path.
func readPicture(dec *xml.Decoder, zr *zip.Reader, rels map[string]string, slidePart, tempDir string, ordinal *int) (string, bool) {
	var rid string
	var cx, cy int
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
			case "blip":
				if v := attr(t, relNS, "embed"); v != "" {
					rid = v
				}
			case "ext":
				if v := attrLocal(t, "cx"); v != "" {
					cx, _ = strconv.Atoi(v)
				}
				if v := attrLocal(t, "cy"); v != "" {
					cy, _ = strconv.Atoi(v)
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	if rid == "" {
		return "", false
	}
	target, ok := rels[rid]
	if !ok {
		return "", false
	}

	slideDir := filepath.Dir(slidePart)
	partName := filepath.ToSlash(filepath.Join(slideDir, target))
	if strings.HasPrefix(target, "/") {
		partName = strings.TrimPrefix(target, "/")
	}

	ext := strings.ToLower(filepath.Ext(partName))
	if !imageExtWhitelist[ext] {
		slog.Debug("pptx: skipping picture with unsupported format", "ext", ext)
		return "", false
	}

	data, err := readZipPart(zr, partName)
	if err != nil {
		slog.Debug("pptx: could not read picture part", "target", partName, "error", err)
		return "", false
	}
	if len(data) < minImageBytes {
		return "", false
	}

	widthPx := cx / emuPerPixel
	heightPx := cy / emuPerPixel
	if imagefilter.IsBackground(data, widthPx, heightPx) {
		return "", false
	}

	slideName := strings.TrimSuffix(filepath.Base(slidePart), ".xml")
	dest := filepath.Join(tempDir, fmt.Sprintf("%s_image_%d%s", slideName, *ordinal, ext))
	*ordinal++
	if err := os.WriteFile(dest, data, 0o644); err != nil { //nolint:gosec // G306: request-scoped artifact
		slog.Warn("pptx: failed to persist image", "error", err)
		return "", false
	}
	return dest, true
}

func attr(se xml.StartElement, space, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local && (a.Name.Space == space || a.Name.Space == "") {
			return a.Value
		}
	}
	return ""
}

// readNotesText extracts the plain text runs from a notesSlideN.xml part,
// skipping the slide-number/date placeholder text boxes by taking only
// the body placeholder's runs is not attempted here; speaker notes are
// flattened to their run text in document order, matching the "simple"
// posture the other extractors take toward auxiliary text.
func readNotesText(zr *zip.Reader, notesPart string) (string, error) {
	body, err := readZipPart(zr, notesPart)
	if err != nil {
		return "", err
	}
	var texts []string
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "t" {
			texts = append(texts, readCharData(dec))
		}
	}
	return strings.Join(texts, " "), nil
}

// SlideCount opens the presentation and returns the number of slides,
// used by the orchestrator to size its page-pool fan-out (spec §4.7 step 2).
func SlideCount(sourcePath string) (int, error) {
	zr, err := zip.OpenReader(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("pptx: open zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	parts, err := slideParts(&zr.Reader)
	if err != nil {
		return 0, err
	}
	return len(parts), nil
}
