package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/docuforge/parsesvc/internal/model"
)

// extractSimple is the fallback path of spec §4.6: paragraph text only,
// rows joined naively as "cell | cell", no images, no relationship
// resolution — used when extractRich fails for any reason. It shares no
// state with extractRich by design (spec §9: "do not share state between
// the two").
func extractSimple(zr *zip.Reader) (model.PageResult, error) {
	body, err := readZipPart(zr, "word/document.xml")
	if err != nil {
		return model.PageResult{}, err
	}

	result := model.PageResult{PageIndex: 0}
	order := 0

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
			text := simpleParagraphText(dec)
			if strings.TrimSpace(text) != "" {
				result.Fragments = append(result.Fragments, model.TextFragment(order, text))
				order++
			}
		case "tbl":
			table := simpleTableText(dec)
			if table != "" {
				result.Fragments = append(result.Fragments, model.TextFragment(order, table))
				order++
			}
		}
	}

	return result, nil
}

func simpleParagraphText(dec *xml.Decoder) string {
	var texts []string
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
		case xml.EndElement:
			depth--
		}
	}
	return strings.Join(texts, "")
}

func simpleTableText(dec *xml.Decoder) string {
	var rowLines []string
	var curRow []string
	var curCell []string
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
				curCell = nil
			case "t":
				if inCell {
					curCell = append(curCell, readCharData(dec))
					depth--
				}
			}
		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "tc":
				curRow = append(curRow, strings.Join(curCell, ""))
				inCell = false
			case "tr":
				rowLines = append(rowLines, strings.Join(curRow, " | "))
				curRow = nil
			}
		}
	}
	return strings.Join(rowLines, "\n")
}
