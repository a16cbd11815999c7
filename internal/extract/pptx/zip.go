// Package pptx is the PPTX format extractor (spec §4.6, PPTX extractor).
// Like DOCX, a PPTX file is a zip of OOXML parts; this package reads them
// with archive/zip and encoding/xml for the same reason docx does — no
// third-party OOXML reader appears anywhere in the retrieved corpus.
package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const maxPartBytes = 64 * 1024 * 1024

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		if f.UncompressedSize64 > maxPartBytes {
			return nil, fmt.Errorf("pptx: part %q too large: %d bytes", name, f.UncompressedSize64)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("pptx: open part %q: %w", name, err)
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(io.LimitReader(rc, maxPartBytes+1))
	}
	return nil, fmt.Errorf("pptx: part %q not found", name)
}

func partExists(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

// slideParts returns the ppt/slides/slideN.xml part names in slide order
// (1-based N), read off presentation.xml's sldIdLst and the package
// relationships rather than assumed from file naming.
func slideParts(zr *zip.Reader) ([]string, error) {
	data, err := readZipPart(zr, "ppt/presentation.xml")
	if err != nil {
		return nil, fmt.Errorf("pptx: read presentation.xml: %w", err)
	}

	var pres struct {
		SldIDLst struct {
			SldID []struct {
				RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
			} `xml:"sldId"`
		} `xml:"sldIdLst"`
	}
	if err := xml.Unmarshal(data, &pres); err != nil {
		return nil, fmt.Errorf("pptx: parse presentation.xml: %w", err)
	}

	rels, err := readRelationships(zr, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, sld := range pres.SldIDLst.SldID {
		target, ok := rels[sld.RID]
		if !ok {
			continue
		}
		parts = append(parts, "ppt/"+strings.TrimPrefix(target, "/ppt/"))
	}

	if len(parts) == 0 {
		parts = fallbackSlideOrder(zr)
	}
	return parts, nil
}

// fallbackSlideOrder handles malformed packages with no readable sldIdLst
// by falling back to lexical/numeric sort of ppt/slides/slideN.xml entries.
func fallbackSlideOrder(zr *zip.Reader) []string {
	var parts []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") &&
			!strings.Contains(f.Name, "_rels") {
			parts = append(parts, f.Name)
		}
	}
	sort.Slice(parts, func(i, j int) bool {
		return slideNumber(parts[i]) < slideNumber(parts[j])
	})
	return parts
}

func slideNumber(partName string) int {
	base := strings.TrimPrefix(partName, "ppt/slides/slide")
	base = strings.TrimSuffix(base, ".xml")
	n, _ := strconv.Atoi(base)
	return n
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	Rels    []relationship `xml:"Relationship"`
}

func readRelationships(zr *zip.Reader, partName string) (map[string]string, error) {
	data, err := readZipPart(zr, partName)
	if err != nil {
		return map[string]string{}, nil
	}

	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("pptx: parse relationships %q: %w", partName, err)
	}

	out := make(map[string]string, len(rels.Rels))
	for _, r := range rels.Rels {
		out[r.ID] = r.Target
	}
	return out, nil
}

// slideRelsPart derives ppt/slides/_rels/slideN.xml.rels from a slide part name.
func slideRelsPart(slidePart string) string {
	dir := "ppt/slides/_rels/"
	base := strings.TrimPrefix(slidePart, "ppt/slides/")
	return dir + base + ".rels"
}

// notesPartFor returns the notesSlideN.xml part target for a slide, if any.
func notesPartFor(zr *zip.Reader, slidePart string) (string, bool) {
	rels, err := readRelationships(zr, slideRelsPart(slidePart))
	if err != nil {
		return "", false
	}
	for _, target := range rels {
		if strings.Contains(target, "notesSlide") {
			name := "ppt/" + strings.TrimPrefix(target, "../")
			name = strings.TrimPrefix(name, "ppt/ppt/")
			if !strings.HasPrefix(name, "ppt/") {
				name = "ppt/" + name
			}
			if partExists(zr, name) {
				return name, true
			}
		}
	}
	return "", false
}
