// Package docx is the DOCX format extractor (spec §4.6, DOCX extractor).
// OOXML documents are a zip archive of XML parts; this package reads them
// with the standard library's archive/zip and encoding/xml exactly the
// way the corpus's office-document extractors do it — there is no
// widely-used third-party OOXML reader in the retrieved examples, and the
// format is simple enough that stdlib is the idiomatic choice here.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
)

const maxPartBytes = 64 * 1024 * 1024 // per decompressed part; above the facade's 50 MiB upload ceiling

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		if f.UncompressedSize64 > maxPartBytes {
			return nil, fmt.Errorf("docx: part %q too large: %d bytes", name, f.UncompressedSize64)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("docx: open part %q: %w", name, err)
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(io.LimitReader(rc, maxPartBytes+1))
	}
	return nil, fmt.Errorf("docx: part %q not found", name)
}

// relationship is one <Relationship> entry from a .rels part.
type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	Rels    []relationship `xml:"Relationship"`
}

// readRelationships parses word/_rels/document.xml.rels into an
// id -> target lookup, used to resolve embedded image blips.
func readRelationships(zr *zip.Reader) (map[string]string, error) {
	data, err := readZipPart(zr, "word/_rels/document.xml.rels")
	if err != nil {
		return map[string]string{}, nil // no relationships part is not fatal
	}

	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("docx: parse relationships: %w", err)
	}

	out := make(map[string]string, len(rels.Rels))
	for _, r := range rels.Rels {
		out[r.ID] = r.Target
	}
	return out, nil
}
