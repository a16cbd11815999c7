package pptx

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const presentationXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
	xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
	<p:sldIdLst>
		<p:sldId id="256" r:id="rId2"/>
	</p:sldIdLst>
</p:presentation>`

const presentationRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
	<Relationship Id="rId2" Type="slide" Target="slides/slide1.xml"/>
</Relationships>`

const slide1XML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
	xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
	<p:cSld>
		<p:spTree>
			<p:sp>
				<p:nvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
				<p:txBody><a:p><a:r><a:t>Cover</a:t></a:r></a:p></p:txBody>
			</p:sp>
			<p:sp>
				<p:nvSpPr><p:nvPr/></p:nvSpPr>
				<p:txBody><a:p><a:r><a:t>Body text</a:t></a:r></a:p></p:txBody>
			</p:sp>
		</p:spTree>
	</p:cSld>
</p:sld>`

const slide1Rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
	<Relationship Id="rId1" Type="notesSlide" Target="../notesSlides/notesSlide1.xml"/>
</Relationships>`

const notesSlide1XML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
	xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
	<p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>remember to mention pricing</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld>
</p:notes>`

func writeTestPPTX(t *testing.T) string {
	t.Helper()

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	parts := map[string]string{
		"ppt/presentation.xml":                     presentationXML,
		"ppt/_rels/presentation.xml.rels":          presentationRels,
		"ppt/slides/slide1.xml":                    slide1XML,
		"ppt/slides/_rels/slide1.xml.rels":         slide1Rels,
		"ppt/notesSlides/notesSlide1.xml":          notesSlide1XML,
	}
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "deck.pptx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestSlideCount_ReadsSldIdLst(t *testing.T) {
	path := writeTestPPTX(t)
	n, err := SlideCount(path)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestExtractSlide_TitleGetsOrderKeyZeroAndNotesSortLast(t *testing.T) {
	path := writeTestPPTX(t)
	tempDir := t.TempDir()

	result, err := ExtractSlide(path, tempDir, 0)
	require.NoError(t, err)
	require.Len(t, result.Fragments, 3)

	require.Equal(t, 0, result.Fragments[0].OrderKey)
	require.Equal(t, "### Cover", result.Fragments[0].Text)

	require.Equal(t, "Body text", result.Fragments[1].Text)

	last := result.Fragments[len(result.Fragments)-1]
	require.Contains(t, last.Text, "pricing")
	require.Greater(t, last.OrderKey, result.Fragments[1].OrderKey)
}

func TestExtractSlide_OutOfRangeIndexErrors(t *testing.T) {
	path := writeTestPPTX(t)
	_, err := ExtractSlide(path, t.TempDir(), 5)
	require.Error(t, err)
}
