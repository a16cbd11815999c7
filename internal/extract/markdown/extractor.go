// Package markdown implements the Markdown extractor of spec §4.6: a
// one-shot character-encoding decode ladder with no structural processing.
// Markdown is passed through to the narrative/assembly stage as-is; this
// package's only job is turning an arbitrary byte slice into a Go string
// without mangling non-UTF-8 sources.
package markdown

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Decode tries, in order, UTF-8 (if the bytes are already valid), then
// GB18030, then GBK, then Latin-1 (ISO-8859-1), which can decode any byte
// sequence and therefore always succeeds. This mirrors the corpus's own
// practice of trying a cheap validity check before reaching for a charset
// transcoder.
func Decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	if text, err := simplifiedchinese.GB18030.NewDecoder().Bytes(raw); err == nil {
		return string(text)
	}
	if text, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw); err == nil {
		return string(text)
	}

	// charmap.ISO8859_1 maps every byte value to a rune, so this never errors.
	text, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	return string(text)
}
