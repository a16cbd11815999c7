// Package mdtable converts a 2-D array of extracted cell strings into a
// strict GitHub-Flavored-Markdown table, the normal form every extractor
// emits Table fragments in.
package mdtable

import "strings"

// Normalize turns rows of cells into a Markdown table, or "" if the table
// is judged meaningless (empty header, or a header of all-blank cells).
//
// Rules (§4.2):
//  1. trim every cell; replace embedded newlines with "<br>".
//  2. the first row is the header; an empty or all-blank header yields "".
//  3. emit the header row then a `| --- | ... |` separator of the same width.
//  4. each subsequent row is skipped if empty, of the wrong width, or
//     entirely blank; otherwise it is emitted verbatim.
func Normalize(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	header := cleanRow(rows[0])
	if len(header) == 0 || allBlank(header) {
		return ""
	}

	n := len(header)

	var b strings.Builder
	writeRow(&b, header)
	writeSeparator(&b, n)

	for _, raw := range rows[1:] {
		row := cleanRow(raw)
		if len(row) == 0 || len(row) != n || allBlank(row) {
			continue
		}
		writeRow(&b, row)
	}

	return b.String()
}

func cleanRow(row []string) []string {
	cleaned := make([]string, len(row))
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		cell = strings.ReplaceAll(cell, "\r\n", "\n")
		cleaned[i] = strings.ReplaceAll(cell, "\n", "<br>")
	}
	return cleaned
}

func allBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

func writeSeparator(b *strings.Builder, n int) {
	cells := make([]string, n)
	for i := range cells {
		cells[i] = "---"
	}
	writeRow(b, cells)
}
