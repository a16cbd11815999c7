package ocrengine

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// charset is a recognition dictionary loaded from a text file, one token
// per line, index-addressable in both directions.
type charset struct {
	tokens       []string
	indexToToken map[int]string
	tokenToIndex map[string]int
}

// loadCharset reads a dictionary file where each non-empty line is one
// recognizable token (usually a single rune, occasionally a multi-rune
// ligature). Token index 0 is reserved for the CTC blank by convention, so
// line N of the file maps to class index N+1.
func loadCharset(path string) (*charset, error) {
	if path == "" {
		return nil, fmt.Errorf("ocrengine: dictionary path is required")
	}
	f, err := os.Open(path) //nolint:gosec // G304: operator-provided model asset path
	if err != nil {
		return nil, fmt.Errorf("ocrengine: failed to open dictionary: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	tokens := make([]string, 0, 512)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "﻿")
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ocrengine: failed reading dictionary: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("ocrengine: dictionary %s is empty", path)
	}

	idxTo := make(map[int]string, len(tokens))
	toIdx := make(map[string]int, len(tokens))
	for i, t := range tokens {
		if _, ok := toIdx[t]; !ok {
			toIdx[t] = i
		}
		idxTo[i] = t
	}
	return &charset{tokens: tokens, indexToToken: idxTo, tokenToIndex: toIdx}, nil
}

func (c *charset) size() int { return len(c.tokens) }

// token returns the dictionary entry at tokenIndex (0-based, i.e. already
// shifted past the reserved CTC blank class), or "" if out of range.
func (c *charset) token(tokenIndex int) string {
	if c == nil {
		return ""
	}
	return c.indexToToken[tokenIndex]
}
