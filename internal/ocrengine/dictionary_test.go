package ocrengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDictionary(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	content := ""
	for i, l := range lines {
		if i > 0 {
			content += "\n"
		}
		content += l
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCharset_TokenOrderAndLookup(t *testing.T) {
	path := writeDictionary(t, "a", "b", "c")
	cs, err := loadCharset(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cs.size())
	assert.Equal(t, "a", cs.token(0))
	assert.Equal(t, "c", cs.token(2))
	assert.Equal(t, "", cs.token(99))
}

func TestLoadCharset_StripsBOMAndCR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte("﻿a\r\nb\r\n"), 0o644))
	cs, err := loadCharset(path)
	require.NoError(t, err)
	assert.Equal(t, "a", cs.token(0))
	assert.Equal(t, "b", cs.token(1))
}

func TestLoadCharset_EmptyPathErrors(t *testing.T) {
	_, err := loadCharset("")
	require.Error(t, err)
}

func TestLoadCharset_MissingFileErrors(t *testing.T) {
	_, err := loadCharset(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
