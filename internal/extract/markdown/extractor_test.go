package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode_ValidUTF8PassesThrough(t *testing.T) {
	assert.Equal(t, "# Title\n\nhello", Decode([]byte("# Title\n\nhello")))
}

func TestDecode_InvalidUTF8FallsBackWithoutPanicking(t *testing.T) {
	raw := []byte{0xA1, 0xA1, 0xB0, 0xA3} // GBK-ish bytes, invalid UTF-8
	out := Decode(raw)
	assert.NotEmpty(t, out)
}

func TestDecode_Latin1NeverErrors(t *testing.T) {
	raw := []byte{0xFF, 0xFE, 0x00, 0x01}
	out := Decode(raw)
	assert.NotEmpty(t, out)
}
