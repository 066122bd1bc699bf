package colorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoColor(t *testing.T) {
	t.Setenv("CORESCOPE_NO_COLOR", "1")

	text := "1000  bl .+0x8\n1004  ret\n"
	assert.Equal(t, text, Lines(text))
}

func TestLinesKeepText(t *testing.T) {
	t.Setenv("CORESCOPE_NO_COLOR", "")

	text := "1000  mov x0, #0x1\n1004  bl .+0x8 ; main+0x10\n"
	got := Lines(text)
	assert.NotEqual(t, text, got)
	assert.Equal(t, text, StripANSI(got))
}

func TestHighlighterLine(t *testing.T) {
	h := NewHighlighter(DisasmDark.Name)

	assert.Equal(t, "nop", StripANSI(h.Line("nop")))
	assert.Equal(t, "ffff0000  ret", StripANSI(h.Line("ffff0000  ret")))
	assert.Equal(t, "zz  ret", StripANSI(h.Line("zz  ret")))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "abc", StripANSI("\x1b[31mabc\x1b[0m"))
	assert.Equal(t, "", StripANSI(""))
}
