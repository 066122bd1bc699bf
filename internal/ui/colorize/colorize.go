// Package colorize adds terminal syntax highlighting to disassembly.
package colorize

import (
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// Disabled reports whether CORESCOPE_NO_COLOR turns highlighting off.
func Disabled() bool {
	return os.Getenv("CORESCOPE_NO_COLOR") != ""
}

var addrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4F4F4F"))

// Highlighter formats assembly with one lexer, style and formatter.
type Highlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewHighlighter picks the first available lexer (nasm handles ';'
// annotations best) and the named style, falling back to chroma's defaults.
func NewHighlighter(style string) *Highlighter {
	h := &Highlighter{style: styles.Get(style), formatter: formatters.Get("terminal16m")}
	for _, name := range []string{"nasm", "armasm", "gas"} {
		if h.lexer = lexers.Get(name); h.lexer != nil {
			break
		}
	}
	if h.formatter == nil {
		h.formatter = formatters.Fallback
	}
	return h
}

var defaultHighlighter = sync.OnceValue(func() *Highlighter {
	return NewHighlighter(DisasmDark.Name)
})

func (h *Highlighter) highlight(code string) (string, error) {
	if h.lexer == nil {
		return code, nil
	}
	it, err := h.lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}
	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return code, err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Line colorizes one "addr  mnemonic operands ; comment" line, dimming the
// address. Lines that fail to tokenize come back unchanged.
func (h *Highlighter) Line(line string) string {
	addr, rest, ok := strings.Cut(line, " ")
	if !ok || !isHex(addr) {
		out, _ := h.highlight(line)
		return out
	}
	out, err := h.highlight(rest)
	if err != nil {
		return line
	}
	return addrStyle.Render(addr) + " " + out
}

// Lines colorizes every line of a formatted stream.
func (h *Highlighter) Lines(text string) string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = h.Line(l)
	}
	return strings.Join(lines, "\n") + "\n"
}

// Lines colorizes text with the dis style unless color is disabled.
func Lines(text string) string {
	if Disabled() {
		return text
	}
	return defaultHighlighter().Lines(text)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')) {
			return false
		}
	}
	return true
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	return ansi.Strip(s)
}
