// Package styles holds the console palette and the markdown renderer used
// for help output.
package styles

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	gstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/x/exp/charmtone"
)

// MarkdownRenderer returns a glamour renderer wrapping at width.
func MarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStyles(MarkdownStyle()),
		glamour.WithWordWrap(width),
	)
}

// RenderMarkdown renders md, returning it unchanged if rendering fails.
func RenderMarkdown(md string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := MarkdownRenderer(width)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// MarkdownStyle is glamour's dark style recolored with charmtone: a
// highlighted title, accent headings and gold inline code so command usages
// stand out.
func MarkdownStyle() ansi.StyleConfig {
	cfg := gstyles.DarkStyleConfig
	cfg.Document.Margin = nil
	cfg.Document.Color = hex(charmtone.Smoke)

	cfg.Heading.Color = hex(charmtone.Malibu)
	cfg.H1.Color = hex(charmtone.Zest)
	cfg.H1.BackgroundColor = hex(charmtone.Charple)

	cfg.Item.BlockPrefix = "• "
	cfg.Code.Color = &inlineCode
	cfg.Code.BackgroundColor = nil
	return cfg
}

var inlineCode = InlineCode

func hex(k charmtone.Key) *string {
	s := k.Hex()
	return &s
}
