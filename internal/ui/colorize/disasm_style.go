package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// DisasmDark is the style registered for dis output.
var DisasmDark = styles.Register(chroma.MustNewStyle("disasm-dark", chroma.StyleEntries{
	chroma.Text:       "#E6E6E6",
	chroma.Background: "bg:#1e1e1e",
	chroma.Comment:    "#8A8A8A", // symbol annotations

	chroma.Keyword:       "#FFFFFF", // mnemonics
	chroma.KeywordPseudo: "#FFFFFF",
	chroma.NameFunction:  "#FFFFFF",
	chroma.Name:          "#7C9C9D", // registers
	chroma.NameBuiltin:   "#7C9C9D",
	chroma.NameVariable:  "#7C9C9D",
	chroma.NameLabel:     "#FFD700",

	chroma.LiteralNumber:        "#FF5F87",
	chroma.LiteralNumberHex:     "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",

	chroma.Operator:    "#E6E6E6",
	chroma.Punctuation: "#E6E6E6",
	chroma.String:      "#EACD53",
}))
