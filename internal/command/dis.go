package command

import (
	"fmt"
	"io"
	"strconv"

	"corescope/internal/disasm"
	"corescope/internal/ui/colorize"
)

// DefaultDisCount is the number of instructions dis decodes without a count.
const DefaultDisCount = 8

// Dis disassembles ARM64 code from target memory.
type Dis struct{}

func (Dis) Spec() Spec {
	return Spec{
		Names:       []string{"dis"},
		Usage:       "dis <address> [<count>]",
		Description: "disassemble ARM64 instructions at an address",
		MinArgs:     1,
		MaxArgs:     2,
	}
}

func (Dis) Execute(ctx *Context, args []string, out io.Writer) error {
	addr, err := ctx.Resolver.ParseAddress(args[0])
	if err != nil {
		return err
	}

	count := DefaultDisCount
	if len(args) == 2 {
		count, err = strconv.Atoi(args[1])
		if err != nil || count <= 0 || count > disasm.MaxCount {
			return fmt.Errorf("count must be between 1 and %d, got %q", disasm.MaxCount, args[1])
		}
	}

	code, err := ctx.Resolver.ReadBytes(addr, uint64(count)*4)
	if err != nil {
		return err
	}

	var sym disasm.Symbolizer
	if ctx.Symbols != nil {
		sym = func(a uint64) (string, bool) {
			s, off, ok := ctx.Symbols.Lookup(a)
			if !ok {
				return "", false
			}
			if off == 0 {
				return s.Demangled(), true
			}
			return fmt.Sprintf("%s+0x%x", s.Demangled(), off), true
		}
	}

	text := disasm.Decode(code, uint64(addr)).Format(sym)
	if ctx.Color {
		text = colorize.Lines(text)
	}
	_, err = io.WriteString(out, text)
	return err
}
