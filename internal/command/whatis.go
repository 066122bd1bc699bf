package command

import (
	"fmt"
	"io"
)

// WhatIs names the symbol and memory region an address falls in.
type WhatIs struct{}

func (WhatIs) Spec() Spec {
	return Spec{
		Names:       []string{"whatis"},
		Usage:       "whatis <address>",
		Description: "name the nearest executable symbol and the region of an address",
		MinArgs:     1,
		MaxArgs:     1,
	}
}

func (WhatIs) Execute(ctx *Context, args []string, out io.Writer) error {
	addr, err := ctx.Resolver.ParseAddress(args[0])
	if err != nil {
		return err
	}

	switch {
	case ctx.Symbols == nil:
		fmt.Fprintln(out, "No executable symbols loaded")
	default:
		if sym, off, ok := ctx.Symbols.Lookup(uint64(addr)); ok {
			name := sym.Demangled()
			if off != 0 {
				name = fmt.Sprintf("%s+0x%x", name, off)
			}
			fmt.Fprintf(out, "%s = %s\n", addr, name)
		} else {
			fmt.Fprintf(out, "No symbol for %s\n", addr)
		}
	}

	if regions, ok := ctx.Regions(); ok {
		for _, r := range regions {
			if r.Contains(uint64(addr)) {
				fmt.Fprintf(out, "%s is in %s\n", addr, r)
				return nil
			}
		}
		fmt.Fprintf(out, "%s is not mapped\n", addr)
	}
	return nil
}
