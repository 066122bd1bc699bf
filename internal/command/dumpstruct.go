package command

import (
	"fmt"
	"io"

	"corescope/internal/flags"
)

// DumpStruct decodes an address as a catalog structure and prints every field.
type DumpStruct struct{}

func (DumpStruct) Spec() Spec {
	return Spec{
		Names:       []string{"dumpstruct", "struct"},
		Usage:       "dumpstruct <structure> <address>",
		Description: "print the fields of a structure at an address",
		MinArgs:     2,
		MaxArgs:     2,
	}
}

func (DumpStruct) Execute(ctx *Context, args []string, out io.Writer) error {
	d, ok := ctx.Catalog.Structure(args[0])
	if !ok {
		_, err := fmt.Fprintln(out, flags.NoSuchStructure)
		return err
	}
	addr, err := ctx.Resolver.ParseAddress(args[1])
	if err != nil {
		return err
	}

	fields, err := ctx.Resolver.Read(addr, d)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s at %s {\n", d.Name, addr)
	for _, f := range fields.All() {
		fmt.Fprintf(out, "  0x%-4x %-8s %-24s = %s\n", f.Offset, f.Kind, f.Name, f.Format())
	}
	_, err = fmt.Fprintln(out, "}")
	return err
}
