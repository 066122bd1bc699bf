package command

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// MemMap prints the target memory regions.
type MemMap struct{}

func (MemMap) Spec() Spec {
	return Spec{
		Names:       []string{"memmap"},
		Usage:       "memmap",
		Description: "list target memory regions",
		MinArgs:     0,
		MaxArgs:     0,
	}
}

func (MemMap) Execute(ctx *Context, args []string, out io.Writer) error {
	regions, ok := ctx.Regions()
	if !ok {
		_, err := fmt.Fprintln(out, "Memory map not available for this target")
		return err
	}

	var total uint64
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Start", "End", "Size", "Perm", "Name"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, r := range regions {
		total += r.Size
		table.Append([]string{
			fmt.Sprintf("0x%x", r.Addr),
			fmt.Sprintf("0x%x", r.End()),
			humanize.IBytes(r.Size),
			r.Perm,
			r.Name,
		})
	}
	table.Render()

	_, err := fmt.Fprintf(out, "%d regions, %s\n", len(regions), humanize.IBytes(total))
	return err
}
