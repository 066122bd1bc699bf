package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
)

// Help describes the registered commands. Its output is markdown so the
// console can render it; it reads fine as plain text too.
type Help struct {
	Registry *Registry
}

func (Help) Spec() Spec {
	return Spec{
		Names:       []string{"help"},
		Usage:       "help [<command>]",
		Description: "list commands or describe one",
		MinArgs:     0,
		MaxArgs:     1,
	}
}

func (h Help) Execute(ctx *Context, args []string, out io.Writer) error {
	if len(args) == 1 {
		cmd, ok := h.Registry.Lookup(args[0])
		if !ok {
			return &UnknownCommandError{Name: args[0]}
		}
		spec := cmd.Spec()
		fmt.Fprintf(out, "`%s`\n\n%s\n", spec.Usage, spec.Description)
		if len(spec.Names) > 1 {
			fmt.Fprintf(out, "\nAliases: %s\n", strings.Join(spec.Names[1:], ", "))
		}
		return nil
	}

	lines := lo.Map(h.Registry.Commands(), func(cmd Command, _ int) string {
		spec := cmd.Spec()
		return fmt.Sprintf("- `%s`: %s", spec.Usage, spec.Description)
	})
	_, err := fmt.Fprintf(out, "# Commands\n\n%s\n", strings.Join(lines, "\n"))
	return err
}
