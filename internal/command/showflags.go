package command

import (
	"io"

	"corescope/internal/flags"
)

// ShowFlags lists structures and their constants.
type ShowFlags struct{}

func (ShowFlags) Spec() Spec {
	return Spec{
		Names:       []string{"showflags"},
		Usage:       "showflags [<structure> [<flag>]]",
		Description: "list structures, the constants of a structure, or one constant",
		MinArgs:     0,
		MaxArgs:     2,
	}
}

func (ShowFlags) Execute(ctx *Context, args []string, out io.Writer) error {
	return flags.NewInspector(ctx.Catalog).Show(out, args...)
}
