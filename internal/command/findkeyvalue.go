package command

import (
	"fmt"
	"io"

	"corescope/internal/hashtable"
)

// FindKeyValue looks a key up in a hash table in target memory.
type FindKeyValue struct{}

func (FindKeyValue) Spec() Spec {
	return Spec{
		Names:       []string{"findKeyValue"},
		Usage:       "findKeyValue <hashtable> <key>",
		Description: "search for key-value pair in a hashtable",
		MinArgs:     2,
		MaxArgs:     2,
	}
}

func (FindKeyValue) Execute(ctx *Context, args []string, out io.Writer) error {
	addr, err := ctx.Resolver.ParseAddress(args[0])
	if err != nil {
		return err
	}
	key := args[1]

	view, err := hashtable.NewView(ctx.Resolver, ctx.Catalog, hashtable.DefaultLayout)
	if err != nil {
		return err
	}
	if ctx.Logger != nil {
		view = view.WithLogger(ctx.Logger)
	}

	res, err := view.Lookup(addr, key)
	if err != nil {
		return err
	}
	if res.State == hashtable.Found {
		_, err = fmt.Fprintf(out, "Value for key %s: %s\n", key, res.Value)
		return err
	}
	_, err = fmt.Fprintln(out, "Key does not exist")
	return err
}
