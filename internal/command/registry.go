package command

import (
	"fmt"
	"io"
	"slices"

	"github.com/samber/lo"
)

// Registry maps command names to commands.
type Registry struct {
	byName map[string]Command
	order  []Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register binds every name of every command. A command whose names clash
// with an existing binding, or with each other, is rejected as a whole.
func (r *Registry) Register(cmds ...Command) error {
	for _, cmd := range cmds {
		names := cmd.Spec().Names
		if len(names) == 0 {
			return fmt.Errorf("command %T has no names", cmd)
		}
		if dups := lo.FindDuplicates(names); len(dups) > 0 {
			return &DuplicateCommandError{Name: dups[0]}
		}
		for _, name := range names {
			if _, taken := r.byName[name]; taken {
				return &DuplicateCommandError{Name: name}
			}
		}
		for _, name := range names {
			r.byName[name] = cmd
		}
		r.order = append(r.order, cmd)
	}
	return nil
}

// Lookup finds the command bound to name. Names are matched exactly.
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.byName[name]
	return cmd, ok
}

// Dispatch runs the command bound to name. An unknown name fails before
// any argument validation.
func (r *Registry) Dispatch(ctx *Context, name string, args []string, out io.Writer) error {
	cmd, ok := r.byName[name]
	if !ok {
		return &UnknownCommandError{Name: name}
	}
	if ctx.Logger != nil {
		ctx.Logger.Debug("dispatch", "command", name, "args", args)
	}
	return Run(cmd, ctx, args, out)
}

// Commands lists commands in registration order.
func (r *Registry) Commands() []Command {
	return slices.Clone(r.order)
}

// Names lists every bound name, sorted.
func (r *Registry) Names() []string {
	names := lo.Keys(r.byName)
	slices.Sort(names)
	return names
}
