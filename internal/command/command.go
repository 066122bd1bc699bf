// Package command implements the command surface: the Command contract,
// a name registry and the built-in commands.
//
// Every command goes through Run, which checks the argument count against
// the command's declared arity before Execute can touch target memory.
package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"corescope/internal/catalog"
	"corescope/internal/pointer"
	"corescope/internal/target"
)

// Spec is the static description of a command.
type Spec struct {
	Names       []string // first entry is the primary name
	Usage       string
	Description string
	MinArgs     int
	MaxArgs     int // negative means unbounded
}

// Name returns the primary name.
func (s Spec) Name() string {
	if len(s.Names) == 0 {
		return ""
	}
	return s.Names[0]
}

func (s Spec) accepts(n int) bool {
	return n >= s.MinArgs && (s.MaxArgs < 0 || n <= s.MaxArgs)
}

// Command is a stateless operation bound to one or more names.
type Command interface {
	Spec() Spec
	Execute(ctx *Context, args []string, out io.Writer) error
}

// Context is the read-only session state handed to every command.
type Context struct {
	Resolver *pointer.Resolver
	Catalog  *catalog.Catalog
	Bitness  pointer.Bitness
	Symbols  *target.Symbols // nil when no executable was loaded
	Logger   *log.Logger
	Color    bool // output goes to a terminal that takes ANSI colors
}

// Regions returns the target memory map if the memory source has one.
func (c *Context) Regions() ([]target.Region, bool) {
	rl, ok := c.Resolver.Memory().(target.RegionLister)
	if !ok {
		return nil, false
	}
	return rl.Regions(), true
}

// Run validates the argument count and executes cmd. Arity failures return
// a *UsageError without calling Execute. Execution failures are wrapped in
// a single *CommandError.
func Run(cmd Command, ctx *Context, args []string, out io.Writer) error {
	spec := cmd.Spec()
	if !spec.accepts(len(args)) {
		return &UsageError{Command: spec.Name(), Usage: spec.Usage}
	}

	err := cmd.Execute(ctx, args, out)
	if err == nil {
		return nil
	}

	var ce *CommandError
	var ue *UsageError
	if errors.As(err, &ce) || errors.As(err, &ue) {
		return err
	}
	return &CommandError{Command: spec.Name(), Err: err}
}

// UsageError reports a wrong number of arguments.
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s", e.Usage)
}

// UnknownCommandError reports a name with no registered command.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unrecognized command %q", e.Name)
}

// DuplicateCommandError reports a name that is already registered.
type DuplicateCommandError struct {
	Name string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("command %q is already registered", e.Name)
}

// CommandError wraps a failure that happened while a command executed.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
