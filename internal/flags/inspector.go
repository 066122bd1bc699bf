// Package flags lists catalog structures and the named constants they own.
package flags

import (
	"fmt"
	"io"

	"corescope/internal/catalog"
)

// NoSuchStructure is printed when a named structure is not in the catalog.
const NoSuchStructure = "That structure does not exist"

// Inspector answers structure and constant queries against a catalog.
type Inspector struct {
	catalog *catalog.Catalog
}

// NewInspector returns an inspector over c.
func NewInspector(c *catalog.Catalog) *Inspector {
	return &Inspector{catalog: c}
}

// Show writes the answer for 0, 1 or 2 arguments:
//
//	no args:           every structure name, one per line
//	structure:         every constant of the structure as "name: value"
//	structure, flag:   the named constant as "name: value", or nothing
//
// An unknown structure prints NoSuchStructure and stops. An absent flag
// prints nothing. Neither is an error.
func (in *Inspector) Show(out io.Writer, args ...string) error {
	switch len(args) {
	case 0:
		return in.listStructures(out)
	case 1, 2:
	default:
		return fmt.Errorf("showflags takes at most 2 arguments, got %d", len(args))
	}

	s, ok := in.catalog.Structure(args[0])
	if !ok {
		_, err := fmt.Fprintln(out, NoSuchStructure)
		return err
	}

	if len(args) == 1 {
		for _, c := range s.Constants() {
			if _, err := fmt.Fprintln(out, c.String()); err != nil {
				return err
			}
		}
		return nil
	}

	c, ok := s.Constant(args[1])
	if !ok {
		return nil
	}
	_, err := fmt.Fprintln(out, c.String())
	return err
}

func (in *Inspector) listStructures(out io.Writer) error {
	for _, name := range in.catalog.Names() {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return err
		}
	}
	return nil
}
