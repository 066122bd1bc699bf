// Package catalog holds the structure-metadata catalog: the layouts and
// named constants of target structures, loaded once per session and
// read-only afterwards.
package catalog

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DuplicateStructureError reports a structure name defined twice.
type DuplicateStructureError struct {
	Name string
}

func (e *DuplicateStructureError) Error() string {
	return fmt.Sprintf("duplicate structure %s", e.Name)
}

// DuplicateConstantError reports a constant name defined twice within one structure.
type DuplicateConstantError struct {
	Structure string
	Name      string
}

func (e *DuplicateConstantError) Error() string {
	return fmt.Sprintf("structure %s: duplicate constant %s", e.Structure, e.Name)
}

// Catalog is a read-only set of structure descriptors. Iteration follows
// insertion order, which for loaded catalogs is document order.
type Catalog struct {
	structs *orderedmap.OrderedMap[string, *StructureDescriptor]
}

// New builds a catalog, rejecting duplicate structure names.
func New(structs ...*StructureDescriptor) (*Catalog, error) {
	c := &Catalog{structs: orderedmap.New[string, *StructureDescriptor](len(structs))}
	for _, s := range structs {
		if s == nil {
			return nil, fmt.Errorf("nil structure descriptor")
		}
		if _, present := c.structs.Get(s.Name); present {
			return nil, &DuplicateStructureError{Name: s.Name}
		}
		c.structs.Set(s.Name, s)
	}
	return c, nil
}

// Structure looks up a structure by name.
func (c *Catalog) Structure(name string) (*StructureDescriptor, bool) {
	return c.structs.Get(name)
}

// Constant looks up a constant owned by the named structure.
func (c *Catalog) Constant(structure, name string) (ConstantDescriptor, bool) {
	s, ok := c.structs.Get(structure)
	if !ok {
		return ConstantDescriptor{}, false
	}
	return s.Constant(name)
}

// Len returns the number of structures.
func (c *Catalog) Len() int {
	return c.structs.Len()
}

// Names lists every structure name once, in insertion order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, c.structs.Len())
	for pair := c.structs.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Structures lists the descriptors in insertion order.
func (c *Catalog) Structures() []*StructureDescriptor {
	out := make([]*StructureDescriptor, 0, c.structs.Len())
	for pair := c.structs.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
