package pointer

import (
	"fmt"
	"strconv"

	"corescope/internal/catalog"
)

// Field is one decoded structure field.
type Field struct {
	catalog.FieldDescriptor
	Addr  Address
	Value uint64 // raw bits; signed kinds are sign-extended
}

// Int returns the value as a signed integer.
func (f Field) Int() int64 {
	return int64(f.Value)
}

// Pointer returns the value as an address.
func (f Field) Pointer() Address {
	return Address(f.Value)
}

// Format renders the value for display.
func (f Field) Format() string {
	switch {
	case f.Kind == catalog.KindPointer:
		if f.Target != "" {
			return fmt.Sprintf("!%s 0x%x", f.Target, f.Value)
		}
		return fmt.Sprintf("0x%x", f.Value)
	case f.Kind == catalog.KindBool:
		return strconv.FormatBool(f.Value != 0)
	case f.Kind.Signed():
		return strconv.FormatInt(f.Int(), 10)
	case f.Kind == catalog.KindUDATA || f.Kind == catalog.KindU64:
		return fmt.Sprintf("0x%x", f.Value)
	default:
		return strconv.FormatUint(f.Value, 10)
	}
}

// Fields is a fully decoded structure.
type Fields struct {
	Type  *catalog.StructureDescriptor
	Addr  Address
	list  []Field
	index map[string]int
}

func newFields(d *catalog.StructureDescriptor, addr Address) *Fields {
	return &Fields{Type: d, Addr: addr, index: make(map[string]int)}
}

func (fs *Fields) add(f Field) {
	fs.index[f.Name] = len(fs.list)
	fs.list = append(fs.list, f)
}

// All returns the fields in declaration order.
func (fs *Fields) All() []Field {
	return fs.list
}

// Get looks up a field by name.
func (fs *Fields) Get(name string) (Field, bool) {
	i, ok := fs.index[name]
	if !ok {
		return Field{}, false
	}
	return fs.list[i], true
}

// Uint returns a field value, failing if the structure has no such field.
func (fs *Fields) Uint(name string) (uint64, error) {
	f, ok := fs.Get(name)
	if !ok {
		return 0, fmt.Errorf("structure %s has no field %s", fs.Type.Name, name)
	}
	return f.Value, nil
}

// Pointer returns a field value as an address.
func (fs *Fields) Pointer(name string) (Address, error) {
	v, err := fs.Uint(name)
	return Address(v), err
}

// TypedPointer is an address tagged with the structure it is expected to hold.
type TypedPointer struct {
	Addr Address
	Type *catalog.StructureDescriptor
}

// IsNull reports whether the pointer is null.
func (p TypedPointer) IsNull() bool {
	return p.Addr.IsNull()
}

// Deref decodes the structure the pointer refers to.
func (p TypedPointer) Deref(r *Resolver) (*Fields, error) {
	return r.Read(p.Addr, p.Type)
}

func (p TypedPointer) String() string {
	return fmt.Sprintf("!%s %s", p.Type.Name, p.Addr)
}
