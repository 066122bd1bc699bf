package catalog

import (
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FieldKind names the encoding of a structure field in target memory.
type FieldKind string

const (
	KindU8      FieldKind = "u8"
	KindU16     FieldKind = "u16"
	KindU32     FieldKind = "u32"
	KindU64     FieldKind = "u64"
	KindI8      FieldKind = "i8"
	KindI16     FieldKind = "i16"
	KindI32     FieldKind = "i32"
	KindI64     FieldKind = "i64"
	KindBool    FieldKind = "bool"
	KindUDATA   FieldKind = "udata"   // pointer-sized unsigned
	KindIDATA   FieldKind = "idata"   // pointer-sized signed
	KindPointer FieldKind = "pointer" // pointer-sized address, optionally typed
)

// Size returns the width of the kind in bytes for the given pointer size.
func (k FieldKind) Size(ptrSize uint64) (uint64, bool) {
	switch k {
	case KindU8, KindI8, KindBool:
		return 1, true
	case KindU16, KindI16:
		return 2, true
	case KindU32, KindI32:
		return 4, true
	case KindU64, KindI64:
		return 8, true
	case KindUDATA, KindIDATA, KindPointer:
		return ptrSize, true
	}
	return 0, false
}

// Signed reports whether values of the kind are sign-extended.
func (k FieldKind) Signed() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64, KindIDATA:
		return true
	}
	return false
}

func (k FieldKind) valid() bool {
	_, ok := k.Size(8)
	return ok
}

// FieldDescriptor describes one field of a structure.
type FieldDescriptor struct {
	Name   string
	Kind   FieldKind
	Offset uint64
	Target string // structure name a pointer field refers to, if known
	Max    uint64 // largest plausible value; zero means unbounded
}

// ConstantDescriptor is a named integer or string constant owned by a structure.
type ConstantDescriptor struct {
	Name   string
	value  int64
	text   string
	isText bool
}

// IntConstant returns an integer-valued constant.
func IntConstant(name string, v int64) ConstantDescriptor {
	return ConstantDescriptor{Name: name, value: v}
}

// StringConstant returns a string-valued constant.
func StringConstant(name, v string) ConstantDescriptor {
	return ConstantDescriptor{Name: name, text: v, isText: true}
}

// IsString reports whether the constant holds a string.
func (c ConstantDescriptor) IsString() bool {
	return c.isText
}

// Int returns the integer value; ok is false for string constants.
func (c ConstantDescriptor) Int() (v int64, ok bool) {
	return c.value, !c.isText
}

// Value renders the constant value: integers in decimal, strings verbatim.
func (c ConstantDescriptor) Value() string {
	if c.isText {
		return c.text
	}
	return strconv.FormatInt(c.value, 10)
}

func (c ConstantDescriptor) String() string {
	return c.Name + ": " + c.Value()
}

// StructureDescriptor describes the layout and constants of a named
// structure. It is immutable once built.
type StructureDescriptor struct {
	Name       string
	Size       uint64
	fields     []FieldDescriptor
	fieldIndex map[string]int
	constants  *orderedmap.OrderedMap[string, ConstantDescriptor]
}

// NewStructure validates and builds a descriptor. Field and constant names
// must be unique within the structure.
func NewStructure(name string, size uint64, fields []FieldDescriptor, constants []ConstantDescriptor) (*StructureDescriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("structure with empty name")
	}

	s := &StructureDescriptor{
		Name:       name,
		Size:       size,
		fields:     make([]FieldDescriptor, 0, len(fields)),
		fieldIndex: make(map[string]int, len(fields)),
		constants:  orderedmap.New[string, ConstantDescriptor](),
	}

	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("structure %s: field with empty name", name)
		}
		if !f.Kind.valid() {
			return nil, fmt.Errorf("structure %s: field %s has unknown kind %q", name, f.Name, f.Kind)
		}
		if _, dup := s.fieldIndex[f.Name]; dup {
			return nil, fmt.Errorf("structure %s: duplicate field %s", name, f.Name)
		}
		s.fieldIndex[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}

	for _, c := range constants {
		if c.Name == "" {
			return nil, fmt.Errorf("structure %s: constant with empty name", name)
		}
		if _, present := s.constants.Set(c.Name, c); present {
			return nil, &DuplicateConstantError{Structure: name, Name: c.Name}
		}
	}
	return s, nil
}

// Fields returns the fields in declaration order.
func (s *StructureDescriptor) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *StructureDescriptor) Field(name string) (FieldDescriptor, bool) {
	i, ok := s.fieldIndex[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return s.fields[i], true
}

// Constants returns the owned constants in declaration order.
func (s *StructureDescriptor) Constants() []ConstantDescriptor {
	out := make([]ConstantDescriptor, 0, s.constants.Len())
	for pair := s.constants.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Constant looks up an owned constant by name.
func (s *StructureDescriptor) Constant(name string) (ConstantDescriptor, bool) {
	return s.constants.Get(name)
}

func (s *StructureDescriptor) String() string {
	return s.Name
}
