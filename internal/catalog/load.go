package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a catalog document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the document format from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is the on-disk form of a catalog, produced by an external build
// step from compiler symbol tables.
type Document struct {
	Structures []StructureDocument `json:"structures" yaml:"structures" jsonschema:"title=Structures,description=Structure descriptors in catalog order"`
}

type StructureDocument struct {
	Name      string             `json:"name" yaml:"name" jsonschema:"required"`
	Size      uint64             `json:"size" yaml:"size" jsonschema:"description=Structure size in bytes"`
	Fields    []FieldDocument    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Constants []ConstantDocument `json:"constants,omitempty" yaml:"constants,omitempty"`
}

type FieldDocument struct {
	Name   string `json:"name" yaml:"name" jsonschema:"required"`
	Type   string `json:"type" yaml:"type" jsonschema:"required,enum=u8,enum=u16,enum=u32,enum=u64,enum=i8,enum=i16,enum=i32,enum=i64,enum=bool,enum=udata,enum=idata,enum=pointer"`
	Offset uint64 `json:"offset" yaml:"offset"`
	Target string `json:"target,omitempty" yaml:"target,omitempty" jsonschema:"description=Structure a pointer field refers to"`
	Max    uint64 `json:"max,omitempty" yaml:"max,omitempty" jsonschema:"description=Largest plausible value; larger values mark the structure corrupt"`
}

// ConstantDocument carries exactly one of Value or Text.
type ConstantDocument struct {
	Name  string  `json:"name" yaml:"name" jsonschema:"required"`
	Value *int64  `json:"value,omitempty" yaml:"value,omitempty"`
	Text  *string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Load reads and builds the catalog at path.
func Load(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document and builds the catalog.
func Parse(data []byte, format Format) (*Catalog, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	}
	return doc.Build()
}

// Build validates the document and produces a catalog.
func (d Document) Build() (*Catalog, error) {
	structs := make([]*StructureDescriptor, 0, len(d.Structures))
	for _, sd := range d.Structures {
		fields := make([]FieldDescriptor, 0, len(sd.Fields))
		for _, fd := range sd.Fields {
			fields = append(fields, FieldDescriptor{
				Name:   fd.Name,
				Kind:   FieldKind(fd.Type),
				Offset: fd.Offset,
				Target: fd.Target,
				Max:    fd.Max,
			})
		}

		constants := make([]ConstantDescriptor, 0, len(sd.Constants))
		for _, cd := range sd.Constants {
			switch {
			case cd.Value != nil && cd.Text != nil:
				return nil, fmt.Errorf("structure %s: constant %s has both value and text", sd.Name, cd.Name)
			case cd.Value != nil:
				constants = append(constants, IntConstant(cd.Name, *cd.Value))
			case cd.Text != nil:
				constants = append(constants, StringConstant(cd.Name, *cd.Text))
			default:
				return nil, fmt.Errorf("structure %s: constant %s has no value", sd.Name, cd.Name)
			}
		}

		s, err := NewStructure(sd.Name, sd.Size, fields, constants)
		if err != nil {
			return nil, err
		}
		structs = append(structs, s)
	}
	return New(structs...)
}
