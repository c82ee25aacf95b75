package blockstate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelexport.ai/internal/nbt"
)

const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "variants": {
      "type": "object",
      "additionalProperties": {
        "oneOf": [
          {"$ref": "#/definitions/geometry"},
          {"type": "array", "items": {"$ref": "#/definitions/geometry"}}
        ]
      }
    },
    "multipart": {"type": "array"}
  },
  "anyOf": [
    {"required": ["variants"]},
    {"required": ["multipart"]}
  ],
  "definitions": {
    "geometry": {
      "type": "object",
      "required": ["model"],
      "properties": {
        "model": {"type": "string", "minLength": 1},
        "x": {"type": "integer"},
        "y": {"type": "integer"},
        "uvlock": {"type": "boolean"},
        "weight": {"type": "integer"}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func definitionValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("blockstate.schema.json", definitionSchema)
	})
	return schema, schemaErr
}

// Validate checks a blockstate document against the definition schema.
func Validate(raw []byte) error {
	s, err := definitionValidator()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return nil
}

// Definition is every part declared for one block type.
type Definition struct {
	Name  string
	Parts []Part
	needs bool
}

type definitionFile struct {
	Variants  map[string]json.RawMessage `json:"variants"`
	Multipart json.RawMessage            `json:"multipart"`
}

// LoadDefinition validates a blockstate document and builds one VariantPart
// per variant, in sorted condition order.
func LoadDefinition(name string, raw []byte, doubleSided bool, deps Deps) (*Definition, error) {
	if err := Validate(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var f definitionFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrInvalidDefinition, err)
	}
	if f.Variants == nil {
		return nil, fmt.Errorf("%s: %w: multipart", name, ErrUnsupportedForm)
	}

	conds := make([]string, 0, len(f.Variants))
	for c := range f.Variants {
		conds = append(conds, c)
	}
	sort.Strings(conds)

	d := &Definition{Name: name, Parts: make([]Part, 0, len(conds))}
	for _, c := range conds {
		p, err := NewVariantPart(c, f.Variants[c], doubleSided, deps)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		d.Parts = append(d.Parts, p)
		d.needs = d.needs || p.NeedsConnectionInfo()
	}
	return d, nil
}

// NeedsConnectionInfo reports whether any part consults neighbours.
func (d *Definition) NeedsConnectionInfo() bool { return d.needs }

// Match returns the entries of every part that applies, in part order.
func (d *Definition) Match(props nbt.Compound, x, y, z int) []Entry {
	var out []Entry
	for _, p := range d.Parts {
		if p.UsePart(props, x, y, z) {
			out = append(out, p.Entries()...)
		}
	}
	return out
}

// Conditions lists the source condition of every variant part.
func (d *Definition) Conditions() []string {
	out := make([]string, 0, len(d.Parts))
	for _, p := range d.Parts {
		if vp, ok := p.(*VariantPart); ok {
			out = append(out, vp.Condition())
		}
	}
	return out
}

func (d *Definition) String() string {
	return d.Name + "[" + strings.Join(d.Conditions(), " ; ") + "]"
}
