package blockstate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"voxelexport.ai/internal/nbt"
)

// VariantPart is a part keyed by a variant condition string.
type VariantPart struct {
	cond    string
	pred    Predicate
	connect [][]string // per clause, sorted neighbour keys
	needs   bool
	strict  bool
	nb      NeighborTester
	entries []Entry
}

var _ Part = (*VariantPart)(nil)

// NewVariantPart parses condition and the geometry spec. spec is a JSON
// object or an array of objects with fields model, x, y, uvlock and, in the
// array form, weight.
func NewVariantPart(condition string, spec []byte, doubleSided bool, deps Deps) (*VariantPart, error) {
	pred, needs := ParseCondition(condition)
	if needs && deps.Neighbors == nil {
		return nil, fmt.Errorf("variant %q: %w", condition, ErrNoNeighbors)
	}
	p := &VariantPart{
		cond:   condition,
		pred:   pred,
		needs:  needs,
		strict: deps.Strict,
		nb:     deps.Neighbors,
	}
	if needs {
		p.connect = make([][]string, len(pred))
		for i, c := range pred {
			p.connect[i] = c.connectKeys()
		}
	}
	entries, err := parseEntries(spec, doubleSided, deps.Models)
	if err != nil {
		return nil, fmt.Errorf("variant %q: %w", condition, err)
	}
	p.entries = entries
	return p, nil
}

type geometrySpec struct {
	Model  *string  `json:"model"`
	X      jsonInt  `json:"x"`
	Y      jsonInt  `json:"y"`
	UVLock bool     `json:"uvlock"`
	Weight *jsonInt `json:"weight"`
}

// jsonInt accepts any integral JSON number, so 90 and 90.0 both decode.
type jsonInt int

func (n *jsonInt) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("%s is not an integer", b)
	}
	*n = jsonInt(f)
	return nil
}

func parseEntries(spec []byte, doubleSided bool, models ModelSource) ([]Entry, error) {
	spec = bytes.TrimSpace(spec)
	if len(spec) == 0 {
		return nil, ErrBadSpec
	}
	switch spec[0] {
	case '[':
		var list []geometrySpec
		if err := json.Unmarshal(spec, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSpec, err)
		}
		out := make([]Entry, 0, len(list))
		for i, gs := range list {
			weight := 1
			if gs.Weight != nil {
				weight = int(*gs.Weight)
			}
			e, err := buildEntry(gs, weight, doubleSided, models)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			out = append(out, e)
		}
		return out, nil
	case '{':
		var gs geometrySpec
		if err := json.Unmarshal(spec, &gs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSpec, err)
		}
		// The single form has no weight field; it is the only option.
		e, err := buildEntry(gs, 1, doubleSided, models)
		if err != nil {
			return nil, err
		}
		return []Entry{e}, nil
	}
	return nil, ErrBadSpec
}

func buildEntry(gs geometrySpec, weight int, doubleSided bool, models ModelSource) (Entry, error) {
	if gs.Model == nil || *gs.Model == "" {
		return Entry{}, ErrMissingModel
	}
	if models == nil {
		return Entry{}, fmt.Errorf("model %s: no model source", *gs.Model)
	}
	id, err := models.IDForName(*gs.Model, doubleSided)
	if err != nil {
		return Entry{}, err
	}
	m, err := models.Copy(id)
	if err != nil {
		return Entry{}, err
	}
	rotX, rotY := int(gs.X), int(gs.Y)
	if rotX != 0 || rotY != 0 {
		m.Rotate(rotX, rotY, gs.UVLock)
	}
	m.SetWeight(weight)
	return Entry{
		ModelID: id,
		Model:   m,
		RotX:    rotX,
		RotY:    rotY,
		UVLock:  gs.UVLock,
		Weight:  m.Weight,
	}, nil
}

func (p *VariantPart) NeedsConnectionInfo() bool { return p.needs }

func (p *VariantPart) Entries() []Entry { return p.entries }

// Condition is the source condition string.
func (p *VariantPart) Condition() string { return p.cond }

// Predicate is the parsed condition. Callers must not modify it.
func (p *VariantPart) Predicate() Predicate { return p.pred }

func (p *VariantPart) UsePart(props nbt.Compound, x, y, z int) bool {
	if len(p.pred) == 0 {
		return true
	}
	for i, c := range p.pred {
		if p.check(i, c, props, x, y, z) {
			return true
		}
	}
	return false
}

// check evaluates one clause. It walks the block's properties, not the
// clause keys: a key naming a property the block lacks is never visited
// unless the part is strict.
func (p *VariantPart) check(i int, c Clause, props nbt.Compound, x, y, z int) bool {
	for _, e := range props.Elements {
		want, ok := c[e.Name]
		if !ok {
			continue
		}
		got, ok := nbt.Text(e.Tag)
		if !ok {
			continue
		}
		if !valuesMatch(want, got) {
			return false
		}
	}
	if p.strict {
		for k := range c {
			if strings.HasPrefix(k, ConnectPrefix) {
				continue
			}
			if !props.Has(k) {
				return false
			}
		}
	}
	if p.needs {
		for _, k := range p.connect[i] {
			if !p.nb.TestConnection(k, c[k], x, y, z) {
				return false
			}
		}
	}
	return true
}
