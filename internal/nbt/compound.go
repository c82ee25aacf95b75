package nbt

// NamedTag is one entry of a Compound.
type NamedTag struct {
	Name string
	Tag  Tag
}

// Compound is an ordered set of named tags. Names are unique; Set replaces
// an existing entry in place so iteration order stays the insertion order.
type Compound struct {
	Elements []NamedTag
}

// NewCompound builds a compound from named tags. Later duplicates replace
// earlier ones.
func NewCompound(tags ...NamedTag) Compound {
	var c Compound
	for _, t := range tags {
		c.Set(t.Name, t.Tag)
	}
	return c
}

// N is shorthand for NamedTag construction.
func N(name string, t Tag) NamedTag {
	return NamedTag{Name: name, Tag: t}
}

func (c Compound) Len() int { return len(c.Elements) }

func (c Compound) Get(name string) (Tag, bool) {
	for _, e := range c.Elements {
		if e.Name == name {
			return e.Tag, true
		}
	}
	return nil, false
}

func (c Compound) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

func (c *Compound) Set(name string, t Tag) {
	for i := range c.Elements {
		if c.Elements[i].Name == name {
			c.Elements[i].Tag = t
			return
		}
	}
	c.Elements = append(c.Elements, NamedTag{Name: name, Tag: t})
}

func (c Compound) Names() []string {
	out := make([]string, 0, len(c.Elements))
	for _, e := range c.Elements {
		out = append(out, e.Name)
	}
	return out
}

// Equal reports whether both compounds hold the same names with the same
// textual values in the same order. Tags without text compare by kind only.
func (c Compound) Equal(o Compound) bool {
	if len(c.Elements) != len(o.Elements) {
		return false
	}
	for i, e := range c.Elements {
		f := o.Elements[i]
		if e.Name != f.Name || e.Tag.Kind() != f.Tag.Kind() {
			return false
		}
		a, aok := Text(e.Tag)
		b, bok := Text(f.Tag)
		if aok != bok || a != b {
			return false
		}
	}
	return true
}
