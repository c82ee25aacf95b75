package nbt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// typedJSON is the lossless wire form of a tag.
type typedJSON struct {
	Name  string          `json:"name,omitempty"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON writes the typed list form:
//
//	[{"name":"facing","type":"string","value":"north"}, ...]
func (c Compound) MarshalJSON() ([]byte, error) {
	out := make([]typedJSON, 0, len(c.Elements))
	for _, e := range c.Elements {
		tj, err := encodeTag(e.Tag)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", e.Name, err)
		}
		tj.Name = e.Name
		out = append(out, tj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the typed list form, or a plain object whose values
// are strings, numbers or bools. Integral numbers decode as Int, other
// numbers as Double, bools as Byte 0/1. Object keys are taken in sorted
// order.
func (c *Compound) UnmarshalJSON(b []byte) error {
	c.Elements = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '[':
		var list []typedJSON
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		for _, tj := range list {
			if tj.Name == "" {
				return fmt.Errorf("compound entry without name")
			}
			t, err := decodeTag(tj)
			if err != nil {
				return fmt.Errorf("tag %q: %w", tj.Name, err)
			}
			c.Set(tj.Name, t)
		}
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return err
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t, err := relaxedTag(m[k])
			if err != nil {
				return fmt.Errorf("property %q: %w", k, err)
			}
			c.Set(k, t)
		}
		return nil
	}
	return fmt.Errorf("compound: expected array or object")
}

func relaxedTag(v any) (Tag, error) {
	switch x := v.(type) {
	case string:
		return String(x), nil
	case bool:
		if x {
			return Byte(1), nil
		}
		return Byte(0), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return Int(i), nil
			}
			return Long(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return Double(f), nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

func encodeTag(t Tag) (typedJSON, error) {
	var v any
	switch x := t.(type) {
	case Byte, Short, Int, Long, Float, Double, String, ByteArray, IntArray, LongArray:
		v = x
	case Compound:
		v = x
	case List:
		items := make([]typedJSON, 0, len(x.Items))
		for _, it := range x.Items {
			tj, err := encodeTag(it)
			if err != nil {
				return typedJSON{}, err
			}
			items = append(items, tj)
		}
		v = struct {
			Elem  string      `json:"elem"`
			Items []typedJSON `json:"items"`
		}{Elem: x.Elem.String(), Items: items}
	default:
		return typedJSON{}, fmt.Errorf("unsupported tag %T", t)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return typedJSON{}, err
	}
	return typedJSON{Type: t.Kind().String(), Value: raw}, nil
}

func decodeTag(tj typedJSON) (Tag, error) {
	kind, ok := KindFromName(tj.Type)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", tj.Type)
	}
	switch kind {
	case KindByte:
		var v int8
		err := json.Unmarshal(tj.Value, &v)
		return Byte(v), err
	case KindShort:
		var v int16
		err := json.Unmarshal(tj.Value, &v)
		return Short(v), err
	case KindInt:
		var v int32
		err := json.Unmarshal(tj.Value, &v)
		return Int(v), err
	case KindLong:
		var v int64
		err := json.Unmarshal(tj.Value, &v)
		return Long(v), err
	case KindFloat:
		var v float32
		err := json.Unmarshal(tj.Value, &v)
		return Float(v), err
	case KindDouble:
		var v float64
		err := json.Unmarshal(tj.Value, &v)
		return Double(v), err
	case KindString:
		var v string
		err := json.Unmarshal(tj.Value, &v)
		return String(v), err
	case KindByteArray:
		var v []int8
		err := json.Unmarshal(tj.Value, &v)
		return ByteArray(v), err
	case KindIntArray:
		var v []int32
		err := json.Unmarshal(tj.Value, &v)
		return IntArray(v), err
	case KindLongArray:
		var v []int64
		err := json.Unmarshal(tj.Value, &v)
		return LongArray(v), err
	case KindCompound:
		var v Compound
		err := json.Unmarshal(tj.Value, &v)
		return v, err
	case KindList:
		var raw struct {
			Elem  string      `json:"elem"`
			Items []typedJSON `json:"items"`
		}
		if err := json.Unmarshal(tj.Value, &raw); err != nil {
			return nil, err
		}
		elem, ok := KindFromName(raw.Elem)
		if !ok && raw.Elem != "" {
			return nil, fmt.Errorf("unknown list element type %q", raw.Elem)
		}
		l := List{Elem: elem}
		for _, it := range raw.Items {
			t, err := decodeTag(it)
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, t)
		}
		return l, nil
	}
	return nil, fmt.Errorf("unsupported type %q", tj.Type)
}
