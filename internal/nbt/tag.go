// Package nbt holds the typed property tags attached to a placed block.
//
// Tag is a sealed union: only the kinds declared in this file implement it.
// The six scalar kinds (Byte, Short, Int, Long, Float, Double) and String
// have a textual rendering used for blockstate matching; the container kinds
// exist so that decoded property stores round-trip, but they never take part
// in a comparison.
package nbt

import "strconv"

// Kind is the NBT type id of a tag.
type Kind byte

const (
	KindEnd       Kind = 0
	KindByte      Kind = 1
	KindShort     Kind = 2
	KindInt       Kind = 3
	KindLong      Kind = 4
	KindFloat     Kind = 5
	KindDouble    Kind = 6
	KindByteArray Kind = 7
	KindString    Kind = 8
	KindList      Kind = 9
	KindCompound  Kind = 10
	KindIntArray  Kind = 11
	KindLongArray Kind = 12
)

var kindNames = map[Kind]string{
	KindByte:      "byte",
	KindShort:     "short",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindByteArray: "byte_array",
	KindString:    "string",
	KindList:      "list",
	KindCompound:  "compound",
	KindIntArray:  "int_array",
	KindLongArray: "long_array",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// KindFromName is the inverse of Kind.String.
func KindFromName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindEnd, false
}

// Tag is a sealed interface over the NBT value kinds.
type Tag interface {
	Kind() Kind
	tag()
}

type Byte int8
type Short int16
type Int int32
type Long int64
type Float float32
type Double float64
type String string
type ByteArray []int8
type IntArray []int32
type LongArray []int64

// List is a homogeneous list of tags; Elem records the element kind even
// when the list is empty.
type List struct {
	Elem  Kind
	Items []Tag
}

func (Byte) Kind() Kind      { return KindByte }
func (Short) Kind() Kind     { return KindShort }
func (Int) Kind() Kind       { return KindInt }
func (Long) Kind() Kind      { return KindLong }
func (Float) Kind() Kind     { return KindFloat }
func (Double) Kind() Kind    { return KindDouble }
func (String) Kind() Kind    { return KindString }
func (ByteArray) Kind() Kind { return KindByteArray }
func (IntArray) Kind() Kind  { return KindIntArray }
func (LongArray) Kind() Kind { return KindLongArray }
func (List) Kind() Kind      { return KindList }
func (Compound) Kind() Kind  { return KindCompound }

func (Byte) tag()      {}
func (Short) tag()     {}
func (Int) tag()       {}
func (Long) tag()      {}
func (Float) tag()     {}
func (Double) tag()    {}
func (String) tag()    {}
func (ByteArray) tag() {}
func (IntArray) tag()  {}
func (LongArray) tag() {}
func (List) tag()      {}
func (Compound) tag()  {}

// Text renders a scalar tag the way blockstate conditions spell values.
// The second result is false for kinds that have no textual value.
func Text(t Tag) (string, bool) {
	switch v := t.(type) {
	case Byte:
		return strconv.FormatInt(int64(v), 10), true
	case Short:
		return strconv.FormatInt(int64(v), 10), true
	case Int:
		return strconv.FormatInt(int64(v), 10), true
	case Long:
		return strconv.FormatInt(int64(v), 10), true
	case Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case Double:
		return strconv.FormatFloat(float64(v), 'g', -1, 64), true
	case String:
		return string(v), true
	case ByteArray, IntArray, LongArray, List, Compound, nil:
		return "", false
	}
	return "", false
}
