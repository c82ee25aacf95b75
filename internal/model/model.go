// Package model holds block geometry as declared by resource-pack model
// files: axis-aligned elements with per-direction faces, in the 0..16 model
// space. Models handed out by a Registry are shared; callers that transform
// geometry work on a Clone.
package model

import "fmt"

// ID identifies an interned (name, double-sided) model in a Registry.
// Zero is never assigned.
type ID int32

type Direction uint8

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

var directionNames = [...]string{"down", "up", "north", "south", "west", "east"}

// Directions lists every direction in declaration order.
var Directions = [...]Direction{Down, Up, North, South, West, East}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", d)
}

// ParseDirection accepts the resource-pack spelling. "bottom" is an old
// alias of "down".
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "down", "bottom":
		return Down, true
	case "up":
		return Up, true
	case "north":
		return North, true
	case "south":
		return South, true
	case "west":
		return West, true
	case "east":
		return East, true
	}
	return 0, false
}

// Vec is the unit normal of the direction. North is -Z, east is +X.
func (d Direction) Vec() [3]int {
	switch d {
	case Down:
		return [3]int{0, -1, 0}
	case Up:
		return [3]int{0, 1, 0}
	case North:
		return [3]int{0, 0, -1}
	case South:
		return [3]int{0, 0, 1}
	case West:
		return [3]int{-1, 0, 0}
	default:
		return [3]int{1, 0, 0}
	}
}

func directionFromVec(v [3]int) Direction {
	for _, d := range Directions {
		if d.Vec() == v {
			return d
		}
	}
	panic(fmt.Sprintf("model: not a unit axis vector: %v", v))
}

// Face is one textured side of an element.
type Face struct {
	UV       [4]float64
	Texture  string
	CullFace *Direction
	Rotation int
	// TintIndex is -1 when the face is not tinted.
	TintIndex int
}

// ElementRotation is the single-axis tilt an element may carry.
type ElementRotation struct {
	Origin  [3]float64
	Axis    byte // 'x', 'y' or 'z'
	Angle   float64
	Rescale bool
}

type Element struct {
	From     [3]float64
	To       [3]float64
	Rotation *ElementRotation
	Shade    bool
	Faces    map[Direction]Face
}

type Model struct {
	Name             string
	DoubleSided      bool
	AmbientOcclusion bool
	Textures         map[string]string
	Elements         []Element
	// Weight is the selection weight of this geometry when it is one of
	// several candidates. Always >= 1.
	Weight int
}

// New returns an empty model with the defaults a parsed model starts from.
func New(name string) *Model {
	return &Model{
		Name:             name,
		AmbientOcclusion: true,
		Textures:         map[string]string{},
		Weight:           1,
	}
}

// SetWeight clamps w to at least 1.
func (m *Model) SetWeight(w int) {
	if w < 1 {
		w = 1
	}
	m.Weight = w
}

// Clone returns a deep copy that shares no mutable state with m.
func (m *Model) Clone() *Model {
	out := *m
	out.Textures = make(map[string]string, len(m.Textures))
	for k, v := range m.Textures {
		out.Textures[k] = v
	}
	out.Elements = make([]Element, len(m.Elements))
	for i, e := range m.Elements {
		out.Elements[i] = e.clone()
	}
	return &out
}

func (e Element) clone() Element {
	out := e
	if e.Rotation != nil {
		r := *e.Rotation
		out.Rotation = &r
	}
	out.Faces = make(map[Direction]Face, len(e.Faces))
	for d, f := range e.Faces {
		if f.CullFace != nil {
			c := *f.CullFace
			f.CullFace = &c
		}
		out.Faces[d] = f
	}
	return out
}

// FaceCount is the number of faces over all elements.
func (m *Model) FaceCount() int {
	n := 0
	for _, e := range m.Elements {
		n += len(e.Faces)
	}
	return n
}
