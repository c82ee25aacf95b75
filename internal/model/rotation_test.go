package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRotation_AcceptsDegreesAndQuarterTurns(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: 0, want: 0},
		{in: 1, want: 1},
		{in: 3, want: 3},
		{in: 4, want: 0},
		{in: -1, want: 3},
		{in: 90, want: 1},
		{in: 180, want: 2},
		{in: 270, want: 3},
		{in: 360, want: 0},
		{in: -90, want: 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeRotation(c.in), "NormalizeRotation(%d)", c.in)
	}
}

// slab returns a bottom half slab with one face per direction, each face
// textured with its own direction name.
func slab() *Model {
	m := New("test:slab")
	e := Element{From: [3]float64{0, 0, 0}, To: [3]float64{16, 8, 16}, Shade: true, Faces: map[Direction]Face{}}
	for _, d := range Directions {
		cull := d
		e.Faces[d] = Face{UV: DefaultUV(d, e.From, e.To), Texture: d.String(), CullFace: &cull, TintIndex: -1}
	}
	m.Elements = []Element{e}
	return m
}

func TestRotate_YQuarterTurnMovesNorthToEast(t *testing.T) {
	m := New("test:stair")
	m.Elements = []Element{{
		From:  [3]float64{0, 0, 0},
		To:    [3]float64{16, 16, 8}, // north half
		Faces: map[Direction]Face{North: {Texture: "front", TintIndex: -1}},
	}}
	m.Rotate(0, 90, false)

	e := m.Elements[0]
	assert.Equal(t, [3]float64{8, 0, 0}, e.From)
	assert.Equal(t, [3]float64{16, 16, 16}, e.To)
	require.Contains(t, e.Faces, East)
	assert.Equal(t, "front", e.Faces[East].Texture)
}

func TestRotate_XQuarterTurnMovesUpToNorth(t *testing.T) {
	m := slab()
	m.Rotate(90, 0, false)

	e := m.Elements[0]
	// The bottom half becomes the south half.
	assert.Equal(t, [3]float64{0, 0, 8}, e.From)
	assert.Equal(t, [3]float64{16, 16, 16}, e.To)
	assert.Equal(t, "up", e.Faces[North].Texture)
	assert.Equal(t, "north", e.Faces[Down].Texture)
	assert.Equal(t, "down", e.Faces[South].Texture)
	assert.Equal(t, "east", e.Faces[East].Texture)
	assert.Equal(t, North, *e.Faces[North].CullFace)
}

func TestRotate_XThenY(t *testing.T) {
	m := slab()
	m.Rotate(90, 180, true)

	e := m.Elements[0]
	// x=90 sends the slab south, y=180 then sends it north.
	assert.Equal(t, [3]float64{0, 0, 0}, e.From)
	assert.Equal(t, [3]float64{16, 16, 8}, e.To)
	assert.Equal(t, "up", e.Faces[South].Texture)
	assert.Equal(t, "down", e.Faces[North].Texture)
	assert.Equal(t, "east", e.Faces[West].Texture)
}

func TestRotate_UVLockRecomputesUVs(t *testing.T) {
	locked := slab()
	locked.Rotate(90, 0, true)
	free := slab()
	free.Rotate(90, 0, false)

	// The old up face (full 16x16 UV) now faces north over a half-depth box.
	assert.Equal(t, [4]float64{0, 0, 16, 16}, free.Elements[0].Faces[North].UV)
	assert.Equal(t, DefaultUV(North, locked.Elements[0].From, locked.Elements[0].To), locked.Elements[0].Faces[North].UV)
	assert.Equal(t, [4]float64{0, 0, 16, 16}, locked.Elements[0].Faces[North].UV)
	// The west side keeps its plane but uvlock re-projects it.
	assert.Equal(t, [4]float64{8, 0, 16, 16}, locked.Elements[0].Faces[West].UV)
}

func TestRotate_ElementTiltFollowsAxis(t *testing.T) {
	m := New("test:tilt")
	m.Elements = []Element{{
		From:     [3]float64{4, 0, 4},
		To:       [3]float64{12, 16, 12},
		Rotation: &ElementRotation{Origin: [3]float64{8, 8, 8}, Axis: 'x', Angle: 22.5},
		Faces:    map[Direction]Face{},
	}}
	m.Rotate(0, 90, false)

	r := m.Elements[0].Rotation
	require.NotNil(t, r)
	assert.Equal(t, byte('z'), r.Axis)
	assert.Equal(t, 22.5, r.Angle)

	m2 := New("test:tilt2")
	m2.Elements = []Element{{Rotation: &ElementRotation{Origin: [3]float64{8, 8, 8}, Axis: 'z', Angle: 45}, Faces: map[Direction]Face{}}}
	m2.Rotate(0, 90, false)
	assert.Equal(t, byte('x'), m2.Elements[0].Rotation.Axis)
	assert.Equal(t, -45.0, m2.Elements[0].Rotation.Angle)
}

func TestRotate_ZeroIsNoop(t *testing.T) {
	m := slab()
	before := m.Clone()
	m.Rotate(0, 360, true)
	assert.Equal(t, before, m)
}
