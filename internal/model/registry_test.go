package model

import (
	"sync"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPack() fstest.MapFS {
	return fstest.MapFS{
		"assets/minecraft/models/block/cube.json": {Data: []byte(`{
			"parent": "block/block",
			"elements": [{
				"from": [0, 0, 0], "to": [16, 16, 16],
				"faces": {
					"down":  {"texture": "#down", "cullface": "down"},
					"up":    {"texture": "#up", "cullface": "up"},
					"north": {"texture": "#north", "cullface": "north"},
					"south": {"texture": "#south", "cullface": "south"},
					"west":  {"texture": "#west", "cullface": "west"},
					"east":  {"texture": "#east", "cullface": "east", "tintindex": 0}
				}
			}]
		}`)},
		"assets/minecraft/models/block/block.json": {Data: []byte(`{"ambientocclusion": true, "textures": {"particle": "#side"}}`)},
		"assets/minecraft/models/block/cube_all.json": {Data: []byte(`{
			"parent": "block/cube",
			"textures": {"down": "#all", "up": "#all", "north": "#all", "south": "#all", "west": "#all", "east": "#all"}
		}`)},
		"assets/minecraft/models/block/stone.json": {Data: []byte(`{"parent": "minecraft:block/cube_all", "textures": {"all": "minecraft:block/stone"}}`)},
		"assets/minecraft/models/block/glass_pane_post.json": {Data: []byte(`{
			"ambientocclusion": false,
			"textures": {"pane": "block/glass"},
			"elements": [{"from": [7, 0, 7], "to": [9, 16, 9], "shade": false,
				"faces": {"north": {"uv": [7, 0, 9, 16], "texture": "#pane"}}}]
		}`)},
		"assets/minecraft/models/block/loop_a.json": {Data: []byte(`{"parent": "block/loop_b"}`)},
		"assets/minecraft/models/block/loop_b.json": {Data: []byte(`{"parent": "block/loop_a"}`)},
		"assets/minecraft/models/item/flat.json":    {Data: []byte(`{"parent": "builtin/generated", "textures": {"layer0": "item/flat"}}`)},
	}
}

func TestRegistry_ResolvesParentsAndTextures(t *testing.T) {
	r := NewRegistry(testPack(), zerolog.Nop())

	id, err := r.IDForName("block/stone", false)
	require.NoError(t, err)
	m, err := r.Model(id)
	require.NoError(t, err)

	require.Len(t, m.Elements, 1)
	e := m.Elements[0]
	assert.Len(t, e.Faces, 6)
	assert.Equal(t, "minecraft:block/stone", e.Faces[Up].Texture)
	assert.Equal(t, [4]float64{0, 0, 16, 16}, e.Faces[Up].UV)
	assert.Equal(t, 0, e.Faces[East].TintIndex)
	assert.Equal(t, -1, e.Faces[West].TintIndex)
	assert.Equal(t, Down, *e.Faces[Down].CullFace)
	assert.True(t, m.AmbientOcclusion)
	assert.Equal(t, 1, m.Weight)
}

func TestRegistry_InternsByNameAndSidedness(t *testing.T) {
	r := NewRegistry(testPack(), zerolog.Nop())

	a, err := r.IDForName("block/stone", false)
	require.NoError(t, err)
	b, err := r.IDForName("minecraft:block/stone", false)
	require.NoError(t, err)
	c, err := r.IDForName("block/stone", true)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	mc, _ := r.Model(c)
	assert.True(t, mc.DoubleSided)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_ExplicitUVAndShade(t *testing.T) {
	r := NewRegistry(testPack(), zerolog.Nop())
	id, err := r.IDForName("block/glass_pane_post", false)
	require.NoError(t, err)
	m, _ := r.Model(id)

	assert.False(t, m.AmbientOcclusion)
	assert.False(t, m.Elements[0].Shade)
	assert.Equal(t, [4]float64{7, 0, 9, 16}, m.Elements[0].Faces[North].UV)
	assert.Equal(t, "block/glass", m.Elements[0].Faces[North].Texture)
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry(testPack(), zerolog.Nop())

	_, err := r.IDForName("block/missing", false)
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = r.IDForName("block/loop_a", false)
	assert.ErrorContains(t, err, "too deep")

	_, err = r.Model(99)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRegistry_BuiltinParentStopsChain(t *testing.T) {
	r := NewRegistry(testPack(), zerolog.Nop())
	id, err := r.IDForName("item/flat", false)
	require.NoError(t, err)
	m, _ := r.Model(id)
	assert.Empty(t, m.Elements)
	assert.Equal(t, "item/flat", m.Textures["layer0"])
}

func TestRegistry_CopyIsIndependent(t *testing.T) {
	r := NewRegistry(testPack(), zerolog.Nop())
	id, err := r.IDForName("block/stone", false)
	require.NoError(t, err)

	cp, err := r.Copy(id)
	require.NoError(t, err)
	cp.Rotate(90, 90, true)
	cp.Textures["all"] = "changed"
	cp.SetWeight(5)

	base, _ := r.Model(id)
	fresh, _ := r.Copy(id)
	assert.Equal(t, base, fresh)
	assert.Equal(t, "minecraft:block/stone", base.Textures["all"])
	assert.Equal(t, 1, base.Weight)
	assert.Equal(t, Down, *base.Elements[0].Faces[Down].CullFace)
}

func TestRegistry_RegisterWithoutFS(t *testing.T) {
	r := NewRegistry(nil, zerolog.Nop())
	id := r.Register("test:post", false, slab())
	again := r.Register("test:post", false, New("other"))
	assert.Equal(t, id, again)

	got, err := r.IDForName("test:post", false)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = r.IDForName("test:other", false)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	r := NewRegistry(testPack(), zerolog.Nop())
	var wg sync.WaitGroup
	ids := make([]ID, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.IDForName("block/stone", i%2 == 0)
			if err == nil {
				ids[i] = id
			}
		}(i)
	}
	wg.Wait()
	for i := 2; i < len(ids); i++ {
		assert.Equal(t, ids[i%2], ids[i])
	}
	assert.Equal(t, 2, r.Len())
}

func TestModel_SetWeightClamps(t *testing.T) {
	m := New("x")
	m.SetWeight(0)
	assert.Equal(t, 1, m.Weight)
	m.SetWeight(7)
	assert.Equal(t, 7, m.Weight)
}
