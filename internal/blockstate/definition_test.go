package blockstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelexport.ai/internal/nbt"
)

const slabDefinition = `{
  "variants": {
    "type=bottom": {"model": "block/slab"},
    "type=top": {"model": "block/slab_top"},
    "type=double": [
      {"model": "block/slab", "weight": 2},
      {"model": "block/slab_top", "x": 180}
    ]
  }
}`

func TestLoadDefinition_SortedPartsAndMatch(t *testing.T) {
	d, err := LoadDefinition("minecraft:stone_slab", []byte(slabDefinition), false, Deps{Models: testModels()})
	require.NoError(t, err)

	assert.Equal(t, []string{"type=bottom", "type=double", "type=top"}, d.Conditions())
	assert.False(t, d.NeedsConnectionInfo())

	top := d.Match(nbt.NewCompound(nbt.N("type", nbt.String("top"))), 0, 0, 0)
	require.Len(t, top, 1)

	double := d.Match(nbt.NewCompound(nbt.N("type", nbt.String("double"))), 0, 0, 0)
	require.Len(t, double, 2)
	assert.Equal(t, 2, double[0].Weight)
	assert.Equal(t, 180, double[1].RotX)

	// No type property: every clause is vacuously true.
	all := d.Match(nbt.Compound{}, 0, 0, 0)
	assert.Len(t, all, 4)
}

func TestLoadDefinition_ConnectionFlagAggregates(t *testing.T) {
	doc := `{"variants": {"": {"model": "block/slab"}, "miex_connect_up=false": {"model": "block/slab_top"}}}`
	nb := NeighborFunc(func(string, string, int, int, int) bool { return false })
	d, err := LoadDefinition("test:post", []byte(doc), false, Deps{Models: testModels(), Neighbors: nb})
	require.NoError(t, err)
	assert.True(t, d.NeedsConnectionInfo())
	assert.Len(t, d.Match(nbt.Compound{}, 0, 0, 0), 1)
	assert.Contains(t, d.String(), "test:post[")
}

func TestLoadDefinition_SchemaErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"neither form", `{"textures": {}}`},
		{"missing model", `{"variants": {"": {"x": 90}}}`},
		{"model in list missing", `{"variants": {"": [{"model": "block/slab"}, {"uvlock": true}]}}`},
		{"rotation not integer", `{"variants": {"": {"model": "block/slab", "y": 22.5}}}`},
		{"uvlock not bool", `{"variants": {"": {"model": "block/slab", "uvlock": "yes"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadDefinition("x", []byte(tc.doc), false, Deps{Models: testModels()})
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestLoadDefinition_MultipartUnsupported(t *testing.T) {
	doc := `{"multipart": [{"apply": {"model": "block/slab"}}]}`
	_, err := LoadDefinition("x", []byte(doc), false, Deps{Models: testModels()})
	assert.ErrorIs(t, err, ErrUnsupportedForm)
}

func TestLoadDefinition_UnresolvableModelIsFatal(t *testing.T) {
	doc := `{"variants": {"facing=north": {"model": "block/missing"}}}`
	_, err := LoadDefinition("x", []byte(doc), false, Deps{Models: testModels()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `variant "facing=north"`)
}

func TestValidate_AcceptsMinimalDocument(t *testing.T) {
	assert.NoError(t, Validate([]byte(`{"variants": {}}`)))
	assert.NoError(t, Validate([]byte(slabDefinition)))
}
