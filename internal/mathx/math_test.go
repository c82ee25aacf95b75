package mathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDivAndMod_NegativeCoordinates(t *testing.T) {
	cases := []struct {
		a, b         int
		wantQ, wantM int
	}{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, c := range cases {
		assert.Equal(t, c.wantQ, FloorDiv(c.a, c.b), "FloorDiv(%d,%d)", c.a, c.b)
		assert.Equal(t, c.wantM, Mod(c.a, c.b), "Mod(%d,%d)", c.a, c.b)
	}
}

func TestHash3_StableAndPositionSensitive(t *testing.T) {
	a := Hash3(42, 1, 64, -3)
	assert.Equal(t, a, Hash3(42, 1, 64, -3))
	assert.NotEqual(t, a, Hash3(42, 1, 65, -3))
	assert.NotEqual(t, a, Hash3(43, 1, 64, -3))
}
