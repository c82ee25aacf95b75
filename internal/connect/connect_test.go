package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeWorld map[[3]int]string

func (w fakeWorld) BlockName(x, y, z int) string {
	if n, ok := w[[3]int{x, y, z}]; ok {
		return n
	}
	return Air
}

func TestTester_Directions(t *testing.T) {
	w := fakeWorld{
		{0, 0, 0}:  "minecraft:oak_fence",
		{0, 0, -1}: "minecraft:oak_fence",
		{1, 0, 0}:  "minecraft:stone",
		{0, 1, 0}:  "minecraft:torch",
	}
	tr := Tester{World: w}

	assert.True(t, tr.TestConnection("miex_connect_north", "self", 0, 0, 0))
	assert.False(t, tr.TestConnection("miex_connect_south", "self", 0, 0, 0))
	assert.True(t, tr.TestConnection("miex_connect_east", "stone", 0, 0, 0))
	assert.True(t, tr.TestConnection("miex_connect_east", "minecraft:stone", 0, 0, 0))
	assert.True(t, tr.TestConnection("miex_connect_up", "true", 0, 0, 0))
	assert.True(t, tr.TestConnection("miex_connect_down", "false", 0, 0, 0))
	assert.False(t, tr.TestConnection("miex_connect_west", "true", 0, 0, 0))
}

func TestTester_AlternativesAndNegation(t *testing.T) {
	w := fakeWorld{{1, 0, 0}: "minecraft:glass"}
	tr := Tester{World: w}

	assert.True(t, tr.TestConnection("miex_connect_east", "stone|glass", 0, 0, 0))
	assert.False(t, tr.TestConnection("miex_connect_east", "!stone|glass", 0, 0, 0))
	assert.True(t, tr.TestConnection("miex_connect_west", "!true", 0, 0, 0))
	assert.False(t, tr.TestConnection("miex_connect_east", "", 0, 0, 0))
}

func TestTester_UnknownDirectionFails(t *testing.T) {
	tr := Tester{World: fakeWorld{}}
	assert.False(t, tr.TestConnection("miex_connect_sideways", "false", 0, 0, 0))
	assert.False(t, tr.TestConnection("miex_connect", "false", 0, 0, 0))
	assert.False(t, Tester{}.TestConnection("miex_connect_sideways", "false", 0, 0, 0))
}

func TestTester_NoWorldIsAllAir(t *testing.T) {
	tr := Tester{}
	assert.True(t, tr.TestConnection("miex_connect_up", "false", 0, 0, 0))
	assert.True(t, tr.TestConnection("miex_connect_north", "!stone", 0, 0, 0))
	assert.True(t, tr.TestConnection("miex_connect_north", "air", 0, 0, 0))
	assert.False(t, tr.TestConnection("miex_connect_north", "true", 0, 0, 0))
	assert.False(t, tr.TestConnection("miex_connect_north", "self", 0, 0, 0))
	assert.True(t, tr.TestConnection("miex_connect_north", "!self", 0, 0, 0))
}

func TestOffset(t *testing.T) {
	off, ok := Offset("miex_connect_north")
	assert.True(t, ok)
	assert.Equal(t, [3]int{0, 0, -1}, off)
}
