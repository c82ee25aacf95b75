// Package connect answers miex_connect_* condition keys by looking at the
// block next to the one being exported.
//
// A key names a direction: miex_connect_north, miex_connect_up, ... The
// expected value is an optional "!" followed by "|"-separated alternatives:
//
//	true   the neighbour is not air
//	false  the neighbour is air
//	self   the neighbour is the same block type
//	<name> the neighbour is that block (namespace defaults to minecraft)
package connect

import (
	"strings"

	"voxelexport.ai/internal/blockstate"
)

const Air = "minecraft:air"

// BlockSource reports the block name at a position. Missing blocks are air.
type BlockSource interface {
	BlockName(x, y, z int) string
}

var offsets = map[string][3]int{
	"north": {0, 0, -1},
	"south": {0, 0, 1},
	"west":  {-1, 0, 0},
	"east":  {1, 0, 0},
	"down":  {0, -1, 0},
	"up":    {0, 1, 0},
}

// Tester implements blockstate.NeighborTester over a BlockSource. Without
// a World every neighbour is air.
type Tester struct {
	World BlockSource
}

var _ blockstate.NeighborTester = Tester{}

// Offset resolves a connection key to its neighbour offset.
func Offset(key string) ([3]int, bool) {
	dir := strings.TrimPrefix(key, blockstate.ConnectPrefix)
	dir = strings.TrimPrefix(dir, "_")
	off, ok := offsets[dir]
	return off, ok
}

func (t Tester) TestConnection(key, expected string, x, y, z int) bool {
	off, ok := Offset(key)
	if !ok {
		return false
	}
	neighbour := Air
	if t.World != nil {
		neighbour = t.World.BlockName(x+off[0], y+off[1], z+off[2])
	}

	negate := strings.HasPrefix(expected, "!")
	if negate {
		expected = expected[1:]
	}
	matched := false
	for _, alt := range strings.Split(expected, "|") {
		if t.matches(alt, neighbour, x, y, z) {
			matched = true
			break
		}
	}
	return matched != negate
}

func (t Tester) matches(alt, neighbour string, x, y, z int) bool {
	switch alt {
	case "":
		return false
	case "true":
		return neighbour != Air
	case "false":
		return neighbour == Air
	case "self":
		if t.World == nil {
			return false
		}
		return neighbour == t.World.BlockName(x, y, z)
	}
	return neighbour == QualifiedName(alt)
}

// QualifiedName adds the minecraft namespace to bare block names.
func QualifiedName(name string) string {
	if name == "" || strings.Contains(name, ":") {
		return name
	}
	return "minecraft:" + name
}
