// Package world stores placed blocks for export: a palette of block states
// and 16x16 chunk columns of palette indices.
package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"voxelexport.ai/internal/connect"
	"voxelexport.ai/internal/mathx"
	"voxelexport.ai/internal/nbt"
)

const ChunkSize = 16

// BlockState is a block name plus its property tags.
type BlockState struct {
	Name  string       `json:"name"`
	Props nbt.Compound `json:"properties"`
}

var AirState = BlockState{Name: connect.Air}

func (b BlockState) IsAir() bool { return b.Name == connect.Air || b.Name == "" }

type ChunkKey struct {
	CX int
	CZ int
}

type Chunk struct {
	CX, CZ int
	// Blocks is indexed x + z*16 + (y-minY)*256.
	Blocks []uint16

	dirty bool
	hash  [32]byte
}

func index(lx, ly, lz int) int {
	return lx + lz*ChunkSize + ly*ChunkSize*ChunkSize
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// Store is safe for concurrent readers; writers take an exclusive lock.
type Store struct {
	MinY   int
	Height int

	mu      sync.RWMutex
	palette []BlockState
	index   map[string]uint16
	chunks  map[ChunkKey]*Chunk
}

func NewStore(minY, height int) *Store {
	s := &Store{
		MinY:   minY,
		Height: height,
		index:  map[string]uint16{},
		chunks: map[ChunkKey]*Chunk{},
	}
	s.internLocked(AirState)
	return s
}

func stateKey(b BlockState) string {
	props, _ := json.Marshal(b.Props)
	return b.Name + string(props)
}

func (s *Store) internLocked(b BlockState) (uint16, error) {
	k := stateKey(b)
	if id, ok := s.index[k]; ok {
		return id, nil
	}
	if len(s.palette) > 0xFFFF {
		return 0, fmt.Errorf("palette full")
	}
	id := uint16(len(s.palette))
	s.palette = append(s.palette, b)
	s.index[k] = id
	return id, nil
}

func (s *Store) InBounds(y int) bool {
	return y >= s.MinY && y < s.MinY+s.Height
}

func (s *Store) SetBlock(x, y, z int, b BlockState) error {
	if !s.InBounds(y) {
		return fmt.Errorf("y=%d outside [%d,%d)", y, s.MinY, s.MinY+s.Height)
	}
	b.Name = connect.QualifiedName(b.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.internLocked(b)
	if err != nil {
		return err
	}
	ch := s.chunkLocked(mathx.FloorDiv(x, ChunkSize), mathx.FloorDiv(z, ChunkSize))
	i := index(mathx.Mod(x, ChunkSize), y-s.MinY, mathx.Mod(z, ChunkSize))
	if ch.Blocks[i] != id {
		ch.Blocks[i] = id
		ch.dirty = true
	}
	return nil
}

func (s *Store) chunkLocked(cx, cz int) *Chunk {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.chunks[k]; ok {
		return ch
	}
	ch := &Chunk{CX: cx, CZ: cz, Blocks: make([]uint16, ChunkSize*ChunkSize*s.Height)}
	s.chunks[k] = ch
	return ch
}

// Block returns the state at a position; unloaded or out of range cells
// are air.
func (s *Store) Block(x, y, z int) BlockState {
	if !s.InBounds(y) {
		return AirState
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.chunks[ChunkKey{CX: mathx.FloorDiv(x, ChunkSize), CZ: mathx.FloorDiv(z, ChunkSize)}]
	if !ok {
		return AirState
	}
	return s.palette[ch.Blocks[index(mathx.Mod(x, ChunkSize), y-s.MinY, mathx.Mod(z, ChunkSize))]]
}

// BlockName implements connect.BlockSource.
func (s *Store) BlockName(x, y, z int) string {
	return s.Block(x, y, z).Name
}

func (s *Store) ChunkKeys() []ChunkKey {
	s.mu.RLock()
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// PlacedBlock is one non-air cell.
type PlacedBlock struct {
	X, Y, Z int
	State   BlockState
}

// ChunkBlocks lists the non-air blocks of a chunk in y, z, x order.
func (s *Store) ChunkBlocks(k ChunkKey) []PlacedBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.chunks[k]
	if !ok {
		return nil
	}
	var out []PlacedBlock
	for i, id := range ch.Blocks {
		if id == 0 {
			continue
		}
		st := s.palette[id]
		if st.IsAir() {
			continue
		}
		ly := i / (ChunkSize * ChunkSize)
		lz := (i / ChunkSize) % ChunkSize
		lx := i % ChunkSize
		out = append(out, PlacedBlock{
			X:     k.CX*ChunkSize + lx,
			Y:     s.MinY + ly,
			Z:     k.CZ*ChunkSize + lz,
			State: st,
		})
	}
	return out
}

// Palette returns a copy of the interned states.
func (s *Store) Palette() []BlockState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BlockState, len(s.palette))
	copy(out, s.palette)
	return out
}
