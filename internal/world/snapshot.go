package world

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"voxelexport.ai/internal/encoding"
)

const SnapshotVersion = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
}

// SnapshotV1 is the on-disk world: a JSON header line followed by the JSON
// body, zstd compressed.
type SnapshotV1 struct {
	Header  Header       `json:"header"`
	MinY    int          `json:"min_y"`
	Height  int          `json:"height"`
	Palette []BlockState `json:"palette"`
	Chunks  []ChunkV1    `json:"chunks"`
}

type ChunkV1 struct {
	CX     int    `json:"cx"`
	CZ     int    `json:"cz"`
	Blocks []byte `json:"blocks"` // RLE palette indices
	Digest string `json:"digest"`
}

// Snapshot captures the store.
func (s *Store) Snapshot(worldID string) SnapshotV1 {
	keys := s.ChunkKeys()
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SnapshotV1{
		Header:  Header{Version: SnapshotVersion, WorldID: worldID},
		MinY:    s.MinY,
		Height:  s.Height,
		Palette: append([]BlockState(nil), s.palette...),
	}
	for _, k := range keys {
		ch := s.chunks[k]
		d := ch.Digest()
		snap.Chunks = append(snap.Chunks, ChunkV1{
			CX:     k.CX,
			CZ:     k.CZ,
			Blocks: encoding.EncodeRLE(ch.Blocks),
			Digest: hex.EncodeToString(d[:]),
		})
	}
	return snap
}

// FromSnapshot rebuilds a store and verifies every chunk digest.
func FromSnapshot(snap SnapshotV1) (*Store, error) {
	if snap.Header.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	if snap.Height <= 0 {
		return nil, fmt.Errorf("snapshot height %d", snap.Height)
	}
	if len(snap.Palette) == 0 || !snap.Palette[0].IsAir() {
		return nil, errors.New("snapshot palette must start with air")
	}
	s := NewStore(snap.MinY, snap.Height)
	s.palette = s.palette[:0]
	for k := range s.index {
		delete(s.index, k)
	}
	for _, b := range snap.Palette {
		s.palette = append(s.palette, b)
		s.index[stateKey(b)] = uint16(len(s.palette) - 1)
	}
	for _, c := range snap.Chunks {
		ch := s.chunkLocked(c.CX, c.CZ)
		if err := encoding.DecodeRLE(ch.Blocks, c.Blocks, len(s.palette)-1); err != nil {
			return nil, fmt.Errorf("chunk %d,%d: %w", c.CX, c.CZ, err)
		}
		ch.dirty = true
		d := ch.Digest()
		if c.Digest != "" && c.Digest != hex.EncodeToString(d[:]) {
			return nil, fmt.Errorf("chunk %d,%d: digest mismatch", c.CX, c.CZ)
		}
	}
	return s, nil
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if h.Version != SnapshotVersion {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	return snap, nil
}

// Load reads a snapshot file into a store.
func Load(path string) (*Store, error) {
	snap, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(snap)
}
