// Package encoding packs chunk palette indices for snapshots.
package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes palette indices as varint pairs (index, run_len).
// The result is raw bytes; JSON snapshots carry it as base64.
func EncodeRLE(ids []uint16) []byte {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(ids); {
		b := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == b; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(b))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}
	return buf.Bytes()
}

// DecodeRLE fills dst from raw and fails unless the runs cover dst exactly.
// maxID bounds the palette index so a corrupt stream cannot address past
// the palette.
func DecodeRLE(dst []uint16, raw []byte, maxID int) error {
	pos := 0
	for i := 0; i < len(raw); {
		b, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if b > uint64(maxID) {
			return fmt.Errorf("palette index %d out of range (max %d)", b, maxID)
		}
		if run == 0 || run > uint64(len(dst)-pos) {
			return fmt.Errorf("run of %d at offset %d overflows %d cells", run, pos, len(dst))
		}
		for k := uint64(0); k < run; k++ {
			dst[pos] = uint16(b)
			pos++
		}
	}
	if pos != len(dst) {
		return fmt.Errorf("decoded %d cells, want %d", pos, len(dst))
	}
	return nil
}
