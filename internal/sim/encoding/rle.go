package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"tileforge/internal/sim/world/tile"
)

// Packed cell layout: bits 0-2 terrain kind, 3-4 content kind, 5-15 amount.
const (
	kindBits    = 3
	contentBits = 2
	maxAmount   = 1<<(16-kindBits-contentBits) - 1
)

func PackCell(t tile.Tile) (uint16, error) {
	if int(t.Kind) >= 1<<kindBits || int(t.Content.Kind) >= 1<<contentBits {
		return 0, fmt.Errorf("cell kind %d/%d out of range", t.Kind, t.Content.Kind)
	}
	if t.Content.Amount < 0 || t.Content.Amount > maxAmount {
		return 0, fmt.Errorf("cell amount %d out of range", t.Content.Amount)
	}
	return uint16(t.Kind) | uint16(t.Content.Kind)<<kindBits | uint16(t.Content.Amount)<<(kindBits+contentBits), nil
}

func UnpackCell(v uint16) tile.Tile {
	return tile.Tile{
		Kind: tile.TerrainKind(v & (1<<kindBits - 1)),
		Content: tile.Content{
			Kind:   tile.ContentKind(v >> kindBits & (1<<contentBits - 1)),
			Amount: int(v >> (kindBits + contentBits)),
		},
	}
}

// EncodeRow packs a row of tiles and run-length encodes it as
// base64(varint(cell), varint(run)...). Elevation is not carried.
func EncodeRow(row []tile.Tile) (string, error) {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(row); {
		v, err := PackCell(row[i])
		if err != nil {
			return "", fmt.Errorf("x=%d: %w", i, err)
		}
		run := 1
		for j := i + 1; j < len(row); j++ {
			w, err := PackCell(row[j])
			if err != nil || w != v {
				break
			}
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func DecodeRow(b64 string) ([]tile.Tile, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []tile.Tile
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 0xFFFF {
			return nil, fmt.Errorf("cell too large: %d", v)
		}
		t := UnpackCell(uint16(v))
		for k := uint64(0); k < run; k++ {
			out = append(out, t)
		}
	}
	return out, nil
}
