package encoding

import (
	"testing"

	"tileforge/internal/sim/world/tile"
)

func TestRow_RoundTrip(t *testing.T) {
	var in []tile.Tile
	for i := 0; i < 50; i++ {
		in = append(in, tile.Tile{Kind: tile.Grass})
	}
	in = append(in,
		tile.Tile{Kind: tile.Sand, Content: tile.Garbage(20)},
		tile.Tile{Kind: tile.Sand, Content: tile.Garbage(20)},
		tile.Tile{Kind: tile.Lava},
		tile.Tile{Kind: tile.Hill, Content: tile.Content{Kind: tile.ContentTree, Amount: 5}},
	)

	enc, err := EncodeRow(in)
	if err != nil {
		t.Fatalf("EncodeRow: %v", err)
	}
	out, err := DecodeRow(enc)
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, out[i], in[i])
		}
	}
}

func TestPackCell_Range(t *testing.T) {
	if _, err := PackCell(tile.Tile{Kind: tile.Grass, Content: tile.Garbage(-1)}); err == nil {
		t.Fatalf("expected negative amount rejected")
	}
	if _, err := PackCell(tile.Tile{Kind: tile.Grass, Content: tile.Garbage(maxAmount + 1)}); err == nil {
		t.Fatalf("expected oversized amount rejected")
	}
	v, err := PackCell(tile.Tile{Kind: tile.Snow, Content: tile.Content{Kind: tile.ContentRock, Amount: 4}})
	if err != nil {
		t.Fatalf("PackCell: %v", err)
	}
	if got := UnpackCell(v); got.Kind != tile.Snow || got.Content.Kind != tile.ContentRock || got.Content.Amount != 4 {
		t.Fatalf("UnpackCell: %+v", got)
	}
}

func TestDecodeRow_Bad(t *testing.T) {
	if _, err := DecodeRow("!!"); err == nil {
		t.Fatalf("expected base64 error")
	}
	if _, err := DecodeRow("gA=="); err == nil {
		t.Fatalf("expected truncated varint error")
	}
}
