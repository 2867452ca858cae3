package lava

import (
	"testing"

	"tileforge/internal/sim/world/logic/rng"
	"tileforge/internal/sim/world/terrain/noise"
	"tileforge/internal/sim/world/tile"
)

// slope builds a field that falls towards x = 0.
func slope(n int) noise.Field {
	f := noise.Field{N: n, Values: make([]float64, n*n)}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			f.Values[y*n+x] = float64(x) + float64(y)*0.001
		}
	}
	return f
}

func TestLowestNeighbour(t *testing.T) {
	f := slope(5)
	x, y, ok := LowestNeighbour(f, 3, 2)
	if !ok || x != 2 || y != 2 {
		t.Fatalf("got (%d,%d,%v) want (2,2,true)", x, y, ok)
	}
	// (0,0) is the global minimum.
	if _, _, ok := LowestNeighbour(f, 0, 0); ok {
		t.Fatalf("expected no lower neighbour at the minimum")
	}
}

func TestPlace_FlowsDownhillFromHighGround(t *testing.T) {
	const n = 20
	f := slope(n)
	g := tile.Filled(n, tile.Grass)
	for y := 0; y < n; y++ {
		g.At(n-1, y).Kind = tile.Mountain
		g.At(n-1, y).Content = tile.Content{Kind: tile.ContentRock, Amount: 1}
	}
	cfg := Config{SpawnPoints: 1, FlowRange: rng.Range{Lo: 5, Hi: 6}}
	converted, err := Place(g, f, cfg, rng.New(4))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if converted != 5 {
		t.Fatalf("converted %d tiles, want 5", converted)
	}
	lavaRow := -1
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			tl := g.At(x, y)
			if tl.Kind != tile.Lava {
				continue
			}
			if !tl.Content.IsNone() {
				t.Fatalf("lava at (%d,%d) kept content", x, y)
			}
			if x < n-5 {
				t.Fatalf("lava at (%d,%d) beyond flow length", x, y)
			}
			if lavaRow >= 0 && lavaRow != y {
				t.Fatalf("flow left its row: %d and %d", lavaRow, y)
			}
			lavaRow = y
		}
	}
}

func TestPlace_StopsAtWater(t *testing.T) {
	const n = 10
	f := slope(n)
	g := tile.Filled(n, tile.Grass)
	for y := 0; y < n; y++ {
		g.At(n-1, y).Kind = tile.Snow
		g.At(n-3, y).Kind = tile.ShallowWater
	}
	cfg := Config{SpawnPoints: 3, FlowRange: rng.Range{Lo: 8, Hi: 9}}
	if _, err := Place(g, f, cfg, rng.New(1)); err != nil {
		t.Fatalf("Place: %v", err)
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n-2; x++ {
			if g.At(x, y).Kind == tile.Lava {
				t.Fatalf("lava crossed water at (%d,%d)", x, y)
			}
		}
	}
}

func TestPlace_ShapeMismatch(t *testing.T) {
	_, err := Place(tile.Filled(4, tile.Grass), slope(5), Default(100), rng.New(1))
	if !tile.IsConfigError(err) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestPlace_NoSpawnPoints(t *testing.T) {
	g := tile.Filled(8, tile.Grass)
	n, err := Place(g, slope(8), Config{}, rng.New(1))
	if err != nil || n != 0 {
		t.Fatalf("got n=%d err=%v", n, err)
	}
}
