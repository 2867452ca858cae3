package world

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"tileforge/internal/persistence/snapshot"
	"tileforge/internal/sim/world/content/garbage"
	"tileforge/internal/sim/world/logic/rng"
	"tileforge/internal/sim/world/tile"
)

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := testConfig(40)
	cfg.GarbageEnabled = true
	cfg.Garbage = garbage.Config{
		TotalQuantity:   20,
		PileRadius:      rng.Range{Lo: 2, Hi: 4},
		PerTileAmount:   rng.Range{Lo: 1, Hi: 3},
		SpawnCeiling:    1.0,
		ProbabilityStep: 0.2,
	}
	cfg.ElevationLevels = 4
	cfg.Origin = Origin{X: 3, Y: 1}

	g, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	p := filepath.Join(t.TempDir(), "world.snap.zst")
	if err := snapshot.WriteSnapshot(p, res.ExportSnapshot(cfg.Noise.Seed)); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	snap, err := snapshot.ReadSnapshot(p)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if snap.NoiseSeed != cfg.Noise.Seed {
		t.Fatalf("noise seed: got %d", snap.NoiseSeed)
	}
	got, err := ImportSnapshot(snap)
	if err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if got.ID != res.ID || got.Seed != res.Seed || got.Origin != res.Origin {
		t.Fatalf("identity mismatch: %+v", got)
	}
	if got.Report.Garbage.Placed != res.Report.Garbage.Placed {
		t.Fatalf("placed: got %d want %d", got.Report.Garbage.Placed, res.Report.Garbage.Placed)
	}
	for i := range res.Grid.Tiles {
		if got.Grid.Tiles[i] != res.Grid.Tiles[i] {
			t.Fatalf("tile %d: got %+v want %+v", i, got.Grid.Tiles[i], res.Grid.Tiles[i])
		}
	}
	if len(got.Conditions.Weathers) != len(res.Conditions.Weathers) {
		t.Fatalf("weathers: %v", got.Conditions.Weathers)
	}
}

func TestImportSnapshot_UnknownKind(t *testing.T) {
	s := snapshot.WorldV1{
		Header:     snapshot.Header{Version: snapshot.Version, Size: 1},
		Kinds:      []uint8{200},
		Contents:   []uint8{0},
		Amounts:    []uint16{0},
		Elevations: []int32{0},
	}
	if _, err := ImportSnapshot(s); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestImportSnapshot_UnknownContent(t *testing.T) {
	s := snapshot.WorldV1{
		Header:     snapshot.Header{Version: snapshot.Version, Size: 1},
		Kinds:      []uint8{uint8(tile.Grass)},
		Contents:   []uint8{uint8(tile.ContentKindCount)},
		Amounts:    []uint16{1},
		Elevations: []int32{0},
	}
	if _, err := ImportSnapshot(s); err == nil || !strings.Contains(err.Error(), "unknown content") {
		t.Fatalf("expected unknown content error, got %v", err)
	}
}
