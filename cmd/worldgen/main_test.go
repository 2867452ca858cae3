package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tileforge/internal/persistence/indexdb"
	persistlog "tileforge/internal/persistence/log"
	"tileforge/internal/persistence/snapshot"
)

const smallTuning = `
world_size: 120
lava:
  spawn_points: 2
  flow_range: {lo: 5, hi: 20}
garbage:
  total_quantity: 40
  pile_radius: {lo: 2, hi: 5}
  per_tile_amount: {lo: 1, hi: 4}
  max_passes: 100000
`

func TestRun_WritesArtifacts(t *testing.T) {
	dataDir := t.TempDir()
	tp := filepath.Join(dataDir, "tuning.yaml")
	if err := os.WriteFile(tp, []byte(smallTuning), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}
	opts := options{
		TuningPath: tp,
		WorldID:    "small",
		Seed:       3,
		DataDir:    dataDir,
	}
	logger := log.New(io.Discard, "", 0)

	res, err := run(context.Background(), opts, logger)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ID != "small" || res.Seed != 3 || res.Grid.N != 120 {
		t.Fatalf("result: id=%s seed=%d n=%d", res.ID, res.Seed, res.Grid.N)
	}

	snapPath := filepath.Join(dataDir, "worlds", "small", "world.snap.zst")
	snap, err := snapshot.ReadSnapshot(snapPath)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if snap.Header.WorldID != "small" || snap.Header.Size != 120 {
		t.Fatalf("header: %+v", snap.Header)
	}
	stored, err := loadStored(snapPath, logger)
	if err != nil {
		t.Fatalf("loadStored: %v", err)
	}
	if stored.ID != "small" || stored.Grid.N != 120 || stored.Report.Garbage.Placed != res.Report.Garbage.Placed {
		t.Fatalf("stored result: id=%s n=%d placed=%d", stored.ID, stored.Grid.N, stored.Report.Garbage.Placed)
	}

	events, _ := filepath.Glob(filepath.Join(dataDir, "worlds", "small", "events", "stages-*.jsonl.zst"))
	if len(events) != 1 {
		t.Fatalf("stage logs: %v", events)
	}
	stageEntries, err := persistlog.ReadStages(events[0])
	if err != nil {
		t.Fatalf("ReadStages: %v", err)
	}
	if len(stageEntries) < 4 || stageEntries[0].Stage != "noise_map" || stageEntries[0].WorldID != "small" {
		t.Fatalf("stage entries: %+v", stageEntries)
	}

	// A second run archives the first snapshot.
	if _, err := run(context.Background(), opts, logger); err != nil {
		t.Fatalf("second run: %v", err)
	}
	archived, _ := filepath.Glob(filepath.Join(dataDir, "worlds", "small", "archives", "3-*", "world.snap.zst"))
	if len(archived) != 1 {
		t.Fatalf("archived snapshots: %v", archived)
	}

	idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "worlds.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	rows, err := idx.Worlds(context.Background())
	if err != nil {
		t.Fatalf("Worlds: %v", err)
	}
	if len(rows) != 1 || rows[0].WorldID != "small" || rows[0].SnapshotPath != snapPath {
		t.Fatalf("index rows: %+v", rows)
	}
}

func TestRun_DisableDBAndBadTuning(t *testing.T) {
	dataDir := t.TempDir()
	bad := filepath.Join(dataDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("noise:\n  octaves: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	logger := log.New(io.Discard, "", 0)
	if _, err := run(context.Background(), options{TuningPath: bad, DataDir: dataDir, Seed: -1}, logger); err == nil {
		t.Fatalf("expected tuning error")
	}

	// Size-derived defaults must finish on worlds too small for the stock
	// pile radius range.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	opts := options{Size: 30, Seed: -1, DataDir: dataDir, DisableDB: true}
	res, err := run(ctx, opts, logger)
	if err != nil {
		t.Fatalf("run with defaults: %v", err)
	}
	if res.Grid.N != 30 || res.Report.Garbage.Placed < 30 {
		t.Fatalf("small world: n=%d placed=%d", res.Grid.N, res.Report.Garbage.Placed)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "index")); !os.IsNotExist(err) {
		t.Fatalf("index written despite disable_db: %v", err)
	}
}
