package world

import (
	"context"
	"fmt"
	"log"
	"time"

	"tileforge/internal/sim/world/content/garbage"
	"tileforge/internal/sim/world/content/lava"
	"tileforge/internal/sim/world/logic/rng"
	"tileforge/internal/sim/world/terrain/classify"
	"tileforge/internal/sim/world/terrain/noise"
	"tileforge/internal/sim/world/tile"
)

// RNG streams derived from WorldConfig.Seed, one per stochastic stage.
const (
	streamLava = iota + 1
	streamGarbage
)

// StageEntry records one finished pipeline stage.
type StageEntry struct {
	WorldID string `json:"world_id"`
	Stage   string `json:"stage"`
	Millis  int64  `json:"millis"`
	At      string `json:"at"`
}

type StageSink interface {
	WriteStage(StageEntry) error
}

type Report struct {
	Min, Max  float64
	LavaTiles int
	Garbage   garbage.Report
	Stages    []StageEntry
}

// Result is everything a host receives from one generation call.
type Result struct {
	ID         string
	Seed       uint64
	Grid       *tile.Grid
	Field      noise.Field
	Origin     Origin
	Conditions Conditions
	Score      float32
	Report     Report
}

type Generator struct {
	cfg  WorldConfig
	log  *log.Logger
	sink StageSink
}

// New validates cfg. logger may be nil.
func New(cfg WorldConfig, logger *log.Logger) (*Generator, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{cfg: cfg, log: logger}
	if !cfg.Thresholds.Monotonic() {
		// Later bands shadowed by an earlier, higher limit never match.
		g.logf("warn: thresholds are not non-decreasing: %+v", cfg.Thresholds)
	}
	return g, nil
}

func (g *Generator) Config() WorldConfig { return g.cfg }

func (g *Generator) SetStageSink(s StageSink) { g.sink = s }

func (g *Generator) logf(format string, args ...any) {
	if g.log != nil {
		g.log.Printf(format, args...)
	}
}

func (g *Generator) stage(rep *Report, name string, fn func() error) error {
	g.logf("start: %s", name)
	start := time.Now()
	err := fn()
	e := StageEntry{
		WorldID: g.cfg.ID,
		Stage:   name,
		Millis:  time.Since(start).Milliseconds(),
		At:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err != nil {
		g.logf("failed: %s: %v", name, err)
		return err
	}
	g.logf("done: %s: %dms", name, e.Millis)
	rep.Stages = append(rep.Stages, e)
	if g.sink != nil {
		if serr := g.sink.WriteStage(e); serr != nil {
			g.logf("stage sink: %v", serr)
		}
	}
	return nil
}

// Generate runs field → bounds → classification → lava → garbage →
// elevation. Any failure aborts the call without a partial result.
func (g *Generator) Generate(ctx context.Context) (Result, error) {
	cfg := g.cfg
	var (
		rep   Report
		field noise.Field
		grid  *tile.Grid
	)

	if err := g.stage(&rep, "noise_map", func() (err error) {
		field, err = noise.Generate(ctx, cfg.Size, cfg.Noise)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("noise map: %w", err)
	}

	if err := g.stage(&rep, "min_max", func() (err error) {
		rep.Min, rep.Max, err = classify.Bounds(ctx, field)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("min/max: %w", err)
	}

	_ = g.stage(&rep, "terrain", func() error {
		grid = classify.Classify(field, rep.Min, rep.Max, cfg.Thresholds)
		return nil
	})

	if cfg.LavaEnabled {
		if err := g.stage(&rep, "lava", func() (err error) {
			rep.LavaTiles, err = lava.Place(grid, field, cfg.Lava, rng.Derive(cfg.Seed, streamLava))
			return err
		}); err != nil {
			return Result{}, fmt.Errorf("lava: %w", err)
		}
	}

	if cfg.GarbageEnabled {
		if err := g.stage(&rep, "garbage", func() (err error) {
			rep.Garbage, err = garbage.Distribute(ctx, grid, cfg.Garbage, rng.Derive(cfg.Seed, streamGarbage))
			return err
		}); err != nil {
			return Result{}, fmt.Errorf("garbage: %w", err)
		}
	}

	if cfg.ElevationLevels > 0 {
		_ = g.stage(&rep, "elevation", func() error {
			PopulateElevation(grid, field, rep.Min, rep.Max, cfg.ElevationLevels)
			return nil
		})
	}

	return Result{
		ID:         cfg.ID,
		Seed:       cfg.Seed,
		Grid:       grid,
		Field:      field,
		Origin:     cfg.Origin,
		Conditions: cfg.Conditions,
		Score:      cfg.Score,
		Report:     rep,
	}, nil
}

// PopulateElevation writes the field, normalised against [min, max], into
// tile elevation as an integer in [0, levels).
func PopulateElevation(g *tile.Grid, f noise.Field, min, max float64, levels int) {
	span := max - min
	for i := range g.Tiles {
		e := 0
		if span > 0 {
			e = int((f.Values[i] - min) / span * float64(levels))
		}
		if e >= levels {
			e = levels - 1
		}
		if e < 0 {
			e = 0
		}
		g.Tiles[i].Elevation = e
	}
}
