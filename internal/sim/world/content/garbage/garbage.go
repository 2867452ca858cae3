package garbage

import (
	"context"
	"fmt"
	"math"

	"tileforge/internal/sim/world/logic/rng"
	"tileforge/internal/sim/world/tile"
)

// minSpawnDraw is the lower end of the per-cell spawn draw.
const minSpawnDraw = 0.1

type Config struct {
	TotalQuantity   int       `yaml:"total_quantity" json:"total_quantity"`
	PileRadius      rng.Range `yaml:"pile_radius" json:"pile_radius"`
	PerTileAmount   rng.Range `yaml:"per_tile_amount" json:"per_tile_amount"`
	SpawnCeiling    float64   `yaml:"spawn_probability_ceiling" json:"spawn_probability_ceiling"`
	ProbabilityStep float64   `yaml:"probability_step" json:"probability_step"`
	// MaxPasses bounds the number of build-up passes; 0 means unbounded.
	MaxPasses int `yaml:"max_passes" json:"max_passes"`
}

// smallWorldPasses bounds Default configs whose grid cannot hold the total.
const smallWorldPasses = 10000

// Default mirrors the stock tuning for a world of the given size. On worlds
// under 60 tiles the pile radius is pinned to 2, the smallest radius whose
// matrix has a ring. When the eligible interior cannot hold the total, the
// pass count is bounded so generation fails instead of spinning.
func Default(size int) Config {
	pile := rng.Range{Lo: 1, Hi: size / 20}
	if pile.Hi < 3 {
		pile = rng.Range{Lo: 2, Hi: 3}
	}
	cfg := Config{
		TotalQuantity:   size,
		PileRadius:      pile,
		PerTileAmount:   rng.Range{Lo: 1, Hi: max(size/100, 2)},
		SpawnCeiling:    1.0,
		ProbabilityStep: 0.2,
	}
	// Radius 2 builds a 3x3 matrix, so at least 3 cells of margin per side.
	side := max(size-2*MatrixSize(2), 0)
	if side*side*(cfg.PerTileAmount.Hi-1) < cfg.TotalQuantity {
		cfg.MaxPasses = smallWorldPasses
	}
	return cfg
}

func (c Config) Validate() error {
	if c.TotalQuantity < 0 {
		return tile.ConfigErrorf("garbage.total_quantity", "must be >= 0, got %d", c.TotalQuantity)
	}
	if c.PileRadius.Lo < 0 || c.PileRadius.Empty() {
		return tile.ConfigErrorf("garbage.pile_radius", "must be a non-empty range of non-negative radii, got [%d,%d)", c.PileRadius.Lo, c.PileRadius.Hi)
	}
	if c.PerTileAmount.Lo < 1 || c.PerTileAmount.Empty() {
		return tile.ConfigErrorf("garbage.per_tile_amount", "must be a non-empty range of positive amounts, got [%d,%d)", c.PerTileAmount.Lo, c.PerTileAmount.Hi)
	}
	if math.IsNaN(c.SpawnCeiling) || c.SpawnCeiling < minSpawnDraw || c.SpawnCeiling > 1 {
		return tile.ConfigErrorf("garbage.spawn_probability_ceiling", "must be in [%.1f,1], got %v", minSpawnDraw, c.SpawnCeiling)
	}
	if !(c.ProbabilityStep > 0) || math.IsInf(c.ProbabilityStep, 0) {
		return tile.ConfigErrorf("garbage.probability_step", "must be a positive finite number, got %v", c.ProbabilityStep)
	}
	if c.MaxPasses < 0 {
		return tile.ConfigErrorf("garbage.max_passes", "must be >= 0, got %d", c.MaxPasses)
	}
	return nil
}

type Report struct {
	Placed int
	Passes int
	Tiles  int
	Piles  int
}

// Distribute scatters garbage piles over g until the placed total reaches
// cfg.TotalQuantity. The total is only checked between passes, so the last
// pass may overshoot. With MaxPasses == 0 a grid without eligible tiles keeps
// the loop running until ctx is cancelled.
func Distribute(ctx context.Context, g *tile.Grid, cfg Config, r *rng.RNG) (Report, error) {
	var rep Report
	if err := cfg.Validate(); err != nil {
		return rep, err
	}
	if g == nil || g.N <= 0 {
		return rep, tile.ConfigErrorf("grid", "is empty")
	}

	capAmount := min(cfg.PerTileAmount.Hi-1, tile.ContentGarbage.MaxAmount())
	for rep.Placed < cfg.TotalQuantity {
		if cfg.MaxPasses > 0 && rep.Passes >= cfg.MaxPasses {
			return rep, fmt.Errorf("garbage: placed %d of %d after %d passes: %w", rep.Placed, cfg.TotalQuantity, rep.Passes, tile.ErrExhausted)
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		placed, tiles := buildUp(g, cfg, r, capAmount)
		rep.Passes++
		rep.Placed += placed
		rep.Tiles += tiles
		if tiles > 0 {
			rep.Piles++
		}
	}
	return rep, nil
}

// buildUp runs one pass: a pile of sampled radius anchored at a random cell.
// The matrix cell (row, col) targets tile (x, y) = (baseX+row, baseY+col).
func buildUp(g *tile.Grid, cfg Config, r *rng.RNG, capAmount int) (placed, tiles int) {
	m := RingMatrix(r.IntIn(cfg.PileRadius), cfg.ProbabilityStep)

	baseY := r.IntN(g.N)
	baseX := r.IntN(g.N)

	for row := 0; row < m.Size; row++ {
		for col := 0; col < m.Size; col++ {
			v := r.FloatClosed(minSpawnDraw, cfg.SpawnCeiling)
			if v <= 1-m.At(row, col) {
				continue
			}
			amount := min(r.IntIn(cfg.PerTileAmount), capAmount)
			if place(g, baseX+row, baseY+col, amount, m.Size) {
				placed += amount
				tiles++
			}
		}
	}
	return placed, tiles
}

// place writes garbage at (x, y) if the tile lies at least margin cells
// inside every border, can hold garbage and carries no content yet.
func place(g *tile.Grid, x, y, amount, margin int) bool {
	if x < margin || y < margin || x >= g.N-margin || y >= g.N-margin {
		return false
	}
	t := g.At(x, y)
	if !t.Kind.CanHold(tile.ContentGarbage) || !t.Content.IsNone() {
		return false
	}
	t.Content = tile.Garbage(amount)
	return true
}
