package lava

import (
	"tileforge/internal/sim/world/logic/rng"
	"tileforge/internal/sim/world/terrain/noise"
	"tileforge/internal/sim/world/tile"
)

type Config struct {
	SpawnPoints int       `yaml:"spawn_points" json:"spawn_points"`
	FlowRange   rng.Range `yaml:"flow_range" json:"flow_range"`
}

func Default(size int) Config {
	return Config{
		SpawnPoints: max(size/100, 1),
		FlowRange:   rng.Range{Lo: 10, Hi: max(size/10, 11)},
	}
}

func (c Config) Validate() error {
	if c.SpawnPoints < 0 {
		return tile.ConfigErrorf("lava.spawn_points", "must be >= 0, got %d", c.SpawnPoints)
	}
	if c.SpawnPoints > 0 && (c.FlowRange.Lo < 1 || c.FlowRange.Empty()) {
		return tile.ConfigErrorf("lava.flow_range", "must be a non-empty range of positive lengths, got [%d,%d)", c.FlowRange.Lo, c.FlowRange.Hi)
	}
	return nil
}

var neighbours = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// LowestNeighbour returns the 4-neighbour of (x, y) with the smallest field
// value, provided it is strictly lower than (x, y) itself.
func LowestNeighbour(f noise.Field, x, y int) (int, int, bool) {
	best := f.At(x, y)
	bx, by, ok := x, y, false
	for _, d := range neighbours {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || ny < 0 || nx >= f.N || ny >= f.N {
			continue
		}
		if v := f.At(nx, ny); v < best {
			best, bx, by, ok = v, nx, ny, true
		}
	}
	return bx, by, ok
}

// Place seeds lava on high ground and lets each flow run downhill along the
// steepest 4-neighbour. Flows stop at a local minimum, at water, or after a
// length sampled from cfg.FlowRange. It returns the number of tiles turned
// to lava.
func Place(g *tile.Grid, f noise.Field, cfg Config, r *rng.RNG) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if g == nil || f.N != g.N || len(f.Values) != len(g.Tiles) {
		return 0, tile.ConfigErrorf("lava", "field and grid shapes differ")
	}
	if cfg.SpawnPoints == 0 || g.N == 0 {
		return 0, nil
	}

	sources := highGround(g, f)
	converted := 0
	for i := 0; i < cfg.SpawnPoints; i++ {
		at := sources[r.IntN(len(sources))]
		x, y := at%g.N, at/g.N
		for steps := r.IntIn(cfg.FlowRange); steps > 0; steps-- {
			t := g.At(x, y)
			if t.Kind != tile.Lava {
				converted++
			}
			t.Kind = tile.Lava
			t.Content = tile.Content{}

			nx, ny, ok := LowestNeighbour(f, x, y)
			if !ok {
				break
			}
			if k := g.At(nx, ny).Kind; k == tile.DeepWater || k == tile.ShallowWater {
				break
			}
			x, y = nx, ny
		}
	}
	return converted, nil
}

// highGround lists Mountain and Snow tiles, or the single highest cell when
// the grid has none.
func highGround(g *tile.Grid, f noise.Field) []int {
	var out []int
	top := 0
	for i, t := range g.Tiles {
		if t.Kind == tile.Mountain || t.Kind == tile.Snow {
			out = append(out, i)
		}
		if f.Values[i] > f.Values[top] {
			top = i
		}
	}
	if len(out) == 0 {
		out = append(out, top)
	}
	return out
}
