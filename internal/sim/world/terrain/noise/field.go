package noise

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"tileforge/internal/sim/world/tile"
)

type Config struct {
	Seed        uint32  `yaml:"seed" json:"seed"`
	Octaves     int     `yaml:"octaves" json:"octaves"`
	Frequency   float64 `yaml:"frequency" json:"frequency"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`
	Persistence float64 `yaml:"persistence" json:"persistence"`
	Attenuation float64 `yaml:"attenuation" json:"attenuation"`
	// Scale multiplies every sample. Zero is read as 1.
	Scale float64 `yaml:"scale" json:"scale"`
	Basis Basis   `yaml:"basis" json:"basis"`
}

func (c Config) Validate() error {
	if c.Octaves <= 0 {
		return tile.ConfigErrorf("noise.octaves", "must be > 0, got %d", c.Octaves)
	}
	pos := []struct {
		name string
		v    float64
	}{
		{"noise.frequency", c.Frequency},
		{"noise.lacunarity", c.Lacunarity},
		{"noise.persistence", c.Persistence},
		{"noise.attenuation", c.Attenuation},
	}
	for _, p := range pos {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return tile.ConfigErrorf(p.name, "must be a positive finite number, got %v", p.v)
		}
	}
	if math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
		return tile.ConfigErrorf("noise.scale", "must be finite, got %v", c.Scale)
	}
	switch c.Basis {
	case "", BasisPerlin, BasisSimplex:
	default:
		return tile.ConfigErrorf("noise.basis", "unknown basis %q", c.Basis)
	}
	return nil
}

// Field is a square row-major matrix of elevation samples.
type Field struct {
	N      int
	Values []float64
}

func (f Field) At(x, y int) float64 { return f.Values[y*f.N+x] }

func (f Field) Row(y int) []float64 { return f.Values[y*f.N : (y+1)*f.N] }

// Generate samples the ridged multifractal at (x/n, y/n, 0) for every cell of
// an n×n field. Rows are independent and computed concurrently; the result
// does not depend on scheduling.
func Generate(ctx context.Context, n int, cfg Config) (Field, error) {
	if n <= 0 {
		return Field{}, tile.ConfigErrorf("size", "must be > 0, got %d", n)
	}
	if err := cfg.Validate(); err != nil {
		return Field{}, err
	}
	scale := cfg.Scale
	if scale == 0 {
		scale = 1
	}

	ridged := NewRidged(cfg)
	field := Field{N: n, Values: make([]float64, n*n)}
	inv := 1.0 / float64(n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < n; y++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := field.Row(y)
			ny := float64(y) * inv
			for x := range row {
				row[x] = ridged.Eval3(float64(x)*inv, ny, 0) * scale
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Field{}, err
	}
	return field, nil
}
