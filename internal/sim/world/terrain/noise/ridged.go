package noise

import (
	"math"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Basis selects the gradient noise each octave of the ridged fractal samples.
type Basis string

const (
	BasisPerlin  Basis = "perlin"
	BasisSimplex Basis = "simplex"
)

type source interface {
	Eval3(x, y, z float64) float64
}

type perlinSource struct{ p *perlin.Perlin }

func (s perlinSource) Eval3(x, y, z float64) float64 { return s.p.Noise3D(x, y, z) }

func newSource(b Basis, seed int64) source {
	switch b {
	case BasisSimplex:
		return opensimplex.New(seed)
	default:
		// A single octave: the fractal layering is done by Ridged itself.
		return perlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}
	}
}

// Ridged is a ridged multifractal built from one seeded basis per octave.
// It holds no mutable state after construction and is safe for concurrent use.
type Ridged struct {
	sources     []source
	frequency   float64
	lacunarity  float64
	persistence float64
	attenuation float64
	scale       float64
}

func NewRidged(cfg Config) *Ridged {
	r := &Ridged{
		sources:     make([]source, cfg.Octaves),
		frequency:   cfg.Frequency,
		lacunarity:  cfg.Lacunarity,
		persistence: cfg.Persistence,
		attenuation: cfg.Attenuation,
	}
	for i := range r.sources {
		r.sources[i] = newSource(cfg.Basis, int64(cfg.Seed)+int64(i))
	}
	// Normalises the octave sum into [-1, 1].
	r.scale = 2.0 - math.Pow(0.5, float64(cfg.Octaves-1))
	return r
}

func (r *Ridged) Eval3(x, y, z float64) float64 {
	x *= r.frequency
	y *= r.frequency
	z *= r.frequency

	result := 0.0
	weight := 1.0
	amp := 1.0
	for _, src := range r.sources {
		signal := 1.0 - math.Abs(src.Eval3(x, y, z))
		signal *= signal
		signal *= weight

		weight = signal / r.attenuation
		if weight < 0 {
			weight = 0
		} else if weight > 1 {
			weight = 1
		}

		result += signal * amp
		amp *= r.persistence

		x *= r.lacunarity
		y *= r.lacunarity
		z *= r.lacunarity
	}
	return math.Abs(result)*(2.0/r.scale) - 1.0
}
