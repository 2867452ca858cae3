package rng

import (
	"math/rand/v2"

	"tileforge/internal/sim/world/logic/mathx"
)

// Range is a half-open integer interval [Lo, Hi).
type Range struct {
	Lo int `yaml:"lo" json:"lo"`
	Hi int `yaml:"hi" json:"hi"`
}

func (r Range) Empty() bool { return r.Hi <= r.Lo }

// RNG is a thin wrapper around math/rand/v2 so every stochastic step draws
// from one explicitly owned, seeded stream.
type RNG struct {
	r *rand.Rand
}

func New(seed uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(seed, 0))}
}

// Derive returns an independent stream for a named stage of a seeded run.
func Derive(seed uint64, stream int) *RNG {
	return New(mathx.Hash2(int64(seed), stream, 0))
}

// IntIn samples uniformly from r. Callers validate r beforehand; an empty
// range yields r.Lo.
func (g *RNG) IntIn(r Range) int {
	if r.Empty() {
		return r.Lo
	}
	return r.Lo + g.r.IntN(r.Hi-r.Lo)
}

// IntN returns a value in [0, n); n <= 0 yields 0.
func (g *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return g.r.IntN(n)
}

// FloatClosed samples uniformly from [lo, hi].
func (g *RNG) FloatClosed(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	// Float64 is [0,1); the tiny stretch lets hi itself be drawn.
	v := lo + g.r.Float64()*(hi-lo)*(1+1e-12)
	if v > hi {
		return hi
	}
	return v
}
