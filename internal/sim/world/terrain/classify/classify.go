package classify

import (
	"math"

	"tileforge/internal/sim/world/logic/mathx"
	"tileforge/internal/sim/world/terrain/noise"
	"tileforge/internal/sim/world/tile"
)

// Thresholds are fractions of the field's [min, max] range, one per banded
// kind. They are expected to be non-decreasing; a non-monotonic set is not
// rejected and simply yields whatever the first-match cascade produces.
type Thresholds struct {
	DeepWater    float64 `yaml:"deep_water" json:"deep_water"`
	ShallowWater float64 `yaml:"shallow_water" json:"shallow_water"`
	Sand         float64 `yaml:"sand" json:"sand"`
	Grass        float64 `yaml:"grass" json:"grass"`
	Hill         float64 `yaml:"hill" json:"hill"`
	Mountain     float64 `yaml:"mountain" json:"mountain"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{DeepWater: 0.2, ShallowWater: 0.3, Sand: 0.5, Grass: 0.7, Hill: 0.85, Mountain: 0.95}
}

func (t Thresholds) bands() [6]band {
	return [6]band{
		{t.DeepWater, tile.DeepWater},
		{t.ShallowWater, tile.ShallowWater},
		{t.Sand, tile.Sand},
		{t.Grass, tile.Grass},
		{t.Hill, tile.Hill},
		{t.Mountain, tile.Mountain},
	}
}

func (t Thresholds) Validate() error {
	names := [6]string{"deep_water", "shallow_water", "sand", "grass", "hill", "mountain"}
	for i, b := range t.bands() {
		if math.IsNaN(b.limit) || b.limit < 0 || b.limit > 1 {
			return tile.ConfigErrorf("thresholds."+names[i], "must be in [0,1], got %v", b.limit)
		}
	}
	return nil
}

// Monotonic reports whether the thresholds are non-decreasing.
func (t Thresholds) Monotonic() bool {
	bs := t.bands()
	for i := 1; i < len(bs); i++ {
		if bs[i].limit < bs[i-1].limit {
			return false
		}
	}
	return true
}

type band struct {
	limit float64
	kind  tile.TerrainKind
}

// Classifier holds thresholds already mapped into a field's value range.
type Classifier struct {
	bands [6]band
}

func NewClassifier(t Thresholds, min, max float64) Classifier {
	c := Classifier{bands: t.bands()}
	for i := range c.bands {
		c.bands[i].limit = mathx.Lerp(min, max, c.bands[i].limit)
	}
	return c
}

// Kind returns the first band whose mapped limit is strictly greater than v,
// or Snow. A value equal to a limit falls through to the next band.
func (c Classifier) Kind(v float64) tile.TerrainKind {
	for _, b := range c.bands {
		if v < b.limit {
			return b.kind
		}
	}
	return tile.Snow
}

// Classify builds the tile grid for a field. Content starts as None and
// elevation as 0.
func Classify(f noise.Field, min, max float64, t Thresholds) *tile.Grid {
	c := NewClassifier(t, min, max)
	g := tile.NewGrid(f.N)
	for i, v := range f.Values {
		g.Tiles[i] = tile.Tile{Kind: c.Kind(v)}
	}
	return g
}
