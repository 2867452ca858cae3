package world

import (
	"tileforge/internal/sim/world/content/garbage"
	"tileforge/internal/sim/world/content/lava"
	"tileforge/internal/sim/world/terrain/classify"
	"tileforge/internal/sim/world/terrain/noise"
	"tileforge/internal/sim/world/tile"
)

type Weather string

const (
	WeatherSunny Weather = "SUNNY"
	WeatherRainy Weather = "RAINY"
	WeatherFoggy Weather = "FOGGY"
	WeatherSnowy Weather = "SNOWY"
)

// Conditions is the environmental descriptor handed to the host untouched.
type Conditions struct {
	Weathers               []Weather `json:"weathers"`
	TimeProgressionMinutes int       `json:"time_progression_minutes"`
	StartHour              int       `json:"start_hour"`
}

func DefaultConditions() Conditions {
	return Conditions{
		Weathers:               []Weather{WeatherSunny, WeatherRainy},
		TimeProgressionMinutes: 15,
		StartHour:              12,
	}
}

type Origin struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type WorldConfig struct {
	ID   string
	Size int
	// Seed drives every stochastic stage after the noise field.
	Seed uint64

	Noise      noise.Config
	Thresholds classify.Thresholds

	LavaEnabled bool
	Lava        lava.Config

	GarbageEnabled bool
	Garbage        garbage.Config

	// ElevationLevels > 0 quantises the normalised field into tile elevation.
	ElevationLevels int

	// Pass-through metadata.
	Origin     Origin
	Conditions Conditions
	Score      float32
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if len(c.Conditions.Weathers) == 0 {
		c.Conditions = DefaultConditions()
	}
}

// Validate checks the whole request up front so no stage fails half-way.
func (c WorldConfig) Validate() error {
	if c.Size <= 0 {
		return tile.ConfigErrorf("size", "must be > 0, got %d", c.Size)
	}
	if err := c.Noise.Validate(); err != nil {
		return err
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.LavaEnabled {
		if err := c.Lava.Validate(); err != nil {
			return err
		}
	}
	if c.GarbageEnabled {
		if err := c.Garbage.Validate(); err != nil {
			return err
		}
	}
	if c.ElevationLevels < 0 {
		return tile.ConfigErrorf("elevation_levels", "must be >= 0, got %d", c.ElevationLevels)
	}
	if c.Origin.X < 0 || c.Origin.Y < 0 || c.Origin.X >= c.Size || c.Origin.Y >= c.Size {
		return tile.ConfigErrorf("origin", "(%d,%d) outside %dx%d grid", c.Origin.X, c.Origin.Y, c.Size, c.Size)
	}
	return nil
}
