package tuning

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"tileforge/internal/sim/world"
	"tileforge/internal/sim/world/content/garbage"
	"tileforge/internal/sim/world/content/lava"
	"tileforge/internal/sim/world/terrain/classify"
	"tileforge/internal/sim/world/terrain/noise"
)

//go:embed tuning.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("tuning.schema.json", schemaJSON)

const DefaultWorldSize = 1000

type Tuning struct {
	WorldID         string  `yaml:"world_id" json:"world_id"`
	WorldSize       int     `yaml:"world_size" json:"world_size"`
	Seed            uint64  `yaml:"seed" json:"seed"`
	ElevationLevels int     `yaml:"elevation_levels" json:"elevation_levels"`
	Score           float32 `yaml:"score" json:"score"`

	Noise      noise.Config        `yaml:"noise" json:"noise"`
	Thresholds classify.Thresholds `yaml:"thresholds" json:"thresholds"`
	Lava       LavaSection         `yaml:"lava" json:"lava"`
	Garbage    GarbageSection      `yaml:"garbage" json:"garbage"`

	Origin     world.Origin `yaml:"origin" json:"origin"`
	Conditions Conditions   `yaml:"conditions" json:"conditions"`
}

type LavaSection struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	lava.Config `yaml:",inline"`
}

type GarbageSection struct {
	Enabled        bool `yaml:"enabled" json:"enabled"`
	garbage.Config `yaml:",inline"`
}

type Conditions struct {
	Weathers               []string `yaml:"weathers" json:"weathers"`
	TimeProgressionMinutes int      `yaml:"time_progression_minutes" json:"time_progression_minutes"`
	StartHour              int      `yaml:"start_hour" json:"start_hour"`
}

// Defaults is the stock tuning for a world of the given size.
func Defaults(size int) Tuning {
	if size <= 0 {
		size = DefaultWorldSize
	}
	dc := world.DefaultConditions()
	weathers := make([]string, 0, len(dc.Weathers))
	for _, w := range dc.Weathers {
		weathers = append(weathers, string(w))
	}
	return Tuning{
		WorldID:   "world_1",
		WorldSize: size,
		Seed:      1337,
		Noise: noise.Config{
			Seed:        42,
			Octaves:     4,
			Frequency:   1.0,
			Lacunarity:  2.0,
			Persistence: 0.5,
			Attenuation: 2.0,
			Scale:       1.0,
			Basis:       noise.BasisPerlin,
		},
		Thresholds: classify.DefaultThresholds(),
		Lava:       LavaSection{Enabled: true, Config: lava.Default(size)},
		Garbage:    GarbageSection{Enabled: true, Config: garbage.Default(size)},
		Conditions: Conditions{
			Weathers:               weathers,
			TimeProgressionMinutes: dc.TimeProgressionMinutes,
			StartHour:              dc.StartHour,
		},
	}
}

// Load reads a tuning file. An empty path yields Defaults(DefaultWorldSize).
// Size-dependent defaults follow the file's world_size; every key present in
// the file overrides its default.
func Load(path string) (Tuning, error) { return LoadSized(path, 0) }

// LoadSized is Load with world_size forced to size when size > 0. Defaults
// are derived from the forced size.
func LoadSized(path string, size int) (Tuning, error) {
	if strings.TrimSpace(path) == "" {
		if size <= 0 {
			size = DefaultWorldSize
		}
		return Defaults(size), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}
	t, err := parse(raw, size)
	if err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Parse(raw []byte) (Tuning, error) { return parse(raw, 0) }

func parse(raw []byte, size int) (Tuning, error) {
	if err := validateSchema(raw); err != nil {
		return Tuning{}, err
	}
	if size <= 0 {
		var head struct {
			WorldSize int `yaml:"world_size"`
		}
		if err := yaml.Unmarshal(raw, &head); err != nil {
			return Tuning{}, err
		}
		size = head.WorldSize
	}
	t := Defaults(size)
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tuning{}, err
	}
	t.WorldSize = Defaults(size).WorldSize
	if _, err := t.WorldConfig(); err != nil {
		return t, err
	}
	return t, nil
}

func validateSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees JSON-typed values.
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// WorldConfig converts the tuning into a validated generator config.
func (t Tuning) WorldConfig() (world.WorldConfig, error) {
	weathers := make([]world.Weather, 0, len(t.Conditions.Weathers))
	for _, w := range t.Conditions.Weathers {
		weathers = append(weathers, world.Weather(w))
	}
	cfg := world.WorldConfig{
		ID:              t.WorldID,
		Size:            t.WorldSize,
		Seed:            t.Seed,
		Noise:           t.Noise,
		Thresholds:      t.Thresholds,
		LavaEnabled:     t.Lava.Enabled,
		Lava:            t.Lava.Config,
		GarbageEnabled:  t.Garbage.Enabled,
		Garbage:         t.Garbage.Config,
		ElevationLevels: t.ElevationLevels,
		Origin:          t.Origin,
		Conditions: world.Conditions{
			Weathers:               weathers,
			TimeProgressionMinutes: t.Conditions.TimeProgressionMinutes,
			StartHour:              t.Conditions.StartHour,
		},
		Score: t.Score,
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Digest is the sha256 of the canonical JSON encoding.
func (t Tuning) Digest() (string, []byte) {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), b
}
