package world

import (
	"fmt"

	"tileforge/internal/persistence/snapshot"
	"tileforge/internal/sim/world/tile"
)

func (r Result) ExportSnapshot(noiseSeed uint32) snapshot.WorldV1 {
	n := len(r.Grid.Tiles)
	s := snapshot.WorldV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: r.ID,
			Seed:    r.Seed,
			Size:    r.Grid.N,
		},
		NoiseSeed:              noiseSeed,
		Kinds:                  make([]uint8, n),
		Contents:               make([]uint8, n),
		Amounts:                make([]uint16, n),
		Elevations:             make([]int32, n),
		Origin:                 [2]int{r.Origin.X, r.Origin.Y},
		TimeProgressionMinutes: r.Conditions.TimeProgressionMinutes,
		StartHour:              r.Conditions.StartHour,
		Score:                  r.Score,
		Stats: snapshot.StatsV1{
			FieldMin:  r.Report.Min,
			FieldMax:  r.Report.Max,
			LavaTiles: r.Report.LavaTiles,
			Placed:    r.Report.Garbage.Placed,
			Passes:    r.Report.Garbage.Passes,
		},
	}
	for _, w := range r.Conditions.Weathers {
		s.Weathers = append(s.Weathers, string(w))
	}
	for i, t := range r.Grid.Tiles {
		s.Kinds[i] = uint8(t.Kind)
		s.Contents[i] = uint8(t.Content.Kind)
		s.Amounts[i] = uint16(t.Content.Amount)
		s.Elevations[i] = int32(t.Elevation)
	}
	return s
}

// ImportSnapshot rebuilds a Result (without the elevation field) from a
// snapshot.
func ImportSnapshot(s snapshot.WorldV1) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	g := tile.NewGrid(s.Header.Size)
	for i := range g.Tiles {
		if int(s.Kinds[i]) >= tile.KindCount {
			return Result{}, fmt.Errorf("snapshot: tile %d has unknown kind %d", i, s.Kinds[i])
		}
		if int(s.Contents[i]) >= tile.ContentKindCount {
			return Result{}, fmt.Errorf("snapshot: tile %d has unknown content %d", i, s.Contents[i])
		}
		g.Tiles[i] = tile.Tile{
			Kind:      tile.TerrainKind(s.Kinds[i]),
			Content:   tile.Content{Kind: tile.ContentKind(s.Contents[i]), Amount: int(s.Amounts[i])},
			Elevation: int(s.Elevations[i]),
		}
	}
	res := Result{
		ID:     s.Header.WorldID,
		Seed:   s.Header.Seed,
		Grid:   g,
		Origin: Origin{X: s.Origin[0], Y: s.Origin[1]},
		Conditions: Conditions{
			TimeProgressionMinutes: s.TimeProgressionMinutes,
			StartHour:              s.StartHour,
		},
		Score: s.Score,
		Report: Report{
			Min:       s.Stats.FieldMin,
			Max:       s.Stats.FieldMax,
			LavaTiles: s.Stats.LavaTiles,
		},
	}
	res.Report.Garbage.Placed = s.Stats.Placed
	res.Report.Garbage.Passes = s.Stats.Passes
	for _, w := range s.Weathers {
		res.Conditions.Weathers = append(res.Conditions.Weathers, Weather(w))
	}
	return res, nil
}
