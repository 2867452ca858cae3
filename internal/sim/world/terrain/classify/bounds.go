package classify

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"tileforge/internal/sim/world/terrain/noise"
	"tileforge/internal/sim/world/tile"
)

// Bounds returns the global minimum and maximum of the field. Rows are
// reduced concurrently into per-worker partials and combined in worker order.
func Bounds(ctx context.Context, f noise.Field) (float64, float64, error) {
	if f.N <= 0 || len(f.Values) == 0 {
		return math.MaxFloat64, -math.MaxFloat64, tile.ConfigErrorf("field", "is empty")
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > f.N {
		workers = f.N
	}
	mins := make([]float64, workers)
	maxs := make([]float64, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			lo, hi := math.MaxFloat64, -math.MaxFloat64
			for y := w; y < f.N; y += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				for _, v := range f.Row(y) {
					if v < lo {
						lo = v
					}
					if v > hi {
						hi = v
					}
				}
			}
			mins[w], maxs[w] = lo, hi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	lo, hi := mins[0], maxs[0]
	for w := 1; w < workers; w++ {
		lo = math.Min(lo, mins[w])
		hi = math.Max(hi, maxs[w])
	}
	return lo, hi, nil
}
