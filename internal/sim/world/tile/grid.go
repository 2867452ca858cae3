package tile

// Grid is a square row-major matrix of tiles. Rows are indexed by y.
type Grid struct {
	N     int
	Tiles []Tile
}

func NewGrid(n int) *Grid {
	if n < 0 {
		n = 0
	}
	return &Grid{N: n, Tiles: make([]Tile, n*n)}
}

// Filled returns an n×n grid where every tile has kind k and no content.
func Filled(n int, k TerrainKind) *Grid {
	g := NewGrid(n)
	for i := range g.Tiles {
		g.Tiles[i].Kind = k
	}
	return g
}

func (g *Grid) Index(x, y int) int { return y*g.N + x }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.N && y < g.N
}

// At returns a pointer to the tile at (x, y). Callers must check InBounds.
func (g *Grid) At(x, y int) *Tile { return &g.Tiles[y*g.N+x] }

// Row returns the y-th row, sharing the backing slice.
func (g *Grid) Row(y int) []Tile { return g.Tiles[y*g.N : (y+1)*g.N] }

// KindCounts tallies tiles per terrain kind.
func (g *Grid) KindCounts() [KindCount]int {
	var out [KindCount]int
	for _, t := range g.Tiles {
		if int(t.Kind) < KindCount {
			out[t.Kind]++
		}
	}
	return out
}

// ContentTotal sums the amounts of every tile carrying content of kind c.
func (g *Grid) ContentTotal(c ContentKind) int {
	total := 0
	for _, t := range g.Tiles {
		if t.Content.Kind == c {
			total += t.Content.Amount
		}
	}
	return total
}
