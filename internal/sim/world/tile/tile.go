package tile

// TerrainKind is the terrain band of a tile. The order of the constants is the
// classification order used by the terrain classifier.
type TerrainKind uint8

const (
	DeepWater TerrainKind = iota
	ShallowWater
	Sand
	Grass
	Hill
	Mountain
	Snow
	// Lava is only produced by the lava placer, never by classification.
	Lava
)

// KindCount is the number of terrain kinds.
const KindCount = int(Lava) + 1

var kindNames = [KindCount]string{
	DeepWater:    "DEEP_WATER",
	ShallowWater: "SHALLOW_WATER",
	Sand:         "SAND",
	Grass:        "GRASS",
	Hill:         "HILL",
	Mountain:     "MOUNTAIN",
	Snow:         "SNOW",
	Lava:         "LAVA",
}

func (k TerrainKind) String() string {
	if int(k) < KindCount {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// ContentKind tags the payload a tile carries.
type ContentKind uint8

const (
	ContentNone ContentKind = iota
	ContentGarbage
	ContentRock
	ContentTree
)

const ContentKindCount = int(ContentTree) + 1

func (c ContentKind) String() string {
	switch c {
	case ContentNone:
		return "NONE"
	case ContentGarbage:
		return "GARBAGE"
	case ContentRock:
		return "ROCK"
	case ContentTree:
		return "TREE"
	default:
		return "UNKNOWN"
	}
}

// MaxAmount is the largest amount a single tile can hold of this content.
func (c ContentKind) MaxAmount() int {
	switch c {
	case ContentGarbage:
		return 20
	case ContentRock:
		return 4
	case ContentTree:
		return 5
	default:
		return 0
	}
}

// Content is a tagged union: Kind selects the variant, Amount is its payload.
type Content struct {
	Kind   ContentKind
	Amount int
}

func (c Content) IsNone() bool { return c.Kind == ContentNone }

func Garbage(amount int) Content { return Content{Kind: ContentGarbage, Amount: amount} }

var holdable = [KindCount][]ContentKind{
	DeepWater:    nil,
	ShallowWater: {ContentGarbage},
	Sand:         {ContentGarbage, ContentRock},
	Grass:        {ContentGarbage, ContentRock, ContentTree},
	Hill:         {ContentGarbage, ContentRock, ContentTree},
	Mountain:     {ContentGarbage, ContentRock, ContentTree},
	Snow:         {ContentRock},
	Lava:         nil,
}

// CanHold reports whether a tile of this kind may carry content c.
func (k TerrainKind) CanHold(c ContentKind) bool {
	if int(k) >= KindCount {
		return false
	}
	for _, h := range holdable[k] {
		if h == c {
			return true
		}
	}
	return false
}

type Tile struct {
	Kind      TerrainKind
	Content   Content
	Elevation int
}
