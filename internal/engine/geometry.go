package engine

// Coord is a single position in the layer's coordinate reference system.
type Coord struct {
	X, Y float64
}

// Ring is an ordered coordinate sequence. Polygon rings are closed (first
// coordinate equals the last); line paths are open.
type Ring []Coord

// GeometryType represents the type of geometry.
type GeometryType int

const (
	// GeometryPoint represents a single point location.
	GeometryPoint GeometryType = iota

	// GeometryLine represents a line composed of connected points.
	GeometryLine

	// GeometryPolygon represents a closed polygon area, possibly with holes.
	GeometryPolygon

	// GeometryMultiPolygon represents a collection of polygons.
	GeometryMultiPolygon
)

// String returns the string representation of the geometry type.
func (g GeometryType) String() string {
	switch g {
	case GeometryPoint:
		return "Point"
	case GeometryLine:
		return "LineString"
	case GeometryPolygon:
		return "Polygon"
	case GeometryMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unknown"
	}
}

// Geometry is the spatial representation of a feature.
//
// Coords carries the coordinates for Point (one entry) and LineString
// geometries. Polygons carries one ring set per polygon, outer ring first
// and holes after; a plain Polygon has exactly one ring set.
type Geometry struct {
	Type     GeometryType
	Coords   Ring
	Polygons [][]Ring
}

// Bounds represents an axis-aligned bounding box in grid coordinates.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Contains returns true if the point (x, y) is within the bounds.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Intersects returns true if the given bounds intersects with this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxX < b.MinX ||
		other.MinX > b.MaxX ||
		other.MaxY < b.MinY ||
		other.MinY > b.MaxY)
}

// Union returns the smallest bounds containing both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	u := b
	if other.MinX < u.MinX {
		u.MinX = other.MinX
	}
	if other.MaxX > u.MaxX {
		u.MaxX = other.MaxX
	}
	if other.MinY < u.MinY {
		u.MinY = other.MinY
	}
	if other.MaxY > u.MaxY {
		u.MaxY = other.MaxY
	}
	return u
}

func (b Bounds) extendCoord(c Coord) Bounds {
	if c.X < b.MinX {
		b.MinX = c.X
	}
	if c.X > b.MaxX {
		b.MaxX = c.X
	}
	if c.Y < b.MinY {
		b.MinY = c.Y
	}
	if c.Y > b.MaxY {
		b.MaxY = c.Y
	}
	return b
}

// Bounds returns the bounding box of the geometry. The second return value
// is false when the geometry has no coordinates.
func (g Geometry) Bounds() (Bounds, bool) {
	var b Bounds
	seeded := false
	seed := func(c Coord) {
		if !seeded {
			b = Bounds{MinX: c.X, MaxX: c.X, MinY: c.Y, MaxY: c.Y}
			seeded = true
			return
		}
		b = b.extendCoord(c)
	}
	for _, c := range g.Coords {
		seed(c)
	}
	for _, rings := range g.Polygons {
		for _, ring := range rings {
			for _, c := range ring {
				seed(c)
			}
		}
	}
	return b, seeded
}

// Transform returns a copy of the geometry with fn applied to every
// coordinate. Used by the CRS reconciler; fn reports per-point projection
// failures.
func (g Geometry) Transform(fn func(x, y float64) (float64, float64, error)) (Geometry, error) {
	out := Geometry{Type: g.Type}
	if len(g.Coords) > 0 {
		out.Coords = make(Ring, len(g.Coords))
		for i, c := range g.Coords {
			x, y, err := fn(c.X, c.Y)
			if err != nil {
				return Geometry{}, err
			}
			out.Coords[i] = Coord{X: x, Y: y}
		}
	}
	if len(g.Polygons) > 0 {
		out.Polygons = make([][]Ring, len(g.Polygons))
		for pi, rings := range g.Polygons {
			out.Polygons[pi] = make([]Ring, len(rings))
			for ri, ring := range rings {
				nr := make(Ring, len(ring))
				for ci, c := range ring {
					x, y, err := fn(c.X, c.Y)
					if err != nil {
						return Geometry{}, err
					}
					nr[ci] = Coord{X: x, Y: y}
				}
				out.Polygons[pi][ri] = nr
			}
		}
	}
	return out, nil
}
