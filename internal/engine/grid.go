package engine

import (
	"math"
)

// GridSpec is the shared geometric definition every raster in a run conforms
// to: top-left origin, square cell size, dimensions, and the coordinate
// reference system (Proj4 definition). Inputs are reconciled to the grid,
// never the reverse.
type GridSpec struct {
	MinX     float64 // X of the left edge
	MaxY     float64 // Y of the top edge
	CellSize float64
	Width    int
	Height   int
	CRS      string // Proj4 definition, may be empty until overridden
}

// Validate checks that the grid can describe a raster.
func (g GridSpec) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return &ErrInvalidGrid{Reason: "width and height must be positive"}
	}
	if g.CellSize <= 0 {
		return &ErrInvalidGrid{Reason: "cell size must be positive"}
	}
	return nil
}

// MaxX returns the X of the right edge.
func (g GridSpec) MaxX() float64 {
	return g.MinX + float64(g.Width)*g.CellSize
}

// MinY returns the Y of the bottom edge.
func (g GridSpec) MinY() float64 {
	return g.MaxY - float64(g.Height)*g.CellSize
}

// Bounds returns the grid extent.
func (g GridSpec) Bounds() Bounds {
	return Bounds{MinX: g.MinX, MinY: g.MinY(), MaxX: g.MaxX(), MaxY: g.MaxY}
}

// SameShape reports whether two specs share extent, resolution and
// dimensions. The CRS string is compared separately by the callers that
// need canonical CRS comparison.
func (g GridSpec) SameShape(other GridSpec) bool {
	const eps = 1e-9
	return g.Width == other.Width &&
		g.Height == other.Height &&
		math.Abs(g.CellSize-other.CellSize) < eps &&
		math.Abs(g.MinX-other.MinX) < eps &&
		math.Abs(g.MaxY-other.MaxY) < eps
}

// CellAt returns the (row, col) of the cell containing point (x, y), with
// row 0 at the top edge. The second return value is false when the point
// falls outside the grid. Points on the right or bottom edge belong to the
// last cell.
func (g GridSpec) CellAt(x, y float64) (int, int, bool) {
	if x < g.MinX || x > g.MaxX() || y < g.MinY() || y > g.MaxY {
		return 0, 0, false
	}
	col := int(math.Floor((x - g.MinX) / g.CellSize))
	row := int(math.Floor((g.MaxY - y) / g.CellSize))
	if col == g.Width {
		col = g.Width - 1
	}
	if row == g.Height {
		row = g.Height - 1
	}
	return row, col, true
}

// CellBounds returns the extent of cell (row, col).
func (g GridSpec) CellBounds(row, col int) Bounds {
	x0 := g.MinX + float64(col)*g.CellSize
	y1 := g.MaxY - float64(row)*g.CellSize
	return Bounds{MinX: x0, MinY: y1 - g.CellSize, MaxX: x0 + g.CellSize, MaxY: y1}
}

// CellCenter returns the center coordinate of cell (row, col).
func (g GridSpec) CellCenter(row, col int) (float64, float64) {
	x := g.MinX + (float64(col)+0.5)*g.CellSize
	y := g.MaxY - (float64(row)+0.5)*g.CellSize
	return x, y
}

// cellRange returns the half-open row/column index range of cells whose
// extent intersects b, clipped to the grid. ok is false when b lies wholly
// outside the grid.
func (g GridSpec) cellRange(b Bounds) (r0, r1, c0, c1 int, ok bool) {
	if !g.Bounds().Intersects(b) {
		return 0, 0, 0, 0, false
	}
	c0 = int(math.Floor((b.MinX - g.MinX) / g.CellSize))
	c1 = int(math.Ceil((b.MaxX-g.MinX)/g.CellSize)) - 1
	r0 = int(math.Floor((g.MaxY - b.MaxY) / g.CellSize))
	r1 = int(math.Ceil((g.MaxY-b.MinY)/g.CellSize)) - 1
	if c0 < 0 {
		c0 = 0
	}
	if r0 < 0 {
		r0 = 0
	}
	if c1 >= g.Width {
		c1 = g.Width - 1
	}
	if r1 >= g.Height {
		r1 = g.Height - 1
	}
	if c1 < c0 || r1 < r0 {
		return 0, 0, 0, 0, false
	}
	return r0, r1, c0, c1, true
}
