package engine

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// indexedFeature wraps a resolved feature for R-tree storage, remembering
// its position in the input so draw order stays stable after a spatial
// query.
type indexedFeature struct {
	order   int
	feature ResolvedFeature
	bounds  Bounds
}

// Bounds implements rtreego.Spatial.
func (f *indexedFeature) Bounds() rtreego.Rect {
	point := rtreego.Point{f.bounds.MinX, f.bounds.MinY}

	// R-tree rects need non-zero extent; point features get a tiny box.
	const epsilon = 1e-9
	w := f.bounds.MaxX - f.bounds.MinX
	h := f.bounds.MaxY - f.bounds.MinY
	if w < epsilon {
		w = epsilon
	}
	if h < epsilon {
		h = epsilon
	}
	rect, _ := rtreego.NewRect(point, []float64{w, h})
	return rect
}

// FeatureIndex provides spatial queries over a resolved feature collection.
type FeatureIndex struct {
	rtree *rtreego.Rtree
	size  int
}

// NewFeatureIndex builds an R-tree over the features. Features without
// coordinates are excluded: they cannot claim a cell.
func NewFeatureIndex(features []ResolvedFeature) *FeatureIndex {
	idx := &FeatureIndex{rtree: rtreego.NewTree(2, 25, 50)}
	for i, f := range features {
		b, ok := f.Geometry.Bounds()
		if !ok {
			continue
		}
		idx.rtree.Insert(&indexedFeature{order: i, feature: f, bounds: b})
		idx.size++
	}
	return idx
}

// Size returns the number of indexed features.
func (idx *FeatureIndex) Size() int {
	return idx.size
}

// Intersecting returns the features whose bounding box intersects b, in
// stable input order.
func (idx *FeatureIndex) Intersecting(b Bounds) []ResolvedFeature {
	point := rtreego.Point{b.MinX, b.MinY}
	lengths := []float64{b.MaxX - b.MinX, b.MaxY - b.MinY}
	queryRect, _ := rtreego.NewRect(point, lengths)

	spatials := idx.rtree.SearchIntersect(queryRect)

	hits := make([]*indexedFeature, 0, len(spatials))
	for _, spatial := range spatials {
		hits = append(hits, spatial.(*indexedFeature))
	}
	// R-tree result order is unspecified; restore input order so downstream
	// draw order is deterministic.
	sort.Slice(hits, func(i, j int) bool { return hits[i].order < hits[j].order })

	result := make([]ResolvedFeature, len(hits))
	for i, h := range hits {
		result[i] = h.feature
	}
	return result
}

// Rasterize burns a resolved feature collection onto a raster conforming to
// the grid spec.
//
// Every cell a geometry touches is claimed, including cells only partially
// covered. When multiple features cover the same cell the last feature in
// input order wins; the draw order is the stable input order, so identical
// input always produces an identical raster.
func Rasterize(features []ResolvedFeature, grid GridSpec) (*Raster, error) {
	raster, err := NewRaster(grid)
	if err != nil {
		return nil, err
	}

	// Clip to the grid extent up front; features wholly outside the grid
	// cannot claim a cell.
	index := NewFeatureIndex(features)
	for _, f := range index.Intersecting(grid.Bounds()) {
		burnFeature(raster, f.Geometry, f.RasterID)
	}
	return raster, nil
}

func burnFeature(r *Raster, g Geometry, id int32) {
	switch g.Type {
	case GeometryPoint:
		for _, c := range g.Coords {
			if row, col, ok := r.Grid.CellAt(c.X, c.Y); ok {
				r.Set(row, col, id)
			}
		}
	case GeometryLine:
		burnLine(r, g.Coords, id)
	case GeometryPolygon, GeometryMultiPolygon:
		for _, rings := range g.Polygons {
			burnPolygon(r, rings, id)
		}
	}
}

// burnLine claims every cell a path crosses or touches.
func burnLine(r *Raster, path Ring, id int32) {
	if len(path) == 1 {
		if row, col, ok := r.Grid.CellAt(path[0].X, path[0].Y); ok {
			r.Set(row, col, id)
		}
		return
	}
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		seg := Bounds{MinX: a.X, MinY: a.Y, MaxX: a.X, MaxY: a.Y}.extendCoord(b)
		r0, r1, c0, c1, ok := r.Grid.cellRange(seg)
		if !ok {
			continue
		}
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				if segmentIntersectsRect(a, b, r.Grid.CellBounds(row, col)) {
					r.Set(row, col, id)
				}
			}
		}
	}
}

// burnPolygon claims every cell the polygon covers or touches. rings holds
// the outer ring first and holes after; interiority uses the even-odd rule
// so holes fall out naturally, while hole boundaries still claim the cells
// they cross.
func burnPolygon(r *Raster, rings []Ring, id int32) {
	var pb Bounds
	seeded := false
	for _, ring := range rings {
		for _, c := range ring {
			if !seeded {
				pb = Bounds{MinX: c.X, MinY: c.Y, MaxX: c.X, MaxY: c.Y}
				seeded = true
				continue
			}
			pb = pb.extendCoord(c)
		}
	}
	if !seeded {
		return
	}

	r0, r1, c0, c1, ok := r.Grid.cellRange(pb)
	if !ok {
		return
	}
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if polygonIntersectsRect(rings, r.Grid.CellBounds(row, col)) {
				r.Set(row, col, id)
			}
		}
	}
}

// polygonIntersectsRect reports whether a polygon covers any part of the
// rectangle: the rectangle center lies inside, a ring segment crosses the
// rectangle, or the polygon sits entirely within the rectangle.
func polygonIntersectsRect(rings []Ring, rect Bounds) bool {
	cx := (rect.MinX + rect.MaxX) / 2
	cy := (rect.MinY + rect.MaxY) / 2
	if pointInRings(cx, cy, rings) {
		return true
	}
	for _, ring := range rings {
		for i := 0; i+1 < len(ring); i++ {
			if segmentIntersectsRect(ring[i], ring[i+1], rect) {
				return true
			}
		}
	}
	return false
}

// pointInRings applies the even-odd rule across all rings, treating holes
// as exclusions.
func pointInRings(x, y float64, rings []Ring) bool {
	inside := false
	for _, ring := range rings {
		n := len(ring)
		if n < 3 {
			continue
		}
		j := n - 1
		for i := 0; i < n; i++ {
			yi, yj := ring[i].Y, ring[j].Y
			if (yi > y) != (yj > y) {
				xCross := ring[j].X + (y-yj)/(yi-yj)*(ring[i].X-ring[j].X)
				if x < xCross {
					inside = !inside
				}
			}
			j = i
		}
	}
	return inside
}

// segmentIntersectsRect reports whether the segment a-b touches the
// rectangle, including endpoints inside and edge grazing.
func segmentIntersectsRect(a, b Coord, rect Bounds) bool {
	if rect.Contains(a.X, a.Y) || rect.Contains(b.X, b.Y) {
		return true
	}
	// Quick reject on the segment's own box.
	seg := Bounds{MinX: a.X, MinY: a.Y, MaxX: a.X, MaxY: a.Y}.extendCoord(b)
	if !rect.Intersects(seg) {
		return false
	}
	corners := [4]Coord{
		{rect.MinX, rect.MinY},
		{rect.MaxX, rect.MinY},
		{rect.MaxX, rect.MaxY},
		{rect.MinX, rect.MaxY},
	}
	for i := 0; i < 4; i++ {
		if segmentsIntersect(a, b, corners[i], corners[(i+1)%4]) {
			return true
		}
	}
	return false
}

// segmentsIntersect reports whether segments p1-p2 and p3-p4 intersect,
// including collinear overlap and shared endpoints.
func segmentsIntersect(p1, p2, p3, p4 Coord) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

func cross(a, b, c Coord) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment reports whether c, known collinear with a-b, lies within the
// segment's box.
func onSegment(a, b, c Coord) bool {
	return min(a.X, b.X) <= c.X && c.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= c.Y && c.Y <= max(a.Y, b.Y)
}
