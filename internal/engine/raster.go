package engine

// Raster is a single-band grid of integer cell values: a valid lookup id or
// the NoData sentinel. Per-dataset rasters are ephemeral; the accumulator
// raster persists for the whole run.
type Raster struct {
	Grid GridSpec
	data []int32
}

// NewRaster allocates a raster conforming to the grid spec with every cell
// set to NoData.
func NewRaster(grid GridSpec) (*Raster, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return &Raster{
		Grid: grid,
		data: make([]int32, grid.Width*grid.Height),
	}, nil
}

// At returns the value of cell (row, col).
func (r *Raster) At(row, col int) int32 {
	return r.data[row*r.Grid.Width+col]
}

// Set assigns the value of cell (row, col).
func (r *Raster) Set(row, col int, v int32) {
	r.data[row*r.Grid.Width+col] = v
}

// Fold composites layer onto r with the priority rule: cells already
// assigned in r are never overwritten, no-data cells take the layer's
// value. Folding the same layer twice is a no-op.
//
// The fold is strictly order-dependent across layers, so callers must apply
// layers in priority order even when the layers themselves were computed
// concurrently.
func (r *Raster) Fold(layer *Raster) error {
	if !r.Grid.SameShape(layer.Grid) {
		return &ErrGridMismatch{Want: r.Grid, Got: layer.Grid}
	}
	for i, v := range layer.data {
		if r.data[i] == NoData {
			r.data[i] = v
		}
	}
	return nil
}

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	data := make([]int32, len(r.data))
	copy(data, r.data)
	return &Raster{Grid: r.Grid, data: data}
}

// CellCount returns the number of cells per distinct value, including
// NoData.
func (r *Raster) CellCount() map[int32]int {
	counts := make(map[int32]int)
	for _, v := range r.data {
		counts[v]++
	}
	return counts
}

// AssignedCells returns how many cells hold a valid id.
func (r *Raster) AssignedCells() int {
	n := 0
	for _, v := range r.data {
		if v != NoData {
			n++
		}
	}
	return n
}
