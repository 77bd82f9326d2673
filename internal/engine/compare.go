package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Transition is one (old value, new value) cell-count row of a raster
// cross-tabulation.
type Transition struct {
	Old   int32
	New   int32
	Count int
}

// CensusRow summarizes one cell value's footprint in the old and new
// rasters.
type CensusRow struct {
	Value    int32
	OldCount int
	NewCount int
	OldPct   float64
	NewPct   float64
}

// Transitions cross-tabulates an old raster against a new one, counting
// cells per (old, new) value pair. Every cell contributes, including
// no-data on either side.
//
// When the old raster's grid differs from the new one, the old raster is
// first resampled onto the new grid by nearest-neighbour assignment; this
// is a local recovery, not an error. Rows are sorted by (old, new).
func Transitions(old, new *Raster) ([]Transition, error) {
	old, err := alignToGrid(old, new.Grid)
	if err != nil {
		return nil, err
	}

	counts := make(map[[2]int32]int)
	for row := 0; row < new.Grid.Height; row++ {
		for col := 0; col < new.Grid.Width; col++ {
			counts[[2]int32{old.At(row, col), new.At(row, col)}]++
		}
	}

	out := make([]Transition, 0, len(counts))
	for pair, n := range counts {
		out = append(out, Transition{Old: pair[0], New: pair[1], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Old != out[j].Old {
			return out[i].Old < out[j].Old
		}
		return out[i].New < out[j].New
	})
	return out, nil
}

// ValueCensus reports per-value cell counts and percentages for the old and
// new rasters, resampling the old raster onto the new grid when needed.
// Rows are sorted by value and cover every value present in either raster.
func ValueCensus(old, new *Raster) ([]CensusRow, error) {
	old, err := alignToGrid(old, new.Grid)
	if err != nil {
		return nil, err
	}

	oldCounts := old.CellCount()
	newCounts := new.CellCount()
	total := float64(new.Grid.Width * new.Grid.Height)

	values := make(map[int32]struct{}, len(oldCounts)+len(newCounts))
	for v := range oldCounts {
		values[v] = struct{}{}
	}
	for v := range newCounts {
		values[v] = struct{}{}
	}

	out := make([]CensusRow, 0, len(values))
	for v := range values {
		out = append(out, CensusRow{
			Value:    v,
			OldCount: oldCounts[v],
			NewCount: newCounts[v],
			OldPct:   float64(oldCounts[v]) / total * 100,
			NewPct:   float64(newCounts[v]) / total * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

// Difference returns a raster of new minus old cell values on the new grid,
// resampling the old raster when needed. Category ids are not ordinal, so
// the difference is only meaningful as zero (unchanged) versus non-zero
// (changed), mirroring the original change raster.
func Difference(old, new *Raster) (*Raster, error) {
	old, err := alignToGrid(old, new.Grid)
	if err != nil {
		return nil, err
	}
	diff, err := NewRaster(new.Grid)
	if err != nil {
		return nil, err
	}
	for row := 0; row < new.Grid.Height; row++ {
		for col := 0; col < new.Grid.Width; col++ {
			diff.Set(row, col, new.At(row, col)-old.At(row, col))
		}
	}
	return diff, nil
}

// alignToGrid returns r resampled onto target by nearest-neighbour value
// assignment. Categorical ids must never be interpolated, so each target
// cell takes the value of the source cell containing its center; centers
// outside the source extent become no-data. A raster already on the target
// grid is returned unchanged.
func alignToGrid(r *Raster, target GridSpec) (*Raster, error) {
	if r.Grid.SameShape(target) {
		return r, nil
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	out, err := NewRaster(target)
	if err != nil {
		return nil, err
	}
	for row := 0; row < target.Height; row++ {
		for col := 0; col < target.Width; col++ {
			x, y := target.CellCenter(row, col)
			if sr, sc, ok := r.Grid.CellAt(x, y); ok {
				out.Set(row, col, r.At(sr, sc))
			}
		}
	}
	return out, nil
}

// WriteTransitionsCSV writes the three-column transitions table
// (old value, new value, cell count).
func WriteTransitionsCSV(w io.Writer, transitions []Transition) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"old_value", "new_value", "cell_count"}); err != nil {
		return err
	}
	for _, t := range transitions {
		rec := []string{
			strconv.FormatInt(int64(t.Old), 10),
			strconv.FormatInt(int64(t.New), 10),
			strconv.Itoa(t.Count),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCensusCSV writes the per-value census table with count and
// percentage deltas.
func WriteCensusCSV(w io.Writer, rows []CensusRow) error {
	cw := csv.NewWriter(w)
	header := []string{"value", "old_count", "new_count", "old_pct", "new_pct", "count_diff", "pct_diff"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(int64(r.Value), 10),
			strconv.Itoa(r.OldCount),
			strconv.Itoa(r.NewCount),
			fmt.Sprintf("%.4f", r.OldPct),
			fmt.Sprintf("%.4f", r.NewPct),
			strconv.Itoa(r.NewCount - r.OldCount),
			fmt.Sprintf("%.4f", r.NewPct-r.OldPct),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
