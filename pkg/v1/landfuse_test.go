package landfuse

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lks94 = "+proj=tmerc +lat_0=0 +lon_0=24 +k=0.9998 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs"

func testGrid() GridSpec {
	return GridSpec{MinX: 0, MaxY: 100, CellSize: 10, Width: 10, Height: 10, CRS: lks94}
}

// memSource serves a fixed collection, or a fixed failure.
type memSource struct {
	fc  *FeatureCollection
	err error
}

func (s memSource) Load() (*FeatureCollection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.fc, nil
}

// square returns a closed polygon ring over the given box.
func square(minX, minY, maxX, maxY float64) Geometry {
	return Geometry{
		Type: GeometryPolygon,
		Polygons: [][]Ring{{{
			{X: minX, Y: minY},
			{X: maxX, Y: minY},
			{X: maxX, Y: maxY},
			{X: minX, Y: maxY},
			{X: minX, Y: minY},
		}}},
	}
}

func testLookup(t *testing.T) *Lookup {
	t.Helper()
	lookup, err := NewLookup(map[string]int32{
		"C_WHEAT": 7,
		"W_Pa":    3,
		"A_":      5,
	})
	require.NoError(t, err)
	return lookup
}

// cropsAndForest builds the two canonical datasets: a crops layer with an
// excluded NEP feature and a WHEAT feature, and a forest layer whose Pa
// feature overlaps the same cell.
func cropsAndForest() (crops, forest Dataset) {
	cell := square(2, 92, 8, 98) // entirely inside cell (0, 0)
	rules := DefaultRules()

	crops = Dataset{
		Name: "crops",
		Source: memSource{fc: &FeatureCollection{
			CRS: lks94,
			Features: []Feature{
				{Geometry: cell, Attributes: map[string]interface{}{"code": "NEP"}},
				{Geometry: cell, Attributes: map[string]interface{}{"code": "WHEAT"}},
			},
		}},
		Rule: rules[0],
	}
	forest = Dataset{
		Name: "forest",
		Source: memSource{fc: &FeatureCollection{
			CRS: lks94,
			Features: []Feature{
				{Geometry: cell, Attributes: map[string]interface{}{"type": "Pa"}},
			},
		}},
		Rule: rules[1],
	}
	return crops, forest
}

func TestRunPriorityOrder(t *testing.T) {
	crops, forest := cropsAndForest()

	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{crops, forest})
	require.NoError(t, err)

	result, err := p.Run(DefaultRunOptions())
	require.NoError(t, err)

	assert.Equal(t, int32(7), result.Raster.At(0, 0), "crops should win the overlap")
	assert.Equal(t, 1, result.Raster.AssignedCells())

	require.Len(t, result.Reports, 2)
	assert.Equal(t, 2, result.Reports[0].FeaturesRead)
	assert.Equal(t, 1, result.Reports[0].Normalized, "NEP row must be excluded")
	assert.Equal(t, 1, result.Reports[0].Resolved)
	assert.Empty(t, result.Reports[0].Unmatched)
	assert.Equal(t, 1, result.Reports[1].Resolved)
}

func TestRunReversedPriorityDiffers(t *testing.T) {
	crops, forest := cropsAndForest()

	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{forest, crops})
	require.NoError(t, err)

	result, err := p.Run(DefaultRunOptions())
	require.NoError(t, err)

	assert.Equal(t, int32(3), result.Raster.At(0, 0), "forest wins when placed first")
}

func TestRunReportsUnmatchedCodes(t *testing.T) {
	cell := square(12, 82, 18, 88)
	ds := Dataset{
		Name: "crops",
		Source: memSource{fc: &FeatureCollection{
			CRS: lks94,
			Features: []Feature{
				{Geometry: cell, Attributes: map[string]interface{}{"code": "BARLEY"}},
			},
		}},
		Rule: DefaultRules()[0],
	}

	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{ds})
	require.NoError(t, err)

	result, err := p.Run(DefaultRunOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Raster.AssignedCells())
	assert.Equal(t, map[string]int{"C_BARLEY": 1}, result.Reports[0].Unmatched)
}

func TestRunAbortsOnFailure(t *testing.T) {
	crops, forest := cropsAndForest()
	crops.Source = memSource{err: os.ErrNotExist}

	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{crops, forest})
	require.NoError(t, err)

	var log bytes.Buffer
	opts := DefaultRunOptions()
	opts.ErrorLog = &log

	result, err := p.Run(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"crops"`)
	assert.Contains(t, log.String(), "crops")

	// The failing dataset is reported, the rest never ran.
	require.Len(t, result.Reports, 1)
	assert.Error(t, result.Reports[0].Err)
}

func TestRunSkipErrors(t *testing.T) {
	crops, forest := cropsAndForest()
	crops.Source = memSource{err: os.ErrNotExist}

	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{crops, forest})
	require.NoError(t, err)

	opts := DefaultRunOptions()
	opts.SkipErrors = true

	result, err := p.Run(opts)
	require.NoError(t, err)

	assert.Equal(t, int32(3), result.Raster.At(0, 0), "surviving dataset still contributes")
	require.Len(t, result.Reports, 2)
	assert.Error(t, result.Reports[0].Err)
	assert.NoError(t, result.Reports[1].Err)
}

func TestRunParallelMatchesSerial(t *testing.T) {
	crops, forest := cropsAndForest()
	abandoned := Dataset{
		Name: "abandoned",
		Source: memSource{fc: &FeatureCollection{
			CRS: lks94,
			Features: []Feature{
				{Geometry: square(2, 92, 8, 98), Attributes: map[string]interface{}{}},
				{Geometry: square(42, 52, 48, 58), Attributes: map[string]interface{}{}},
			},
		}},
		Rule: DefaultRules()[3],
	}
	datasets := []Dataset{crops, forest, abandoned}

	p, err := NewPipeline(testGrid(), testLookup(t), datasets)
	require.NoError(t, err)

	serial, err := p.Run(DefaultRunOptions())
	require.NoError(t, err)

	opts := DefaultRunOptions()
	opts.Parallel = true
	opts.Workers = 2
	parallel, err := p.Run(opts)
	require.NoError(t, err)

	grid := p.Grid()
	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			require.Equal(t, serial.Raster.At(row, col), parallel.Raster.At(row, col),
				"cell (%d, %d)", row, col)
		}
	}
	require.Len(t, parallel.Reports, len(datasets))
	for i, r := range parallel.Reports {
		assert.Equal(t, serial.Reports[i].Dataset, r.Dataset)
		assert.Equal(t, serial.Reports[i].CellsClaimed, r.CellsClaimed)
	}

	assert.Equal(t, int32(7), parallel.Raster.At(0, 0), "priority order holds under parallel prep")
	assert.Equal(t, int32(5), parallel.Raster.At(4, 4))
}

func TestRunProgress(t *testing.T) {
	crops, forest := cropsAndForest()

	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{crops, forest})
	require.NoError(t, err)

	var calls []int
	opts := DefaultRunOptions()
	opts.Progress = func(done, total int) {
		require.Equal(t, 2, total)
		calls = append(calls, done)
	}

	_, err = p.Run(opts)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestNewPipelineValidation(t *testing.T) {
	grid := testGrid()
	lookup := testLookup(t)
	crops, _ := cropsAndForest()

	_, err := NewPipeline(GridSpec{}, lookup, []Dataset{crops})
	assert.Error(t, err, "invalid grid")

	badCRS := grid
	badCRS.CRS = "+proj=nonsense"
	_, err = NewPipeline(badCRS, lookup, []Dataset{crops})
	assert.Error(t, err, "unparseable grid CRS")

	empty, err := NewLookup(nil)
	require.NoError(t, err)
	_, err = NewPipeline(grid, empty, []Dataset{crops})
	assert.Error(t, err, "empty lookup")

	_, err = NewPipeline(grid, lookup, []Dataset{crops, crops})
	assert.Error(t, err, "duplicate dataset name")

	_, err = NewPipeline(grid, lookup, []Dataset{{Name: "crops"}})
	assert.Error(t, err, "nil source")
}

func TestGeoJSONSourceEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crops.geojson")
	doc := `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"geometry": {
					"type": "Polygon",
					"coordinates": [[[2, 92], [8, 92], [8, 98], [2, 98], [2, 92]]]
				},
				"properties": {"code": "WHEAT"}
			}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	ds := Dataset{
		Name:   "crops",
		Source: GeoJSONSource{Path: path},
		CRS:    lks94, // file declares no CRS
		Rule:   DefaultRules()[0],
	}
	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{ds})
	require.NoError(t, err)

	result, err := p.Run(DefaultRunOptions())
	require.NoError(t, err)
	assert.Equal(t, int32(7), result.Raster.At(0, 0))
}

func TestRunFailsWithoutAnyCRS(t *testing.T) {
	crops, _ := cropsAndForest()
	src := crops.Source.(memSource)
	src.fc.CRS = ""
	crops.Source = src

	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{crops})
	require.NoError(t, err)

	_, err = p.Run(DefaultRunOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coordinate reference system")
}

func TestExportMerged(t *testing.T) {
	crops, forest := cropsAndForest()

	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{crops, forest})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "merged.geojson")
	require.NoError(t, p.ExportMerged(path, DefaultRunOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `"C_WHEAT"`)
	assert.Contains(t, text, `"W_Pa"`)
	assert.NotContains(t, text, "NEP", "excluded rows never reach the merged layer")
	// crops precedes forest in priority order.
	assert.Less(t, strings.Index(text, "C_WHEAT"), strings.Index(text, "W_Pa"))
}

func TestRasterRoundTrip(t *testing.T) {
	crops, forest := cropsAndForest()

	p, err := NewPipeline(testGrid(), testLookup(t), []Dataset{crops, forest})
	require.NoError(t, err)
	result, err := p.Run(DefaultRunOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fused.asc")
	require.NoError(t, WriteRaster(path, result.Raster))

	back, err := ReadRaster(path, lks94)
	require.NoError(t, err)
	assert.True(t, back.Grid.SameShape(result.Raster.Grid))
	assert.Equal(t, int32(7), back.At(0, 0))
	assert.Equal(t, result.Raster.AssignedCells(), back.AssignedCells())
}

func TestLoadLookupByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "lookup.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("LU,raster_id\nC_WHEAT,7\nW_Pa,3\n"), 0o644))

	lookup, err := LoadLookup(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, lookup.Len())

	_, err = LoadLookup(filepath.Join(dir, "lookup.dbf"))
	assert.Error(t, err)
}
