package landfuse

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/lkgeo/landfuse/internal/engine"
)

// Re-exported engine types. The engine package holds the mechanism; this
// package is the supported API surface.
type (
	// Coord is a single position in the layer's coordinate system.
	Coord = engine.Coord
	// Ring is an ordered coordinate sequence.
	Ring = engine.Ring
	// Geometry is the spatial representation of a feature.
	Geometry = engine.Geometry
	// GeometryType identifies a geometry variant.
	GeometryType = engine.GeometryType
	// Bounds is an axis-aligned bounding box.
	Bounds = engine.Bounds
	// Feature is a raw vector record: geometry plus attribute row.
	Feature = engine.Feature
	// NormalizedFeature carries exactly one attribute, the land-use code.
	NormalizedFeature = engine.NormalizedFeature
	// ResolvedFeature is a normalized feature annotated with its raster id.
	ResolvedFeature = engine.ResolvedFeature
	// FeatureCollection is a set of raw features with a declared CRS.
	FeatureCollection = engine.FeatureCollection
	// Rule is the declarative normalization recipe for one dataset.
	Rule = engine.Rule
	// CodeRule describes how the land-use code is constructed.
	CodeRule = engine.CodeRule
	// CodeRuleKind selects the code-construction variant.
	CodeRuleKind = engine.CodeRuleKind
	// RowFilter keeps or drops rows by one column's value.
	RowFilter = engine.RowFilter
	// Lookup maps land-use codes to raster ids.
	Lookup = engine.Lookup
	// FeatureIndex answers spatial queries over resolved features.
	FeatureIndex = engine.FeatureIndex
	// GridSpec is the shared grid definition all rasters conform to.
	GridSpec = engine.GridSpec
	// Raster is a single-band integer grid.
	Raster = engine.Raster
	// CRS is a parsed coordinate reference system.
	CRS = engine.CRS
	// Transition is one row of a raster cross-tabulation.
	Transition = engine.Transition
	// CensusRow summarizes one value's footprint in two rasters.
	CensusRow = engine.CensusRow
)

const (
	// GeometryPoint represents a single point location.
	GeometryPoint = engine.GeometryPoint
	// GeometryLine represents a connected line path.
	GeometryLine = engine.GeometryLine
	// GeometryPolygon represents a closed area, possibly with holes.
	GeometryPolygon = engine.GeometryPolygon
	// GeometryMultiPolygon represents a collection of polygons.
	GeometryMultiPolygon = engine.GeometryMultiPolygon

	// CodeConstant assigns the same code to every feature.
	CodeConstant = engine.CodeConstant
	// CodePrefixColumn builds the code as prefix + column value.
	CodePrefixColumn = engine.CodePrefixColumn
	// CodePrefixTwoColumns joins two column values under a prefix.
	CodePrefixTwoColumns = engine.CodePrefixTwoColumns

	// NoData is the reserved raster value for unasserted cells.
	NoData = engine.NoData
)

// Source provides raw features for one dataset. Vector file formats are
// external collaborators: implement Source to plug in a different reader.
type Source interface {
	// Load reads the dataset's feature collection.
	Load() (*FeatureCollection, error)
}

// GeoJSONSource loads a feature collection from a GeoJSON file.
type GeoJSONSource struct {
	Path string
}

// Load implements Source.
func (s GeoJSONSource) Load() (*FeatureCollection, error) {
	return engine.ReadGeoJSON(s.Path)
}

// Dataset is one priority-ordered input to the fusion run.
type Dataset struct {
	// Name identifies the dataset in reports and diagnostics.
	Name string

	// Source provides the raw features.
	Source Source

	// CRS is the dataset's Proj4 definition. When set it overrides
	// whatever the source declares; when empty the source's declaration
	// is used, and a dataset with neither fails with a CRS error.
	CRS string

	// Rule is the dataset's normalization recipe.
	Rule Rule
}

// Pipeline runs the priority-based fusion: datasets are processed in the
// order given and folded into the accumulator so earlier datasets win
// overlaps.
type Pipeline struct {
	grid     GridSpec
	gridCRS  *CRS
	lookup   *Lookup
	datasets []Dataset
}

// NewPipeline builds a pipeline for the reference grid, lookup table and
// priority-ordered datasets. The grid's CRS definition must parse: every
// dataset is reconciled to it before rasterization.
func NewPipeline(grid GridSpec, lookup *Lookup, datasets []Dataset) (*Pipeline, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	gridCRS, err := engine.ParseCRS(grid.CRS)
	if err != nil {
		return nil, fmt.Errorf("reference grid: %w", err)
	}
	if lookup == nil || lookup.Len() == 0 {
		return nil, fmt.Errorf("lookup table is empty")
	}

	seen := make(map[string]bool, len(datasets))
	for _, ds := range datasets {
		if ds.Name == "" {
			return nil, fmt.Errorf("dataset with empty name")
		}
		if seen[ds.Name] {
			return nil, fmt.Errorf("duplicate dataset name %q", ds.Name)
		}
		seen[ds.Name] = true
		if ds.Source == nil {
			return nil, fmt.Errorf("dataset %q has no source", ds.Name)
		}
	}

	return &Pipeline{
		grid:     grid,
		gridCRS:  gridCRS,
		lookup:   lookup,
		datasets: datasets,
	}, nil
}

// Grid returns the pipeline's reference grid spec.
func (p *Pipeline) Grid() GridSpec {
	return p.grid
}

// Datasets returns the dataset names in priority order.
func (p *Pipeline) Datasets() []string {
	names := make([]string, len(p.datasets))
	for i, ds := range p.datasets {
		names[i] = ds.Name
	}
	return names
}

// DatasetReport records what happened to one dataset during a run.
type DatasetReport struct {
	Dataset      string
	FeaturesRead int
	Normalized   int
	Resolved     int
	// Unmatched counts dropped features per land-use code with no lookup
	// entry; a stale lookup table shows up here.
	Unmatched map[string]int
	// CellsClaimed is how many cells the dataset's layer asserted before
	// folding.
	CellsClaimed int
	// Err is set when the dataset failed; a failed dataset contributes no
	// cells to the accumulator.
	Err error
}

// Result is the outcome of a fusion run.
type Result struct {
	// Raster is the fused output on the reference grid. Cells no dataset
	// claimed remain NoData; that is expected coverage, not an error.
	Raster *Raster

	// Reports holds one entry per dataset in priority order.
	Reports []DatasetReport
}

// Run executes the fusion: each dataset is normalized, resolved,
// reconciled and rasterized, then folded into the accumulator in priority
// order. Per-dataset intermediates are released before the next dataset is
// processed, so peak memory stays at one dataset plus the accumulator.
//
// A dataset that fails is reported (and logged to opts.ErrorLog) before
// the accumulator would have been touched; with opts.SkipErrors the run
// continues with the remaining datasets, otherwise the first failure
// aborts the run.
func (p *Pipeline) Run(opts RunOptions) (*Result, error) {
	acc, err := engine.NewRaster(p.grid)
	if err != nil {
		return nil, err
	}
	result := &Result{Raster: acc, Reports: make([]DatasetReport, 0, len(p.datasets))}

	if opts.Parallel && len(p.datasets) > 1 {
		return p.runParallel(acc, result, opts)
	}

	for i, ds := range p.datasets {
		layer, report := p.prepare(ds)
		result.Reports = append(result.Reports, report)

		if report.Err != nil {
			opts.logError(ds.Name, report.Err)
			if !opts.SkipErrors {
				return result, fmt.Errorf("dataset %q: %w", ds.Name, report.Err)
			}
		} else if err := acc.Fold(layer); err != nil {
			return result, fmt.Errorf("dataset %q: %w", ds.Name, err)
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(p.datasets))
		}
	}
	return result, nil
}

// prepare runs one dataset through the per-dataset stages and rasterizes
// it. All intermediates are scoped here and released on return.
func (p *Pipeline) prepare(ds Dataset) (*Raster, DatasetReport) {
	report := DatasetReport{Dataset: ds.Name}

	fc, err := ds.Source.Load()
	if err != nil {
		report.Err = fmt.Errorf("load source: %w", err)
		return nil, report
	}
	report.FeaturesRead = len(fc.Features)

	normalized, err := engine.Normalize(fc.Features, ds.Rule)
	if err != nil {
		report.Err = err
		return nil, report
	}
	report.Normalized = len(normalized)

	resolved, unmatched := engine.Resolve(normalized, p.lookup)
	report.Resolved = len(resolved)
	report.Unmatched = unmatched

	sourceCRS, err := p.datasetCRS(ds, fc)
	if err != nil {
		report.Err = err
		return nil, report
	}
	resolved, err = engine.Reconcile(resolved, sourceCRS, p.gridCRS)
	if err != nil {
		report.Err = err
		return nil, report
	}

	layer, err := engine.Rasterize(resolved, p.grid)
	if err != nil {
		report.Err = err
		return nil, report
	}
	report.CellsClaimed = layer.AssignedCells()
	return layer, report
}

// datasetCRS resolves the effective CRS for a dataset: the explicit
// dataset override wins, then the source declaration.
func (p *Pipeline) datasetCRS(ds Dataset, fc *FeatureCollection) (*CRS, error) {
	def := ds.CRS
	if def == "" {
		def = fc.CRS
	}
	if strings.TrimSpace(def) == "" {
		return nil, &engine.ErrInvalidCRS{Dataset: ds.Name}
	}
	crs, err := engine.ParseCRS(def)
	if err != nil {
		if invalid, ok := err.(*engine.ErrInvalidCRS); ok {
			invalid.Dataset = ds.Name
			return nil, invalid
		}
		return nil, err
	}
	return crs, nil
}

// ExportMerged writes every dataset's resolved features, reconciled to the
// grid CRS, as one merged GeoJSON collection in priority order: the vector
// counterpart of the fused raster. Unlike Run it holds all datasets'
// features at once.
func (p *Pipeline) ExportMerged(path string, opts RunOptions) error {
	var merged []ResolvedFeature
	for _, ds := range p.datasets {
		fc, err := ds.Source.Load()
		if err != nil {
			err = fmt.Errorf("load source: %w", err)
			opts.logError(ds.Name, err)
			if !opts.SkipErrors {
				return fmt.Errorf("dataset %q: %w", ds.Name, err)
			}
			continue
		}
		normalized, err := engine.Normalize(fc.Features, ds.Rule)
		if err != nil {
			opts.logError(ds.Name, err)
			if !opts.SkipErrors {
				return fmt.Errorf("dataset %q: %w", ds.Name, err)
			}
			continue
		}
		resolved, _ := engine.Resolve(normalized, p.lookup)
		sourceCRS, err := p.datasetCRS(ds, fc)
		if err != nil {
			opts.logError(ds.Name, err)
			if !opts.SkipErrors {
				return fmt.Errorf("dataset %q: %w", ds.Name, err)
			}
			continue
		}
		resolved, err = engine.Reconcile(resolved, sourceCRS, p.gridCRS)
		if err != nil {
			opts.logError(ds.Name, err)
			if !opts.SkipErrors {
				return fmt.Errorf("dataset %q: %w", ds.Name, err)
			}
			continue
		}
		merged = append(merged, resolved...)
	}
	return engine.WriteGeoJSON(path, merged, p.grid.CRS)
}

// ReadRaster reads a single-band integer raster from an ESRI ASCII grid
// file. The file format carries no CRS; set crs to the grid's Proj4
// definition (it may be empty for purely shape-based operations like the
// comparator).
func ReadRaster(path, crs string) (*Raster, error) {
	r, err := engine.ReadASCIIGrid(path)
	if err != nil {
		return nil, err
	}
	r.Grid.CRS = crs
	return r, nil
}

// WriteRaster writes a raster as an ESRI ASCII grid file.
func WriteRaster(path string, r *Raster) error {
	return engine.WriteASCIIGrid(path, r)
}

// LoadLookup reads a lookup table from a .csv or .xlsx file, deciding by
// extension.
func LoadLookup(path string) (*Lookup, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return engine.LoadLookupXLSX(path)
	case ".csv":
		return engine.LoadLookupCSV(path)
	default:
		return nil, fmt.Errorf("unsupported lookup table format %q", filepath.Ext(path))
	}
}

// NewLookup builds a lookup table from code→id entries.
func NewLookup(entries map[string]int32) (*Lookup, error) {
	return engine.NewLookup(entries)
}

// NewFeatureIndex builds a spatial index over resolved features for bounds
// queries outside a pipeline run.
func NewFeatureIndex(features []ResolvedFeature) *FeatureIndex {
	return engine.NewFeatureIndex(features)
}

// Transitions cross-tabulates an old raster against a new one; see the
// comparator contract on engine.Transitions.
func Transitions(old, new *Raster) ([]Transition, error) {
	return engine.Transitions(old, new)
}

// ValueCensus reports per-value cell counts for two rasters.
func ValueCensus(old, new *Raster) ([]CensusRow, error) {
	return engine.ValueCensus(old, new)
}

// Difference returns the new minus old cell-value raster.
func Difference(old, new *Raster) (*Raster, error) {
	return engine.Difference(old, new)
}

// WriteTransitionsCSV writes the three-column (old, new, count) table.
func WriteTransitionsCSV(w io.Writer, transitions []Transition) error {
	return engine.WriteTransitionsCSV(w, transitions)
}

// WriteCensusCSV writes the per-value census table.
func WriteCensusCSV(w io.Writer, rows []CensusRow) error {
	return engine.WriteCensusCSV(w, rows)
}
