package engine

import (
	"fmt"
)

// ErrMissingColumn indicates a normalization rule references a column that is
// absent from the dataset's attribute schema. A silently-missing exclusion
// column would let unwanted features through to the raster, so this aborts
// the dataset instead of skipping.
type ErrMissingColumn struct {
	Dataset string
	Column  string
}

func (e *ErrMissingColumn) Error() string {
	return fmt.Sprintf("dataset %q: rule references missing column %q", e.Dataset, e.Column)
}

// ErrInvalidCRS indicates a dataset's coordinate reference system is missing
// or cannot be parsed.
type ErrInvalidCRS struct {
	Dataset    string
	Definition string
	Reason     string
}

func (e *ErrInvalidCRS) Error() string {
	if e.Definition == "" {
		return fmt.Sprintf("dataset %q: no coordinate reference system declared", e.Dataset)
	}
	return fmt.Sprintf("dataset %q: invalid CRS %q: %s", e.Dataset, e.Definition, e.Reason)
}

// ErrGridMismatch indicates two rasters do not share the same grid.
type ErrGridMismatch struct {
	Want GridSpec
	Got  GridSpec
}

func (e *ErrGridMismatch) Error() string {
	return fmt.Sprintf("grid mismatch: want %dx%d cell %g origin (%g, %g), got %dx%d cell %g origin (%g, %g)",
		e.Want.Width, e.Want.Height, e.Want.CellSize, e.Want.MinX, e.Want.MaxY,
		e.Got.Width, e.Got.Height, e.Got.CellSize, e.Got.MinX, e.Got.MaxY)
}

// ErrInvalidLookup indicates a malformed lookup table entry.
type ErrInvalidLookup struct {
	Code   string
	Reason string
}

func (e *ErrInvalidLookup) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("invalid lookup table: %s", e.Reason)
	}
	return fmt.Sprintf("invalid lookup entry %q: %s", e.Code, e.Reason)
}

// ErrInvalidGrid indicates a grid specification that cannot describe a raster.
type ErrInvalidGrid struct {
	Reason string
}

func (e *ErrInvalidGrid) Error() string {
	return fmt.Sprintf("invalid grid: %s", e.Reason)
}
