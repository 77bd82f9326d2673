package engine

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ESRI ASCII grid support. The reference grid and the fused output travel
// as .asc files: a six-line header (ncols, nrows, xllcorner, yllcorner,
// cellsize, NODATA_value) followed by rows of cell values, top row first.
// The format carries no CRS; the caller supplies the grid's Proj4
// definition separately.

// ReadASCIIGrid reads a single-band integer raster from an ESRI ASCII grid
// file. The returned raster's grid spec has an empty CRS.
func ReadASCIIGrid(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	header := map[string]float64{}
	nodata := int64(NoData)
	var rows [][]string

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		// Header lines are "name value" pairs; the first line with more
		// than two fields starts the data block.
		if len(rows) == 0 && len(fields) == 2 {
			key := strings.ToLower(fields[0])
			switch key {
			case "ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value":
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("parse ascii grid header %q: %w", fields[0], err)
				}
				header[key] = v
				if key == "nodata_value" {
					nodata = int64(v)
				}
				continue
			}
		}
		rows = append(rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read raster: %w", err)
	}

	for _, required := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if _, ok := header[required]; !ok {
			return nil, &ErrInvalidGrid{Reason: fmt.Sprintf("ascii grid header missing %s", required)}
		}
	}

	width := int(header["ncols"])
	height := int(header["nrows"])
	cell := header["cellsize"]
	grid := GridSpec{
		MinX:     header["xllcorner"],
		MaxY:     header["yllcorner"] + float64(height)*cell,
		CellSize: cell,
		Width:    width,
		Height:   height,
	}
	raster, err := NewRaster(grid)
	if err != nil {
		return nil, err
	}

	if len(rows) != height {
		return nil, &ErrInvalidGrid{Reason: fmt.Sprintf("ascii grid has %d data rows, header says %d", len(rows), height)}
	}
	for r, fields := range rows {
		if len(fields) != width {
			return nil, &ErrInvalidGrid{Reason: fmt.Sprintf("ascii grid row %d has %d values, header says %d", r+1, len(fields), width)}
		}
		for c, field := range fields {
			v, err := strconv.ParseInt(field, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("parse ascii grid cell (%d, %d): %w", r, c, err)
			}
			if v == nodata {
				v = int64(NoData)
			}
			raster.Set(r, c, int32(v))
		}
	}
	return raster, nil
}

// WriteASCIIGrid writes a raster as an ESRI ASCII grid file. No-data cells
// are written as the NoData sentinel.
func WriteASCIIGrid(path string, r *Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raster: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols %d\n", r.Grid.Width)
	fmt.Fprintf(w, "nrows %d\n", r.Grid.Height)
	fmt.Fprintf(w, "xllcorner %s\n", formatCoord(r.Grid.MinX))
	fmt.Fprintf(w, "yllcorner %s\n", formatCoord(r.Grid.MinY()))
	fmt.Fprintf(w, "cellsize %s\n", formatCoord(r.Grid.CellSize))
	fmt.Fprintf(w, "NODATA_value %d\n", NoData)

	for row := 0; row < r.Grid.Height; row++ {
		for col := 0; col < r.Grid.Width; col++ {
			if col > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(strconv.FormatInt(int64(r.At(row, col)), 10))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write raster: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
