package main

import (
	"fmt"
	"log"
	"os"

	landfuse "github.com/lkgeo/landfuse/pkg/v1"
)

const lks94 = "+proj=tmerc +lat_0=0 +lon_0=24 +k=0.9998 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs"

func main() {
	// A rule for a dataset the built-in registry doesn't know: meadows
	// coded as "M_" + the kind column, dropping unclassified rows.
	meadowRule := landfuse.Rule{
		Dataset: "meadows",
		Filter: &landfuse.RowFilter{
			Column: "kind",
			Values: []string{"unknown", "none"},
		},
		Code: landfuse.CodeRule{
			Kind:   landfuse.CodePrefixColumn,
			Prefix: "M_",
			Column: "kind",
		},
	}

	// Take the built-in registry and slot meadows in after forest.
	rules := landfuse.DefaultRules()
	datasets := []landfuse.Dataset{
		{Name: "crops", Source: landfuse.GeoJSONSource{Path: "crops.geojson"}, Rule: rules[0]},
		{Name: "forest", Source: landfuse.GeoJSONSource{Path: "forest.geojson"}, Rule: rules[1]},
		{Name: "meadows", Source: landfuse.GeoJSONSource{Path: "meadows.geojson"}, Rule: meadowRule},
	}

	lookup, err := landfuse.LoadLookup("lookup.csv")
	if err != nil {
		log.Fatal(err)
	}

	grid := landfuse.GridSpec{
		MinX:     300000,
		MaxY:     6200000,
		CellSize: 100,
		Width:    4000,
		Height:   3500,
		CRS:      lks94,
	}

	pipeline, err := landfuse.NewPipeline(grid, lookup, datasets)
	if err != nil {
		log.Fatal(err)
	}

	// Prepare datasets concurrently; the fold order is still the
	// priority order above.
	opts := landfuse.DefaultRunOptions()
	opts.Parallel = true
	opts.ErrorLog = os.Stderr
	opts.Progress = func(done, total int) {
		fmt.Printf("\r%d/%d datasets", done, total)
	}

	result, err := pipeline.Run(opts)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println()

	for _, report := range result.Reports {
		for code, n := range report.Unmatched {
			fmt.Printf("warning: %s: %d features with code %s have no lookup entry\n",
				report.Dataset, n, code)
		}
	}

	if err := landfuse.WriteRaster("fused.asc", result.Raster); err != nil {
		log.Fatal(err)
	}
}
