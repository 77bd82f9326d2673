package main

import (
	"fmt"
	"log"

	landfuse "github.com/lkgeo/landfuse/pkg/v1"
)

func main() {
	// Load the run configuration
	cfg, err := landfuse.LoadConfig("landfuse.yaml")
	if err != nil {
		log.Fatal(err)
	}

	// Build the pipeline: reference grid, lookup table, datasets
	pipeline, err := cfg.Pipeline()
	if err != nil {
		log.Fatal(err)
	}

	// Fuse the datasets in priority order
	result, err := pipeline.Run(landfuse.DefaultRunOptions())
	if err != nil {
		log.Fatal(err)
	}

	// Print run summary
	grid := pipeline.Grid()
	fmt.Printf("Grid: %dx%d cells of %gm\n", grid.Width, grid.Height, grid.CellSize)
	fmt.Printf("Cells assigned: %d\n", result.Raster.AssignedCells())
	for _, report := range result.Reports {
		fmt.Printf("%s: %d features -> %d cells\n",
			report.Dataset, report.Resolved, report.CellsClaimed)
	}

	if err := landfuse.WriteRaster(cfg.Output, result.Raster); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %s\n", cfg.Output)
}
