package main

import (
	"fmt"
	"log"
	"os"

	landfuse "github.com/lkgeo/landfuse/pkg/v1"
)

func main() {
	// The comparator works on shape alone, so no CRS is needed here.
	// Grids that differ are reconciled by resampling the old raster.
	old, err := landfuse.ReadRaster("landcover-2020.asc", "")
	if err != nil {
		log.Fatal(err)
	}
	current, err := landfuse.ReadRaster("landcover-2025.asc", "")
	if err != nil {
		log.Fatal(err)
	}

	// Which cells changed, and from what to what
	transitions, err := landfuse.Transitions(old, current)
	if err != nil {
		log.Fatal(err)
	}
	changed := 0
	for _, t := range transitions {
		if t.Old != t.New {
			changed += t.Count
		}
	}
	fmt.Printf("%d cells changed class\n", changed)

	f, err := os.Create("transitions.csv")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := landfuse.WriteTransitionsCSV(f, transitions); err != nil {
		log.Fatal(err)
	}

	// Per-class footprint in both years
	census, err := landfuse.ValueCensus(old, current)
	if err != nil {
		log.Fatal(err)
	}
	for _, row := range census {
		fmt.Printf("class %d: %d -> %d cells (%.2f%% -> %.2f%%)\n",
			row.Value, row.OldCount, row.NewCount, row.OldPct, row.NewPct)
	}
}
