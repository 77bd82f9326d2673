// Package landfuse fuses heterogeneous land-cover vector datasets into one
// consistent categorical raster.
//
// Each input dataset is normalized to a single land-use code attribute,
// joined against a code→id lookup table, reconciled to the reference grid's
// coordinate reference system, and rasterized. The per-dataset rasters are
// then folded into an accumulator in a fixed priority order: a cell keeps
// the value of the first dataset that claims it, and lower-priority
// datasets only fill cells still unset.
//
// The typical entry point is a Pipeline built from a Config:
//
//	cfg, err := landfuse.LoadConfig("landuse.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pipeline, err := cfg.Pipeline()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := pipeline.Run(landfuse.DefaultRunOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := landfuse.WriteRaster(cfg.Output, result.Raster); err != nil {
//	    log.Fatal(err)
//	}
package landfuse
