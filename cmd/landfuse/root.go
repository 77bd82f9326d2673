package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "landfuse",
	Short: "landfuse fuses priority-ordered land-cover vector datasets into a raster",
	Long: `landfuse rasterizes a priority-ordered list of vector land-cover datasets
onto a shared reference grid and folds them into a single raster where
earlier datasets win overlapping cells.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
