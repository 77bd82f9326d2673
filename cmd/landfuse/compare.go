package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	landfuse "github.com/lkgeo/landfuse/pkg/v1"
)

var compareCmd = &cobra.Command{
	Use:   "compare OLD NEW",
	Short: "Cross-tabulate two rasters",
	Long: `Compares an old raster against a new one cell by cell. When the grids
differ the old raster is resampled to the new grid with nearest-neighbour
sampling. Writes the transition table to stdout unless --transitions names
a file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		transitionsPath, _ := cmd.Flags().GetString("transitions")
		censusPath, _ := cmd.Flags().GetString("census")
		diffPath, _ := cmd.Flags().GetString("diff")

		old, err := landfuse.ReadRaster(args[0], "")
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		new, err := landfuse.ReadRaster(args[1], "")
		if err != nil {
			return fmt.Errorf("read %s: %w", args[1], err)
		}

		transitions, err := landfuse.Transitions(old, new)
		if err != nil {
			return err
		}
		out := os.Stdout
		if transitionsPath != "" {
			f, err := os.Create(transitionsPath)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := landfuse.WriteTransitionsCSV(out, transitions); err != nil {
			return err
		}

		if censusPath != "" {
			rows, err := landfuse.ValueCensus(old, new)
			if err != nil {
				return err
			}
			f, err := os.Create(censusPath)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := landfuse.WriteCensusCSV(f, rows); err != nil {
				return err
			}
		}

		if diffPath != "" {
			diff, err := landfuse.Difference(old, new)
			if err != nil {
				return err
			}
			if err := landfuse.WriteRaster(diffPath, diff); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().String("transitions", "", "Write the transition table to this CSV file instead of stdout")
	compareCmd.Flags().String("census", "", "Write a per-value cell census to this CSV file")
	compareCmd.Flags().String("diff", "", "Write the new-minus-old difference raster to this file")
}
