package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	landfuse "github.com/lkgeo/landfuse/pkg/v1"
)

var fuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Run a fusion described by a YAML configuration",
	Long: `Reads the run configuration, processes every dataset in priority order
and writes the fused raster (and, when configured, the merged vector layer).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		skipErrors, _ := cmd.Flags().GetBool("skip-errors")
		parallel, _ := cmd.Flags().GetBool("parallel")
		workers, _ := cmd.Flags().GetInt("workers")
		quiet, _ := cmd.Flags().GetBool("quiet")

		cfg, err := landfuse.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		if cfg.Output == "" {
			return fmt.Errorf("config %s: output is required", cfgPath)
		}

		pipeline, err := cfg.Pipeline()
		if err != nil {
			return err
		}

		opts := landfuse.DefaultRunOptions()
		opts.SkipErrors = skipErrors
		opts.Parallel = parallel
		opts.Workers = workers
		opts.ErrorLog = os.Stderr
		if !quiet {
			opts.Progress = func(done, total int) {
				fmt.Printf("processed %d/%d datasets\n", done, total)
			}
		}

		result, err := pipeline.Run(opts)
		if err != nil {
			return err
		}
		if err := landfuse.WriteRaster(cfg.Output, result.Raster); err != nil {
			return err
		}
		if !quiet {
			printReports(result.Reports)
			fmt.Printf("wrote %s (%d cells assigned)\n", cfg.Output, result.Raster.AssignedCells())
		}

		if cfg.Merged != "" {
			if err := pipeline.ExportMerged(cfg.Merged, opts); err != nil {
				return err
			}
			if !quiet {
				fmt.Printf("wrote %s\n", cfg.Merged)
			}
		}
		return nil
	},
}

func printReports(reports []landfuse.DatasetReport) {
	for _, r := range reports {
		if r.Err != nil {
			fmt.Printf("%s: failed: %v\n", r.Dataset, r.Err)
			continue
		}
		fmt.Printf("%s: %d features read, %d normalized, %d resolved, %d cells claimed\n",
			r.Dataset, r.FeaturesRead, r.Normalized, r.Resolved, r.CellsClaimed)
		if len(r.Unmatched) > 0 {
			codes := make([]string, 0, len(r.Unmatched))
			for code := range r.Unmatched {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			for _, code := range codes {
				fmt.Printf("%s: no lookup entry for %q (%d features dropped)\n",
					r.Dataset, code, r.Unmatched[code])
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(fuseCmd)

	fuseCmd.Flags().StringP("config", "c", "landfuse.yaml", "Run configuration file")
	fuseCmd.Flags().Bool("skip-errors", false, "Continue past datasets that fail")
	fuseCmd.Flags().Bool("parallel", false, "Prepare datasets concurrently")
	fuseCmd.Flags().Int("workers", 0, "Worker count for --parallel (0 = number of CPUs)")
	fuseCmd.Flags().BoolP("quiet", "q", false, "Suppress progress and report output")
}
