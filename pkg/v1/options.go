package landfuse

import (
	"fmt"
	"io"
)

// RunOptions controls error handling, progress reporting and concurrency
// for a fusion run.
type RunOptions struct {
	// SkipErrors causes the run to continue when an individual dataset
	// fails. The failed dataset contributes nothing to the accumulator and
	// its report carries the error. When false, the first failure stops
	// the run.
	SkipErrors bool

	// Parallel prepares per-dataset rasters concurrently. The fold into
	// the accumulator still happens strictly in priority order, so the
	// output is identical to a serial run. Parallel preparation holds
	// several datasets' intermediates at once; leave it off when inputs
	// are large and memory is tight.
	Parallel bool

	// Workers is the number of concurrent preparers when Parallel is set.
	// If 0, defaults to runtime.NumCPU().
	Workers int

	// Progress is an optional callback invoked after each dataset is
	// folded (or skipped), with (done, total) counts.
	Progress func(done, total int)

	// ErrorLog is an optional writer for per-dataset failure diagnostics.
	// Each failure is written with the dataset name and reason before the
	// run moves on.
	ErrorLog io.Writer
}

// DefaultRunOptions returns run options with sensible defaults: serial
// processing, stop on first failure.
func DefaultRunOptions() RunOptions {
	return RunOptions{}
}

func (o RunOptions) logError(dataset string, err error) {
	if o.ErrorLog != nil {
		fmt.Fprintf(o.ErrorLog, "dataset %s failed: %v\n", dataset, err)
	}
}
