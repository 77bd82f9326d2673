package landfuse

import (
	"fmt"
	"runtime"
	"sync"
)

// runParallel prepares per-dataset rasters with a worker pool and folds
// them into the accumulator strictly in priority order. The fold itself is
// serialized, so the fused result is identical to a serial run.
func (p *Pipeline) runParallel(acc *Raster, result *Result, opts RunOptions) (*Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(p.datasets) {
		workers = len(p.datasets)
	}

	type prepResult struct {
		index  int
		layer  *Raster
		report DatasetReport
	}

	jobs := make(chan int, len(p.datasets))
	results := make(chan prepResult, len(p.datasets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				layer, report := p.prepare(p.datasets[index])
				results <- prepResult{index: index, layer: layer, report: report}
			}
		}()
	}

	for i := range p.datasets {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	byIndex := make(map[int]prepResult, len(p.datasets))
	for r := range results {
		byIndex[r.index] = r
	}

	// Fold in priority order, never in completion order.
	for i := range p.datasets {
		r := byIndex[i]
		result.Reports = append(result.Reports, r.report)

		if r.report.Err != nil {
			opts.logError(p.datasets[i].Name, r.report.Err)
			if !opts.SkipErrors {
				return result, fmt.Errorf("dataset %q: %w", p.datasets[i].Name, r.report.Err)
			}
		} else if err := acc.Fold(r.layer); err != nil {
			return result, fmt.Errorf("dataset %q: %w", p.datasets[i].Name, err)
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(p.datasets))
		}
	}
	return result, nil
}
