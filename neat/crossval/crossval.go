// Package crossval implements the k-fold cross-validation trainer: given one genome.Genome, it
// builds CrossvalCount networks and fans out training over CrossvalCount disjoint train/test fold
// assignments, averaging the result back onto the genome. The fan-out shape (WaitGroup +
// buffered result channel, one goroutine per unit of work) is ported from the teacher's
// ParallelPopulationEpochExecutor.reproduce (neat/genetics/population_epoch.go).
package crossval

import (
	"fmt"
	"sync"

	"github.com/nvths/novatheus/neat"
	"github.com/nvths/novatheus/neat/dataset"
	"github.com/nvths/novatheus/neat/genome"
	"github.com/nvths/novatheus/neat/network"
	"github.com/nvths/novatheus/neat/rmath"
	"github.com/nvths/novatheus/neat/squash"
)

type foldResult struct {
	index   int
	metrics genome.Metrics
	err     error
}

// Train builds opts.CrossvalCount networks from g, trains/tests each over its own rotating
// train/test fold assignment concurrently, and attaches the averaged Metrics to g via
// g.SetMetrics, per spec §4.7.
func Train(g *genome.Genome, ds *dataset.Dataset, opts *neat.Options, squasher squash.Squasher) error {
	foldCount := opts.CrossvalCount
	testSpan := opts.TestFoldSpan

	var wg sync.WaitGroup
	results := make(chan foldResult, foldCount)

	sectionBatchCount := 0
	if len(ds.Sections) > 0 {
		sectionBatchCount = len(ds.Sections[0].Batches)
	}

	for i := 0; i < foldCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results <- foldResult{index: idx, err: fmt.Errorf("crossval: fold %d panicked: %v", idx, r)}
				}
			}()

			foldMask := make([]bool, len(ds.Sections))
			for j := 0; j < testSpan; j++ {
				foldMask[(idx+j)%len(ds.Sections)] = true
			}

			n := network.New(g, squasher)
			batchOffset := idx * sectionBatchCount
			m := n.TrainFromDataset(g, ds, foldMask, opts.StandardBatchCount, batchOffset, opts.StandardBatchCount)
			results <- foldResult{index: idx, metrics: m}
		}(i)
	}

	wg.Wait()
	close(results)

	all := make([]genome.Metrics, 0, foldCount)
	for r := range results {
		if r.err != nil {
			return r.err
		}
		all = append(all, r.metrics)
	}

	g.SetMetrics(genome.AverageMetrics(all))
	return nil
}

// NewFoldRNG derives an independent RNG from master via Spawn, for a goroutine that needs its own
// unsynchronised generator. Train draws no random numbers and does not call it.
func NewFoldRNG(master *rmath.RNG) *rmath.RNG {
	return master.Spawn()
}
