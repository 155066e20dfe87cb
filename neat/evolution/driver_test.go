package evolution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvths/novatheus/neat"
	"github.com/nvths/novatheus/neat/dataset"
	"github.com/nvths/novatheus/neat/genome"
	"github.com/nvths/novatheus/neat/rmath"
	"github.com/nvths/novatheus/neat/squash"
	"github.com/nvths/novatheus/neat/stats"
)

func fakeDataset(inputCount, outputCount int) *dataset.Dataset {
	ds := &dataset.Dataset{InputCount: inputCount, OutputCount: outputCount}
	for s := 0; s < 10; s++ {
		section := &dataset.Section{}
		for b := 0; b < 2; b++ {
			batch := &dataset.Batch{}
			for i := 0; i < 8; i++ {
				in := make([]float64, inputCount)
				for j := range in {
					in[j] = 0.1 + 0.02*float64((i+j)%5)
				}
				out := make([]float64, outputCount)
				for j := range out {
					out[j] = 0.1
				}
				out[i%outputCount] = 0.9
				batch.Samples = append(batch.Samples, dataset.Sample{Input: in, Output: out})
			}
			section.Batches = append(section.Batches, batch)
		}
		ds.Sections = append(ds.Sections, section)
	}
	return ds
}

func TestRunPopulationKeepsSizeAndNonDecreasingTopAccuracy(t *testing.T) {
	opts := neat.DefaultOptions()
	opts.NeuronMin = 6
	opts.NeuronMax = 10
	opts.GenWidth = 16
	opts.ConcurrentGenomes = 2
	opts.CrossvalCount = 10
	opts.TestFoldSpan = 3
	opts.StandardBatchCount = 2
	require.NoError(t, opts.Validate())

	rng := rmath.NewRNG(123)
	pop, err := NewPopulation(1, 4, 2, opts, rng)
	require.NoError(t, err)

	var topAccuracies []float64
	d := &Driver{
		Population: pop,
		Options:    opts,
		Dataset:    fakeDataset(4, 2),
		Squasher:   squash.Default,
		RNG:        rng,
		OnStats: func(row stats.Row) error {
			topAccuracies = append(topAccuracies, row.Metrics[5].Top)
			return nil
		},
		OnPersist: func(gen int, ranked []*genome.Genome, best *genome.Genome) error {
			assert.Len(t, ranked, opts.GenWidth)
			assert.NotNil(t, best)
			return nil
		},
	}

	err = d.RunPopulation(context.Background(), 3)
	require.NoError(t, err)

	assert.Len(t, pop.Genomes(), opts.GenWidth)
	require.Len(t, topAccuracies, 3)
	for i := 1; i < len(topAccuracies); i++ {
		assert.GreaterOrEqual(t, topAccuracies[i], topAccuracies[i-1])
	}
}
