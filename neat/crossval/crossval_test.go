package crossval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvths/novatheus/neat"
	"github.com/nvths/novatheus/neat/dataset"
	"github.com/nvths/novatheus/neat/genome"
	"github.com/nvths/novatheus/neat/rmath"
	"github.com/nvths/novatheus/neat/squash"
)

func fakeDataset(inputCount, outputCount int) *dataset.Dataset {
	ds := &dataset.Dataset{InputCount: inputCount, OutputCount: outputCount}
	for s := 0; s < 10; s++ {
		section := &dataset.Section{}
		for b := 0; b < 2; b++ {
			batch := &dataset.Batch{}
			for i := 0; i < 6; i++ {
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

func TestTrainMarksGenomeTestedAndPopulatesMetrics(t *testing.T) {
	opts := neat.DefaultOptions()
	opts.NeuronMin = 6
	opts.NeuronMax = 10
	opts.CrossvalCount = 10
	opts.TestFoldSpan = 3
	opts.StandardBatchCount = 2
	require.NoError(t, opts.Validate())

	rng := rmath.NewRNG(7)
	cons := genome.Constraints{NeuronMin: opts.NeuronMin, NeuronMax: opts.NeuronMax, FanInMax: opts.FanInMax}
	g, err := genome.NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)

	assert.False(t, g.Tested)

	ds := fakeDataset(4, 2)
	require.NoError(t, Train(g, ds, opts, squash.Default))

	assert.True(t, g.Tested)
	assert.GreaterOrEqual(t, g.Metrics.TestAccuracy, 0.0)
	assert.LessOrEqual(t, g.Metrics.TestAccuracy, 100.0)
}

func TestNewFoldRNGProducesIndependentGenerator(t *testing.T) {
	master := rmath.NewRNG(99)
	fold := NewFoldRNG(master)
	require.NotNil(t, fold)
	assert.NotSame(t, master, fold)
}
