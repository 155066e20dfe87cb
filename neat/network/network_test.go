package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvths/novatheus/neat/dataset"
	"github.com/nvths/novatheus/neat/genome"
	"github.com/nvths/novatheus/neat/rmath"
)

func fakeBatch(inputCount, outputCount, samples int) *dataset.Batch {
	b := &dataset.Batch{}
	for i := 0; i < samples; i++ {
		in := make([]float64, inputCount)
		for j := range in {
			in[j] = 0.1 + 0.01*float64((i+j)%7)
		}
		out := make([]float64, outputCount)
		for j := range out {
			out[j] = 0.1
		}
		out[i%outputCount] = 0.9
		b.Samples = append(b.Samples, dataset.Sample{Input: in, Output: out})
	}
	return b
}

func TestRunIsDeterministic(t *testing.T) {
	cons := genome.Constraints{NeuronMin: 10, NeuronMax: 20, FanInMax: 8}
	rng := rmath.NewRNG(1)
	g, err := genome.NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)

	n1 := New(g, nil)
	n2 := New(g, nil)

	zero := make([]float64, 4)
	out1 := n1.Run(zero, false)
	out2 := n2.Run(zero, false)
	assert.Equal(t, out1, out2)
}

func TestTrainFromBatchChangesWeights(t *testing.T) {
	cons := genome.Constraints{NeuronMin: 10, NeuronMax: 20, FanInMax: 8}
	rng := rmath.NewRNG(2)
	g, err := genome.NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)

	n := New(g, nil)
	before := snapshotWeights(n)

	batch := fakeBatch(4, 2, 100)
	for i := 0; i < 10; i++ {
		n.TrainFromBatch(batch, 0.01)
	}

	after := snapshotWeights(n)
	assert.NotEqual(t, before, after)
}

func TestTrainFromBatchHistoryStaysBounded(t *testing.T) {
	cons := genome.Constraints{NeuronMin: 10, NeuronMax: 20, FanInMax: 8}
	rng := rmath.NewRNG(3)
	g, err := genome.NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)

	n := New(g, nil)
	batch := fakeBatch(4, 2, 5)

	for i := 0; i < 10; i++ {
		n.TrainFromBatch(batch, 0.01)
	}
	history := n.History()
	assert.Len(t, history, 10)
	assert.LessOrEqual(t, len(history), historyLimit)

	for i := 0; i < historyLimit+20; i++ {
		n.TrainFromBatch(batch, 0.01)
	}
	history = n.History()
	assert.LessOrEqual(t, len(history), historyLimit)
	assert.Len(t, history, historyLimit)
}

func snapshotWeights(n *Network) []float64 {
	var out []float64
	for _, nu := range n.neurons {
		out = append(out, nu.bias)
		for _, w := range nu.weights {
			out = append(out, w.value)
		}
	}
	return out
}
