package genome

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvths/novatheus/neat"
	"github.com/nvths/novatheus/neat/rmath"
)

func smallConstraints() Constraints {
	return Constraints{NeuronMin: 10, NeuronMax: 20, FanInMax: 8}
}

func TestNewRandomGenomeSatisfiesInvariants(t *testing.T) {
	cons := smallConstraints()
	rng := rmath.NewRNG(42)

	g, err := NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, g.Size(), cons.NeuronMin)
	assert.LessOrEqual(t, g.Size(), cons.NeuronMax)
	assert.NoError(t, g.Verify(cons))
}

func TestCrossoverProducesValidChildRepeatedly(t *testing.T) {
	cons := smallConstraints()
	rng := rmath.NewRNG(7)

	a, err := NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)
	b, err := NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		child, err := Crossover(a, b, cons, rng)
		require.NoError(t, err)
		assert.NoError(t, child.Verify(cons))
	}
}

func TestMutateKeepsSizeInBoundsAndClearsTested(t *testing.T) {
	cons := smallConstraints()
	rng := rmath.NewRNG(99)

	g, err := NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)
	weights := neat.DefaultMutationWeights()

	for i := 0; i < 1000; i++ {
		g.Tested = true
		g.Mutate(cons, weights, false, rng)
		assert.False(t, g.Tested)
		assert.GreaterOrEqual(t, g.Size(), cons.NeuronMin)
		assert.LessOrEqual(t, g.Size(), cons.NeuronMax)
	}
	assert.NoError(t, g.Verify(cons))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cons := smallConstraints()
	rng := rmath.NewRNG(13)

	g, err := NewRandomGenome(2, 4, 2, cons, rng)
	require.NoError(t, err)
	g.SetMetrics(Metrics{TrainCost: 1, TrainWeightedCost: 2, TrainAccuracy: 3, TestCost: 4, TestWeightedCost: 5, TestAccuracy: 6})
	g.Rank = 3

	var buf bytes.Buffer
	require.NoError(t, g.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, g.PopulationID, decoded.PopulationID)
	assert.Equal(t, g.Generation, decoded.Generation)
	assert.Equal(t, g.Tested, decoded.Tested)
	assert.Equal(t, g.Rank, decoded.Rank)
	assert.Equal(t, g.InputCount, decoded.InputCount)
	assert.Equal(t, g.OutputCount, decoded.OutputCount)
	assert.Equal(t, g.LowestOutputNID, decoded.LowestOutputNID)
	assert.InDelta(t, g.StartLRExponent, decoded.StartLRExponent, 1e-4)
	assert.InDelta(t, g.DeltaLRExponent, decoded.DeltaLRExponent, 1e-4)
	assert.Equal(t, g.NIDs(), decoded.NIDs())

	for _, id := range g.NIDs() {
		want := g.Chromosome(id)
		got := decoded.Chromosome(id)
		require.NotNil(t, got)
		assert.InDelta(t, want.Bias, got.Bias, 1e-4)
		assert.Equal(t, want.IsOutput, got.IsOutput)
		assert.Equal(t, len(want.Weights), len(got.Weights))
		for src, w := range want.Weights {
			assert.InDelta(t, w, got.Weights[src], 1e-4)
		}
		assert.Equal(t, len(want.References), len(got.References))
	}
}

func TestCrossoverPreservesOutputCountAcrossCollisions(t *testing.T) {
	cons := smallConstraints()
	rng := rmath.NewRNG(21)

	a, err := NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)
	b, err := NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		child, err := Crossover(a, b, cons, rng)
		require.NoError(t, err)
		require.NoError(t, child.Verify(cons))
		assert.Len(t, child.Outputs(), child.OutputCount)
		for _, id := range child.Outputs() {
			assert.True(t, child.Chromosome(id).IsOutput)
		}
	}
}

func TestEncodeDecodeYAMLRoundTrip(t *testing.T) {
	cons := smallConstraints()
	rng := rmath.NewRNG(17)

	g, err := NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)
	g.SetMetrics(Metrics{TrainCost: 1, TrainWeightedCost: 2, TrainAccuracy: 3, TestCost: 4, TestWeightedCost: 5, TestAccuracy: 6})

	var buf bytes.Buffer
	require.NoError(t, g.EncodeYAML(&buf))

	decoded, err := DecodeYAML(&buf)
	require.NoError(t, err)

	assert.Equal(t, g.NIDs(), decoded.NIDs())
	assert.Equal(t, g.InputCount, decoded.InputCount)
	assert.Equal(t, g.OutputCount, decoded.OutputCount)
	assert.NoError(t, decoded.Verify(cons))
	for _, id := range g.NIDs() {
		want := g.Chromosome(id)
		got := decoded.Chromosome(id)
		require.NotNil(t, got)
		assert.InDelta(t, want.Bias, got.Bias, 1e-9)
		assert.Equal(t, want.IsOutput, got.IsOutput)
		for src, w := range want.Weights {
			assert.InDelta(t, w, got.Weights[src], 1e-9)
		}
	}
}

func TestMutationZeroCountStillClearsTested(t *testing.T) {
	cons := smallConstraints()
	rng := rmath.NewRNG(5)
	g, err := NewRandomGenome(1, 4, 2, cons, rng)
	require.NoError(t, err)

	before := g.Size()
	g.Tested = true
	g.Mutate(cons, map[neat.MutationType]float64{}, false, rng)
	assert.False(t, g.Tested)
	assert.Equal(t, before, g.Size())
}
