// Package network compiles a genome.Genome into a dense, directly-evaluable runtime form and
// runs forward and backward passes over it. Modeled on the teacher's FastModularNetwork
// (neat/network/fast_network.go): parallel flat arrays indexed by compact position, rather than a
// pointer graph of node objects, for cache-friendly evaluation.
package network

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nvths/novatheus/neat"
	"github.com/nvths/novatheus/neat/genome"
	"github.com/nvths/novatheus/neat/squash"
)

// weight is one runtime connection: the value-buffer offset of its source, the neuron-array index
// of the source (or -1 if the source is a virtual input with no neuron), the connection weight,
// and its accumulated gradient for the current minibatch.
type weight struct {
	srcOffset int
	srcIndex  int
	value     float64
	gradient  float64
}

// neuron is one runtime hidden/output unit: its bias, bias gradient accumulator, incoming
// weights, and the backprop scratch values cached by the last forward pass.
type neuron struct {
	bias         float64
	biasGradient float64
	weights      []weight
	isOutput     bool

	dActDZ float64 // cached squash'(z) from the last forward pass
	dCostDA float64 // accumulated dCost/dActivation for the in-flight backward pass
}

// historyLimit bounds the rolling training-history buffer to the last 100 minibatches, per
// spec §4.6.
const historyLimit = 100

// HistoryEntry is one minibatch's training result, as pushed onto Network's rolling history.
type HistoryEntry struct {
	Cost         float64
	WeightedCost float64
	Accuracy     float64
}

// Network is the compiled, evaluable form of a genome.Genome, per spec §4.5.
type Network struct {
	inputCount  int
	outputCount int
	squasher    squash.Squasher

	neurons []neuron // ascending-NID order, compact index 0..N-1
	values  []float64 // inputCount + N

	nidToIndex map[int]int

	history []HistoryEntry // rolling buffer of the last historyLimit TrainFromBatch results
}

// New compiles g into a Network using squasher for every neuron's activation.
func New(g *genome.Genome, squasher squash.Squasher) *Network {
	if squasher == nil {
		squasher = squash.Default
	}
	nids := g.NIDs()
	n := &Network{
		inputCount:  g.InputCount,
		outputCount: g.OutputCount,
		squasher:    squasher,
		neurons:     make([]neuron, len(nids)),
		values:      make([]float64, g.InputCount+len(nids)),
		nidToIndex:  make(map[int]int, len(nids)),
	}
	for i, nid := range nids {
		n.nidToIndex[nid] = i
	}
	for i, nid := range nids {
		c := g.Chromosome(nid)
		nu := neuron{
			bias:     c.Bias,
			isOutput: c.IsOutput,
			weights:  make([]weight, 0, len(c.Weights)),
		}
		sources := make([]int, 0, len(c.Weights))
		for src := range c.Weights {
			sources = append(sources, src)
		}
		sort.Ints(sources)
		for _, src := range sources {
			w := c.Weights[src]
			srcIndex := -1
			srcOffset := src
			if !g.IsInput(src) {
				srcIndex = n.nidToIndex[src]
				srcOffset = n.inputCount + srcIndex
			}
			nu.weights = append(nu.weights, weight{
				srcOffset: srcOffset,
				srcIndex:  srcIndex,
				value:     w,
			})
		}
		n.neurons[i] = nu
	}
	return n
}

// InputCount returns the number of input slots the network expects.
func (n *Network) InputCount() int { return n.inputCount }

// OutputCount returns the number of trailing output values Run returns.
func (n *Network) OutputCount() int { return n.outputCount }

// History returns a copy of the network's rolling training-history buffer, oldest entry first.
func (n *Network) History() []HistoryEntry {
	out := make([]HistoryEntry, len(n.history))
	copy(out, n.history)
	return out
}

// pushHistory appends entry to the rolling history buffer, dropping the oldest entry once the
// buffer holds historyLimit entries.
func (n *Network) pushHistory(entry HistoryEntry) {
	n.history = append(n.history, entry)
	if len(n.history) > historyLimit {
		n.history = n.history[len(n.history)-historyLimit:]
	}
}

// Run performs a forward pass: write inputs into the first inputCount value slots, evaluate every
// neuron in ascending order, and return the trailing outputCount values. If prepForBackprop is
// set, each neuron's dAct/dZ is cached and its dCost/dA scratch cleared for a subsequent Backprop
// call, per spec §4.5.
func (n *Network) Run(inputs []float64, prepForBackprop bool) []float64 {
	if len(inputs) != n.inputCount {
		neat.WarnLog(fmt.Sprintf("network: got %d inputs, expected %d; zero-padding", len(inputs), n.inputCount))
	}
	for i := 0; i < n.inputCount; i++ {
		if i < len(inputs) {
			n.values[i] = inputs[i]
		} else {
			n.values[i] = 0
		}
	}

	for i := range n.neurons {
		nu := &n.neurons[i]
		z := nu.bias
		for _, w := range nu.weights {
			z += w.value * n.values[w.srcOffset]
		}
		n.values[n.inputCount+i] = n.squasher.Squash(z)
		if prepForBackprop {
			nu.dActDZ = n.squasher.Derivative(z)
			nu.dCostDA = 0
		}
	}

	out := make([]float64, n.outputCount)
	copy(out, n.values[len(n.values)-n.outputCount:])
	return out
}

// DebugString dumps the current value buffer for REPL introspection, ported in spirit from the
// teacher's Network.PrintActivation/PrintInput. Diagnostic-only.
func (n *Network) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "NETWORK inputs=%d neurons=%d outputs=%d\n", n.inputCount, len(n.neurons), n.outputCount)
	for i, v := range n.values {
		kind := "neuron"
		if i < n.inputCount {
			kind = "input"
		}
		fmt.Fprintf(&b, "\t[%d] %s=%.4f\n", i, kind, v)
	}
	return b.String()
}
