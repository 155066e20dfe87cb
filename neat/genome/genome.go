// Package genome implements the sparse directed-acyclic neural-graph genome: random generation,
// structural repair, mutation, crossover, invariant checking, and binary serialisation. Modeled on
// the teacher's neat/genetics package layout (one file per concern) and its nodeInsert/geneInsert
// ordered-map-plus-sorted-slice pattern in neat/genetics/genome.go, generalised here since this
// genome has no gene list or innovation numbers: chromosomes are addressed directly by NID.
package genome

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// sortInts sorts ids ascending in place.
func sortInts(ids []int) {
	sort.Ints(ids)
}

// Genome is the ordered mapping NID -> Chromosome plus the bookkeeping fields spec §3 names.
type Genome struct {
	PopulationID int
	Generation   int

	InputCount      int
	OutputCount     int
	LowestOutputNID int

	StartLRExponent float64
	DeltaLRExponent float64

	Metrics Metrics
	Rank    int
	Tested  bool

	order       []int // sorted NIDs ascending, kept in sync with chromosomes
	chromosomes map[int]*Chromosome
}

// newEmptyGenome returns a Genome with no chromosomes, ready for population by the generator or
// the codec.
func newEmptyGenome(populationID, inputCount, outputCount int) *Genome {
	return &Genome{
		PopulationID:    populationID,
		InputCount:      inputCount,
		OutputCount:     outputCount,
		LowestOutputNID: inputCount,
		chromosomes:     make(map[int]*Chromosome),
	}
}

// Size returns the number of chromosomes (hidden + output neurons; inputs are not chromosomes).
func (g *Genome) Size() int {
	return len(g.order)
}

// NIDs returns the chromosome NIDs in ascending order. The returned slice is owned by the caller.
func (g *Genome) NIDs() []int {
	out := make([]int, len(g.order))
	copy(out, g.order)
	return out
}

// Chromosome returns the chromosome at id, or nil if id names an input or an unused NID.
func (g *Genome) Chromosome(id int) *Chromosome {
	return g.chromosomes[id]
}

// Has reports whether id names an existing chromosome.
func (g *Genome) Has(id int) bool {
	_, ok := g.chromosomes[id]
	return ok
}

// IsInput reports whether id falls in the virtual input band [0, InputCount).
func (g *Genome) IsInput(id int) bool {
	return id >= 0 && id < g.InputCount
}

// insert adds a new chromosome at id, keeping g.order sorted. Panics if id already exists or is
// the caller's responsibility to have checked; callers in this package always pick fresh NIDs.
func (g *Genome) insert(id int, c *Chromosome) {
	if _, exists := g.chromosomes[id]; exists {
		panic("genome: insert of duplicate NID")
	}
	g.chromosomes[id] = c
	pos := sort.SearchInts(g.order, id)
	g.order = append(g.order, 0)
	copy(g.order[pos+1:], g.order[pos:])
	g.order[pos] = id
}

// remove deletes the chromosome at id from both the map and the ordered index.
func (g *Genome) remove(id int) {
	if _, exists := g.chromosomes[id]; !exists {
		return
	}
	delete(g.chromosomes, id)
	pos := sort.SearchInts(g.order, id)
	if pos < len(g.order) && g.order[pos] == id {
		g.order = append(g.order[:pos], g.order[pos+1:]...)
	}
}

// HighestNID returns the largest NID in use, or InputCount-1 if the genome is empty.
func (g *Genome) HighestNID() int {
	if len(g.order) == 0 {
		return g.InputCount - 1
	}
	return g.order[len(g.order)-1]
}

// Outputs returns the NIDs of the OutputCount output chromosomes in ascending order.
func (g *Genome) Outputs() []int {
	n := len(g.order)
	if n < g.OutputCount {
		return append([]int(nil), g.order...)
	}
	out := make([]int, g.OutputCount)
	copy(out, g.order[n-g.OutputCount:])
	return out
}

// Clone deep-copies the genome, including every chromosome. Used by the evolution driver to copy
// a ranked genome before mutating the copy into a new slot, and as the child when crossover fails;
// elite genomes are carried into the next generation by pointer, not cloned.
func (g *Genome) Clone() *Genome {
	return g.clone()
}

// clone deep-copies the genome, including every chromosome.
func (g *Genome) clone() *Genome {
	n := &Genome{
		PopulationID:    g.PopulationID,
		Generation:      g.Generation,
		InputCount:      g.InputCount,
		OutputCount:     g.OutputCount,
		LowestOutputNID: g.LowestOutputNID,
		StartLRExponent: g.StartLRExponent,
		DeltaLRExponent: g.DeltaLRExponent,
		Metrics:         g.Metrics,
		Rank:            g.Rank,
		Tested:          g.Tested,
		order:           append([]int(nil), g.order...),
		chromosomes:     make(map[int]*Chromosome, len(g.chromosomes)),
	}
	for id, c := range g.chromosomes {
		n.chromosomes[id] = c.clone()
	}
	return n
}

// SetMetrics attaches averaged Crossval Trainer results and marks the genome tested (spec §4.7).
func (g *Genome) SetMetrics(m Metrics) {
	g.Metrics = m
	g.Tested = true
}

// LearningRate returns the learning rate for the given count of batches already trained, per
// spec §4.6: lr = 2^(startExp + trainedBatches * deltaExp / standardBatchCount).
func (g *Genome) LearningRate(trainedBatches, standardBatchCount int) float64 {
	exp := g.StartLRExponent + float64(trainedBatches)*g.DeltaLRExponent/float64(standardBatchCount)
	return pow2(exp)
}

func pow2(x float64) float64 {
	return math.Exp2(x)
}

// Verify checks invariants I1-I9 from spec §3 and returns the first violation found, or nil.
func (g *Genome) Verify(opts Constraints) error {
	size := g.Size()
	if size < opts.NeuronMin || size > opts.NeuronMax {
		return errors.Errorf("I1 violated: size %d outside [%d, %d]", size, opts.NeuronMin, opts.NeuronMax)
	}

	outputs := g.Outputs()
	outputSet := make(map[int]struct{}, len(outputs))
	for _, id := range outputs {
		outputSet[id] = struct{}{}
	}
	for _, id := range g.order {
		c := g.chromosomes[id]
		_, wantOutput := outputSet[id]
		if c.IsOutput != wantOutput {
			return errors.Errorf("I2 violated: chromosome %d isOutput=%v want %v", id, c.IsOutput, wantOutput)
		}
	}

	for _, id := range g.order {
		c := g.chromosomes[id]
		if len(c.Weights) == 0 {
			return errors.Errorf("I3 violated: chromosome %d has no incoming weights", id)
		}
		if len(c.Weights) > opts.FanInMax {
			return errors.Errorf("I8 violated: chromosome %d fan-in %d exceeds %d", id, len(c.Weights), opts.FanInMax)
		}
		if c.Bias == 0 {
			return errors.Errorf("I9 violated: chromosome %d has zero bias", id)
		}
		for src, w := range c.Weights {
			if src >= id {
				return errors.Errorf("I4 violated: chromosome %d has weight from non-lower NID %d", id, src)
			}
			if w == 0 {
				return errors.Errorf("I9 violated: chromosome %d weight from %d is zero", id, src)
			}
		}
	}

	for _, id := range g.order {
		c := g.chromosomes[id]
		for src := range c.Weights {
			if src < g.InputCount {
				continue
			}
			srcC := g.chromosomes[src]
			if srcC == nil {
				return errors.Errorf("I5 violated: chromosome %d references nonexistent source %d", id, src)
			}
			if _, ok := srcC.References[id]; !ok {
				return errors.Errorf("I5 violated: %d -> %d missing reverse reference", src, id)
			}
		}
		for ref := range c.References {
			refC := g.chromosomes[ref]
			if refC == nil {
				return errors.Errorf("I5 violated: chromosome %d referenced by nonexistent %d", id, ref)
			}
			if _, ok := refC.Weights[id]; !ok {
				return errors.Errorf("I5 violated: reference %d -> %d has no matching weight", ref, id)
			}
		}
	}

	for _, id := range outputs {
		c := g.chromosomes[id]
		for src := range c.Weights {
			if _, ok := outputSet[src]; ok {
				return errors.Errorf("I6 violated: output %d weights another output %d", id, src)
			}
		}
	}

	if err := g.verifyReachability(outputSet); err != nil {
		return err
	}

	if err := g.verifyGraphReachability(outputSet); err != nil {
		return err
	}

	return nil
}

// verifyReachability checks I7: every non-output chromosome transitively reaches an output.
// Computed by walking forward in descending order (reverse of evaluation order), which is the
// same traversal direction pruneTree uses to mark non-prunable ancestors.
func (g *Genome) verifyReachability(outputSet map[int]struct{}) error {
	reaches := make(map[int]bool, len(g.order))
	for i := len(g.order) - 1; i >= 0; i-- {
		id := g.order[i]
		if _, ok := outputSet[id]; ok {
			reaches[id] = true
		}
		if !reaches[id] {
			continue
		}
		c := g.chromosomes[id]
		for src := range c.Weights {
			if src >= g.InputCount {
				reaches[src] = true
			}
		}
	}
	for _, id := range g.order {
		if !reaches[id] {
			return errors.Errorf("I7 violated: chromosome %d reaches no output", id)
		}
	}
	return nil
}

// verifyGraphReachability is a second, independently implemented check of I7 built on
// gonum/graph: it builds a directed graph of the genome's edges reversed (consumer -> source),
// checks it with topo.Sort, then runs path.BellmanFordFrom from every output to confirm every
// non-output chromosome is reachable walking backward from some output.
func (g *Genome) verifyGraphReachability(outputSet map[int]struct{}) error {
	dg := simple.NewDirectedGraph()
	for _, id := range g.order {
		dg.AddNode(simple.Node(id))
	}
	for _, id := range g.order {
		c := g.chromosomes[id]
		for src := range c.Weights {
			if g.IsInput(src) {
				continue
			}
			dg.SetEdge(simple.Edge{F: simple.Node(id), T: simple.Node(src)})
		}
	}

	if _, err := topo.Sort(dg); err != nil {
		return errors.Wrap(err, "I7 violated (gonum/graph cross-check): genome graph is not acyclic")
	}

	reached := make(map[int64]bool, len(g.order))
	for _, id := range g.order {
		if _, ok := outputSet[id]; !ok {
			continue
		}
		shortest, ok := path.BellmanFordFrom(simple.Node(id), dg)
		if !ok {
			return errors.New("I7 violated (gonum/graph cross-check): negative cycle in genome graph")
		}
		for _, other := range g.order {
			if _, weight := shortest.To(int64(other)); !math.IsInf(weight, 1) {
				reached[int64(other)] = true
			}
		}
	}
	for _, id := range g.order {
		if _, ok := outputSet[id]; ok {
			continue
		}
		if !reached[int64(id)] {
			return errors.Errorf("I7 violated (gonum/graph cross-check): chromosome %d reaches no output", id)
		}
	}
	return nil
}

// Constraints bounds genome size and fan-in; it carries the subset of neat.Options (NeuronMin,
// NeuronMax, FanInMax) that the genome package's operations take.
type Constraints struct {
	NeuronMin int
	NeuronMax int
	FanInMax  int
}

// spawnOffsetCenter returns max(|size|*0.15, 20), the offset sampling centre used throughout
// §4.1/§4.3 for ID-space walks.
func spawnOffsetCenter(size int) float64 {
	c := float64(size) * 0.15
	if c < 20 {
		return 20
	}
	return c
}
