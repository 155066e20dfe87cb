package genome

import (
	"math"
	"sort"

	"github.com/nvths/novatheus/neat/rmath"
)

// NewRandomGenome builds a random Genome satisfying invariants I1-I9, per spec §4.1.
func NewRandomGenome(populationID, inputCount, outputCount int, cons Constraints, rng *rmath.RNG) (*Genome, error) {
	g := newEmptyGenome(populationID, inputCount, outputCount)

	mid := float64(cons.NeuronMin+cons.NeuronMax) / 2
	halfRange := float64(cons.NeuronMax-cons.NeuronMin) / 2
	target := int(rng.TruncatedNormal(mid, 0.15*halfRange, float64(cons.NeuronMin), float64(cons.NeuronMax)))

	for g.Size() < target {
		g.addRandomNeuron(true, false, cons, rng)
	}

	g.cleanupOutputs()
	if err := g.pruneTree(cons, rng); err != nil {
		return nil, err
	}
	g.rationaliseWeights()

	g.StartLRExponent = rng.Normal(-4, 1)
	g.DeltaLRExponent = rng.Normal(-6, 1)

	return g, nil
}

// rationaliseWeights applies the Xavier-style factor |weights|^(-1.1) to every chromosome's
// incoming weights. Spec §9 notes the exponent is -1.1, not the textbook -0.5; preserved as
// observed.
func (g *Genome) rationaliseWeights() {
	for _, id := range g.order {
		c := g.chromosomes[id]
		c.rationalise()
	}
}

func (c *Chromosome) rationalise() {
	n := len(c.Weights)
	if n == 0 {
		return
	}
	factor := math.Pow(float64(n), -1.1)
	for src := range c.Weights {
		c.Weights[src] *= factor
	}
}

// addRandomNeuron picks an unused NID, gives it a nonzero bias and a random set of incoming
// connections, and inserts it into the genome. If allowOutput is false, the new NID is confined
// below the genome's current output band. If rationalise is true, the Xavier factor is applied to
// the new chromosome immediately (used by mutation's NeuronAdd, not by initial generation).
func (g *Genome) addRandomNeuron(allowOutput, rationalise bool, cons Constraints, rng *rmath.RNG) int {
	outputCeiling := g.LowestOutputNID
	if allowOutput {
		outputCeiling = cons.NeuronMax * 8
	}
	if outputCeiling <= g.InputCount {
		outputCeiling = g.InputCount + 1
	}

	id := g.pickUnusedNID(g.InputCount, outputCeiling, rng)

	bias := rng.NonZeroNormal(0, 0.5)
	c := newChromosome(bias, false)
	g.insert(id, c)

	availableSlots := g.availableSourceSlots(id)
	mu := math.Min(32, float64(availableSlots)/4)
	sigma := math.Max(mu/4, 1)
	maxConns := cons.FanInMax
	if availableSlots < maxConns {
		maxConns = availableSlots
	}
	if maxConns < 2 {
		maxConns = 2
	}
	count := int(rmath.Clamp(rng.Normal(mu, sigma), 2, float64(maxConns)))

	successes := 0
	attempts := 0
	maxAttempts := (count + 4) * 20
	for successes < count && attempts < maxAttempts {
		attempts++
		if g.addRandomConnectionToNeuron(id, allowOutput, rng) {
			successes++
		}
	}
	// I3 requires at least one incoming weight; keep trying with a relaxed budget if unlucky.
	for successes == 0 {
		if g.addRandomConnectionToNeuron(id, true, rng) {
			successes++
		}
	}

	if rationalise {
		c.rationalise()
	}
	return id
}

// pickUnusedNID returns a random NID in [lo, hi) not already in use by a chromosome or an input.
func (g *Genome) pickUnusedNID(lo, hi int, rng *rmath.RNG) int {
	if hi <= lo {
		hi = lo + 1
	}
	for {
		id := lo + rng.Intn(hi-lo)
		if id < g.InputCount {
			continue
		}
		if !g.Has(id) {
			return id
		}
	}
}

// availableSourceSlots counts the NIDs strictly below id that exist as potential connection
// sources: all inputs, plus every already-placed chromosome with a lower NID.
func (g *Genome) availableSourceSlots(id int) int {
	pos := sort.SearchInts(g.order, id)
	return g.InputCount + pos
}

// addRandomConnectionToNeuron tries to add one new edge touching id, walking outward from id's
// position in ID order by a normally-distributed signed offset (spec §4.1). Returns whether a
// legal new edge was added.
func (g *Genome) addRandomConnectionToNeuron(id int, allowReferencedOutputs bool, rng *rmath.RNG) bool {
	sigma := spawnOffsetCenter(g.Size())
	shift := int(math.Round(rng.Normal(0, sigma)))
	if shift == 0 {
		return false
	}

	other, ok := g.walkFrom(id, shift)
	if !ok || other == id {
		return false
	}

	lowID, highID := other, id
	if id < other {
		lowID, highID = id, other
	}

	if !g.IsInput(lowID) {
		lowC := g.chromosomes[lowID]
		if lowC == nil {
			return false
		}
	}
	highC := g.chromosomes[highID]
	if highC == nil {
		return false
	}
	if !allowReferencedOutputs && highC.IsOutput {
		return false
	}
	if !allowReferencedOutputs && lowID >= g.LowestOutputNID {
		return false
	}
	if _, dup := highC.Weights[lowID]; dup {
		return false
	}
	if len(highC.Weights) >= math.MaxInt32 {
		return false
	}

	w := rng.NonZeroNormal(0, 1)
	highC.Weights[lowID] = w
	if !g.IsInput(lowID) {
		g.chromosomes[lowID].References[highID] = struct{}{}
	}
	return true
}

// walkFrom steps shift positions in ascending-NID order starting from id's position, treating the
// input band [0, InputCount) as a contiguous prefix before the first chromosome. Returns the
// landed-on NID and whether the walk stayed in bounds.
func (g *Genome) walkFrom(id int, shift int) (int, bool) {
	pos := g.positionOf(id)
	newPos := pos + shift
	total := g.InputCount + len(g.order)
	if newPos < 0 || newPos >= total {
		return 0, false
	}
	if newPos < g.InputCount {
		return newPos, true
	}
	return g.order[newPos-g.InputCount], true
}

// positionOf returns id's index in the combined [inputs..chromosomes] ascending sequence.
func (g *Genome) positionOf(id int) int {
	if id < g.InputCount {
		return id
	}
	return g.InputCount + sort.SearchInts(g.order, id)
}
