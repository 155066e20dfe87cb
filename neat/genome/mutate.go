package genome

import (
	"math"
	"sort"

	"github.com/nvths/novatheus/neat"
	"github.com/nvths/novatheus/neat/rmath"
)

// Mutate applies a random sequence of structural and parametric mutations drawn from weights, per
// spec §4.3. If supermutate is true the mutation count's mean doubles. Clears the tested flag
// unconditionally, even if the mutation count happens to be zero.
func (g *Genome) Mutate(cons Constraints, weights map[neat.MutationType]float64, supermutate bool, rng *rmath.RNG) {
	size := g.Size()
	mu := float64(size) * 0.1
	if supermutate {
		mu *= 2
	}
	sigma := math.Max(float64(size)*0.15, 1)
	k := int(math.Round(rng.TruncatedNormal(mu, sigma, 0, float64(size)*2)))

	types, table := mutationWheel(weights)

	requiresPruning := false
	requiresOutputCleanup := false

	for i := 0; i < k; i++ {
		if g.Size() == 0 {
			break
		}
		idx := rng.RouletteThrow(table)
		if idx < 0 {
			break
		}
		mt := types[idx]
		targetID := g.order[rng.Intn(len(g.order))]

		rp, ro := g.applyMutation(mt, targetID, cons, rng)
		requiresPruning = requiresPruning || rp
		requiresOutputCleanup = requiresOutputCleanup || ro
	}

	if requiresOutputCleanup {
		if g.cleanupOutputs() {
			requiresPruning = true
		}
	}
	if requiresPruning {
		_ = g.pruneTree(cons, rng)
	}
	g.Tested = false
}

// mutationWheel returns the mutation types and their weights in a stable order, for use with
// rmath.RNG.RouletteThrow.
func mutationWheel(weights map[neat.MutationType]float64) ([]neat.MutationType, []float64) {
	types := make([]neat.MutationType, 0, len(weights))
	for t := range weights {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	w := make([]float64, len(types))
	for i, t := range types {
		w[i] = weights[t]
	}
	return types, w
}

// applyMutation dispatches a single mutation of type mt targeting targetID, returning whether
// pruneTree / cleanupOutputs are now required.
func (g *Genome) applyMutation(mt neat.MutationType, targetID int, cons Constraints, rng *rmath.RNG) (requiresPruning, requiresOutputCleanup bool) {
	switch mt {
	case neat.MutationNeuronAdd:
		if g.Size() >= cons.NeuronMax {
			return g.applyMutation(neat.MutationNeuronDelete, targetID, cons, rng)
		}
		g.addRandomNeuron(false, true, cons, rng)

	case neat.MutationNeuronDelete:
		c := g.chromosomes[targetID]
		if g.Size() > cons.NeuronMin && c != nil && !c.IsOutput {
			return g.deleteNeuron(targetID)
		}

	case neat.MutationNeuronIDDrift:
		g.driftNeuronID(targetID, rng)

	case neat.MutationNeuronBiasDrift:
		if c := g.chromosomes[targetID]; c != nil {
			c.Bias = rng.NonZeroNormal(c.Bias, math.Max(math.Abs(c.Bias)/4, 0.01))
		}

	case neat.MutationConnAdd:
		if c := g.chromosomes[targetID]; c != nil && len(c.Weights) < cons.FanInMax {
			if g.addRandomConnectionToNeuron(targetID, false, rng) {
				newFanIn := len(c.Weights)
				factor := 1.0 / math.Sqrt(float64(newFanIn))
				for src := range c.Weights {
					c.Weights[src] *= factor
				}
			}
		}

	case neat.MutationConnDelete:
		c := g.chromosomes[targetID]
		if c == nil {
			break
		}
		if len(c.Weights) > 1 {
			src := g.randomWeightSource(c, rng)
			delete(c.Weights, src)
			if !g.IsInput(src) {
				if srcC := g.chromosomes[src]; srcC != nil {
					delete(srcC.References, targetID)
					if len(srcC.References) == 0 && !srcC.IsOutput {
						requiresPruning = true
					}
				}
			}
		} else if len(c.Weights) == 1 {
			return g.applyMutation(neat.MutationNeuronDelete, targetID, cons, rng)
		}

	case neat.MutationConnIDDrift:
		g.driftConnectionID(targetID, rng)

	case neat.MutationConnWeightDrift:
		if c := g.chromosomes[targetID]; c != nil && len(c.Weights) > 0 {
			src := g.randomWeightSource(c, rng)
			w := c.Weights[src]
			c.Weights[src] = rng.NonZeroNormal(w, math.Max(math.Abs(w)/4, 0.001))
		}

	case neat.MutationLRStartDrift:
		g.StartLRExponent = rng.Normal(g.StartLRExponent, 0.5)

	case neat.MutationLREndDrift:
		g.DeltaLRExponent = rng.Normal(g.DeltaLRExponent, 0.5)
	}
	return requiresPruning, requiresOutputCleanup
}

func (g *Genome) randomWeightSource(c *Chromosome, rng *rmath.RNG) int {
	ids := c.sortedWeightSources()
	return ids[rng.Intn(len(ids))]
}

// driftNeuronID moves targetID to a nearby unused NID, bounded above (exclusive) by the smallest
// referencing neighbour and below (exclusive) by the largest source neighbour, per spec §4.3.
func (g *Genome) driftNeuronID(targetID int, rng *rmath.RNG) {
	c := g.chromosomes[targetID]
	if c == nil || c.IsOutput {
		return
	}

	lowBound := g.InputCount - 1
	for src := range c.Weights {
		if src > lowBound {
			lowBound = src
		}
	}
	highBound := g.LowestOutputNID
	for ref := range c.References {
		if ref < highBound {
			highBound = ref
		}
	}
	if highBound-lowBound <= 1 {
		return
	}

	sigma := math.Max(math.Abs(float64(targetID))*0.15, 1)
	for attempts := 0; attempts < 50; attempts++ {
		cand := int(math.Round(rng.Normal(float64(targetID), sigma)))
		if cand <= lowBound || cand >= highBound {
			continue
		}
		if g.Has(cand) {
			continue
		}
		g.moveNeuron(targetID, cand, Constraints{})
		return
	}
}

// driftConnectionID shifts one of targetID's incoming weights to a nearby source NID, respecting
// the owner boundary and the output band, per spec §4.3.
func (g *Genome) driftConnectionID(targetID int, rng *rmath.RNG) {
	c := g.chromosomes[targetID]
	if c == nil || len(c.Weights) == 0 {
		return
	}
	oldSrc := g.randomWeightSource(c, rng)
	sigma := math.Max(math.Abs(float64(oldSrc))*0.15, 1)

	for attempts := 0; attempts < 50; attempts++ {
		newSrc := int(math.Round(rng.Normal(float64(oldSrc), sigma)))
		if newSrc < 0 || newSrc >= targetID || newSrc >= g.LowestOutputNID {
			continue
		}
		if !g.IsInput(newSrc) && !g.Has(newSrc) {
			continue
		}
		if _, dup := c.Weights[newSrc]; dup {
			if rng.Intn(2) == 0 {
				break
			}
			continue
		}

		w := c.Weights[oldSrc]
		delete(c.Weights, oldSrc)
		if !g.IsInput(oldSrc) {
			if srcC := g.chromosomes[oldSrc]; srcC != nil {
				delete(srcC.References, targetID)
			}
		}
		c.Weights[newSrc] = w
		if !g.IsInput(newSrc) {
			g.chromosomes[newSrc].References[targetID] = struct{}{}
		}
		return
	}
}
