package genome

import (
	"math"

	"github.com/pkg/errors"
	"github.com/nvths/novatheus/neat/rmath"
)

// Crossover combines parents A and B into a child genome, per spec §4.4. The operation is
// restartable: a failed attempt (no legal placement found for a colliding output chromosome, or
// the assembled child fails its invariants) is discarded and retried from scratch, up to a bounded
// number of attempts.
func Crossover(a, b *Genome, cons Constraints, rng *rmath.RNG) (*Genome, error) {
	const maxAttempts = 25
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		child, err := crossoverAttempt(a, b, cons, rng)
		if err != nil {
			lastErr = err
			continue
		}
		if err := child.Verify(cons); err != nil {
			lastErr = err
			continue
		}
		return child, nil
	}
	return nil, errors.Wrap(lastErr, "crossover: exhausted attempts")
}

// outputChoice records which parent's output chromosome was picked for one output slot during
// step 2 of crossover, so the exact chosen chromosome can be tracked through copying and relocated
// into the child's final output band by relocateChosenOutputs, per spec §4.4 steps 5-6.
type outputChoice struct {
	fromB bool
	id    int
}

func crossoverAttempt(a, b *Genome, cons Constraints, rng *rmath.RNG) (*Genome, error) {
	if a.InputCount != b.InputCount || a.OutputCount != b.OutputCount {
		return nil, errors.New("crossover: parents have incompatible input/output shape")
	}

	selectedA := make(map[int]bool)
	selectedB := make(map[int]bool)

	aOutputs := a.Outputs()
	bOutputs := b.Outputs()
	if len(aOutputs) != a.OutputCount || len(bOutputs) != b.OutputCount {
		return nil, errors.New("crossover: parent missing output chromosomes")
	}

	chosen := make([]outputChoice, a.OutputCount)
	for slot := 0; slot < a.OutputCount; slot++ {
		if rng.Intn(2) == 0 {
			floodFillAncestors(a, aOutputs[slot], selectedA)
			chosen[slot] = outputChoice{fromB: false, id: aOutputs[slot]}
		} else {
			floodFillAncestors(b, bOutputs[slot], selectedB)
			chosen[slot] = outputChoice{fromB: true, id: bOutputs[slot]}
		}
	}

	child := newEmptyGenome(a.PopulationID, a.InputCount, a.OutputCount)
	remapB := make(map[int]int)

	copySelected := func(parent *Genome, selected map[int]bool, remap map[int]int) error {
		for _, id := range parent.order {
			if !selected[id] {
				continue
			}
			incoming := parent.chromosomes[id].clone()
			incoming.References = make(map[int]struct{})
			incoming.Weights = applyRemap(incoming.Weights, remap)

			existing := child.chromosomes[id]
			if existing == nil {
				child.insert(id, incoming)
				continue
			}

			if existing.IsOutput || incoming.IsOutput {
				// Spec §4.4 step 3: a collision where either side is an output cannot be merged
				// (it would silently erase or blend a chosen output chromosome) — relocate the
				// incoming chromosome forward to the nearest free NID above its own sources
				// instead, remapping later references to it.
				newID, ok := findRelocationSlot(child, incoming, cons)
				if !ok {
					return errors.New("crossover: no relocation slot found for colliding output chromosome")
				}
				remap[id] = newID
				child.insert(newID, incoming)
				continue
			}

			merged, err := mergeChromosomes(existing, incoming, cons, rng)
			if err != nil {
				return err
			}
			child.chromosomes[id] = merged
		}
		return nil
	}
	if err := copySelected(a, selectedA, map[int]int{}); err != nil {
		return nil, err
	}
	if err := copySelected(b, selectedB, remapB); err != nil {
		return nil, err
	}

	if child.Size() == 0 {
		return nil, errors.New("crossover: no chromosomes selected")
	}

	child.rebuildReferences()

	if err := child.relocateChosenOutputs(chosen, remapB, cons); err != nil {
		return nil, err
	}

	child.cleanupOutputs()
	if err := child.pruneTree(cons, rng); err != nil {
		return nil, err
	}

	targetSize := int(rng.TruncatedNormal(
		float64(a.Size()+b.Size())/2,
		0.15*float64(a.Size()+b.Size())/2,
		float64(cons.NeuronMin), float64(cons.NeuronMax)))
	child.trimToSize(targetSize, cons, rng)

	child.cleanupOutputs()
	if err := child.pruneTree(cons, rng); err != nil {
		return nil, err
	}

	lo, hi := a.StartLRExponent, b.StartLRExponent
	if lo > hi {
		lo, hi = hi, lo
	}
	child.StartLRExponent = lo + rng.Float64()*(hi-lo)

	lo, hi = a.DeltaLRExponent, b.DeltaLRExponent
	if lo > hi {
		lo, hi = hi, lo
	}
	child.DeltaLRExponent = lo + rng.Float64()*(hi-lo)

	gen := a.Generation
	if b.Generation > gen {
		gen = b.Generation
	}
	child.Generation = gen + 1

	return child, nil
}

// applyRemap rewrites any weight source already relocated earlier in the same copy pass, leaving
// unaffected sources untouched. Returns weights unmodified if remap is empty.
func applyRemap(weights map[int]float64, remap map[int]int) map[int]float64 {
	if len(remap) == 0 {
		return weights
	}
	out := make(map[int]float64, len(weights))
	for src, w := range weights {
		if newSrc, ok := remap[src]; ok {
			out[newSrc] = w
		} else {
			out[src] = w
		}
	}
	return out
}

// findRelocationSlot returns the lowest free NID strictly above incoming's own sources (and the
// input band), or false if none remains below the genome's ID ceiling.
func findRelocationSlot(child *Genome, incoming *Chromosome, cons Constraints) (int, bool) {
	floor := child.InputCount
	for src := range incoming.Weights {
		if src+1 > floor {
			floor = src + 1
		}
	}
	ceiling := cons.NeuronMax * 8
	for id := floor; id < ceiling; id++ {
		if !child.Has(id) {
			return id, true
		}
	}
	return 0, false
}

// relocateChosenOutputs moves every output chromosome selected in step 2 (remapped to its final
// relocated NID if the collision path above moved it) onto brand-new NIDs above everything else in
// the child, so the subsequent cleanupOutputs pass designates exactly these chromosomes as the
// child's outputs rather than whichever chromosomes happen to occupy the top NID band, per
// spec §4.4 steps 5-6.
func (g *Genome) relocateChosenOutputs(chosen []outputChoice, remapB map[int]int, cons Constraints) error {
	seen := make(map[int]bool, len(chosen))
	var finalIDs []int
	for _, c := range chosen {
		id := c.id
		if c.fromB {
			if newID, ok := remapB[id]; ok {
				id = newID
			}
		}
		if !g.Has(id) {
			return errors.Errorf("crossover: chosen output chromosome %d missing from child", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		finalIDs = append(finalIDs, id)
	}
	if len(finalIDs) != g.OutputCount {
		return errors.New("crossover: chosen output chromosomes collapsed below OutputCount")
	}

	top := g.HighestNID()
	for i, id := range finalIDs {
		g.moveNeuron(id, top+1+i, cons)
	}
	return nil
}

// floodFillAncestors walks backward from start through parent's Weights edges, marking every
// reached NID selected.
func floodFillAncestors(parent *Genome, start int, selected map[int]bool) {
	stack := []int{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if selected[id] || parent.IsInput(id) {
			continue
		}
		selected[id] = true
		c := parent.chromosomes[id]
		if c == nil {
			continue
		}
		for src := range c.Weights {
			if !parent.IsInput(src) && !selected[src] {
				stack = append(stack, src)
			}
		}
	}
}

// mergeChromosomes combines two chromosomes claiming the same NID: coin-flip bias, union weights
// (with overlaps coin-flipped), then resample the target fan-in and trim random excess, per
// spec §4.4 step 3.
func mergeChromosomes(existing, incoming *Chromosome, cons Constraints, rng *rmath.RNG) (*Chromosome, error) {
	merged := newChromosome(existing.Bias, existing.IsOutput || incoming.IsOutput)
	if rng.Intn(2) == 1 {
		merged.Bias = incoming.Bias
	}

	for src, w := range existing.Weights {
		merged.Weights[src] = w
	}
	for src, w := range incoming.Weights {
		if _, dup := merged.Weights[src]; dup {
			if rng.Intn(2) == 1 {
				merged.Weights[src] = w
			}
			continue
		}
		merged.Weights[src] = w
	}

	larger := len(existing.Weights)
	if len(incoming.Weights) > larger {
		larger = len(incoming.Weights)
	}
	smaller := len(existing.Weights)
	if len(incoming.Weights) < smaller {
		smaller = len(incoming.Weights)
	}
	sigma := math.Max(float64(larger-smaller)/2, 1)
	targetFanIn := int(rmath.Clamp(rng.Normal(float64(larger), sigma), 1, float64(cons.FanInMax)))

	for len(merged.Weights) > targetFanIn {
		keys := merged.sortedWeightSources()
		if len(keys) == 0 {
			break
		}
		drop := keys[rng.Intn(len(keys))]
		delete(merged.Weights, drop)
	}
	if len(merged.Weights) == 0 {
		return nil, errors.New("crossover: merge produced a dangling chromosome")
	}
	return merged, nil
}

// rebuildReferences recomputes every chromosome's reverse-reference set from the current Weights
// maps; the flood-fill copy in crossoverAttempt does not carry references along.
func (g *Genome) rebuildReferences() {
	for _, c := range g.chromosomes {
		c.References = make(map[int]struct{})
	}
	for _, id := range g.order {
		c := g.chromosomes[id]
		for src := range c.Weights {
			if !g.IsInput(src) {
				if srcC := g.chromosomes[src]; srcC != nil {
					srcC.References[id] = struct{}{}
				}
			}
		}
	}
}

// trimToSize merges or deletes non-output neurons until the genome reaches targetSize, per
// spec §4.4 step 7. Adjacent pairs in NID order are merged first; once no legal merge remains,
// falls back to random deletion of a non-output leaf.
func (g *Genome) trimToSize(targetSize int, cons Constraints, rng *rmath.RNG) {
	for g.Size() > targetSize {
		merged := false
		for i := 0; i+1 < len(g.order); i++ {
			idA, idB := g.order[i], g.order[i+1]
			cA, cB := g.chromosomes[idA], g.chromosomes[idB]
			if cA.IsOutput || cB.IsOutput {
				continue
			}
			if _, refs := cB.Weights[idA]; !refs {
				continue
			}
			mergedC, err := mergeChromosomes(cA, cB, cons, rng)
			if err != nil {
				continue
			}
			g.remove(idA)
			g.remove(idB)
			g.insert(idB, mergedC)
			merged = true
			break
		}
		if merged {
			g.rebuildReferences()
			continue
		}

		var candidates []int
		for _, id := range g.order {
			c := g.chromosomes[id]
			if !c.IsOutput && len(c.References) == 0 {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) == 0 {
			for _, id := range g.order {
				if !g.chromosomes[id].IsOutput {
					candidates = append(candidates, id)
				}
			}
		}
		if len(candidates) == 0 {
			return
		}
		victim := candidates[rng.Intn(len(candidates))]
		g.deleteNeuron(victim)
		g.rebuildReferences()
	}
}
