package genome

import "github.com/nvths/novatheus/neat/rmath"

// deleteNeuron removes id and cascades: referrers that lose their last weight are deleted in turn.
// Sources that become unreferenced are not deleted here; they stay in place and are reported
// through requiresPruning so a later pruneTree pass removes them. Returns whether the cascade touched
// a chromosome that needs a subsequent pruneTree pass (a source lost a referrer, so it might now
// be unreachable from any output) or cleanupOutputs pass (an output lost its last weight).
func (g *Genome) deleteNeuron(id int) (requiresPruning, requiresOutputCleanup bool) {
	c := g.chromosomes[id]
	if c == nil {
		return false, false
	}

	for src := range c.Weights {
		if g.IsInput(src) {
			continue
		}
		srcC := g.chromosomes[src]
		if srcC == nil {
			continue
		}
		delete(srcC.References, id)
		if len(srcC.References) == 0 && !srcC.IsOutput {
			requiresPruning = true
		}
	}

	for ref := range c.References {
		refC := g.chromosomes[ref]
		if refC == nil {
			continue
		}
		delete(refC.Weights, id)
		if len(refC.Weights) == 0 {
			if refC.IsOutput {
				requiresOutputCleanup = true
			} else {
				rp, ro := g.deleteNeuron(ref)
				requiresPruning = requiresPruning || rp
				requiresOutputCleanup = requiresOutputCleanup || ro
			}
		}
	}

	g.remove(id)
	return requiresPruning, requiresOutputCleanup
}

// cleanupOutputs designates the OutputCount highest-NID chromosomes as outputs, strips any edge
// landing inside the output band (enforcing I6), and deletes any output left with no weights,
// looping until stable. Returns whether a deletion occurred (signalling the caller should also
// run pruneTree).
func (g *Genome) cleanupOutputs() bool {
	deletedAny := false
	for {
		n := len(g.order)
		if n == 0 {
			break
		}
		boundary := n - g.OutputCount
		if boundary < 0 {
			boundary = 0
		}
		g.LowestOutputNID = g.InputCount
		if boundary < n {
			g.LowestOutputNID = g.order[boundary]
		}

		changed := false
		for i, id := range g.order {
			c := g.chromosomes[id]
			want := i >= boundary
			if c.IsOutput != want {
				c.IsOutput = want
				changed = true
			}
		}

		var toDelete []int
		for i := boundary; i < len(g.order); i++ {
			id := g.order[i]
			c := g.chromosomes[id]
			for src := range c.Weights {
				if !g.IsInput(src) && src >= g.LowestOutputNID {
					delete(c.Weights, src)
					if srcC := g.chromosomes[src]; srcC != nil {
						delete(srcC.References, id)
					}
					changed = true
				}
			}
			for ref := range c.References {
				if ref >= g.LowestOutputNID {
					delete(c.References, ref)
					if refC := g.chromosomes[ref]; refC != nil {
						delete(refC.Weights, id)
					}
					changed = true
				}
			}
			if len(c.Weights) == 0 {
				toDelete = append(toDelete, id)
			}
		}

		if len(toDelete) == 0 {
			if !changed {
				break
			}
			continue
		}
		for _, id := range toDelete {
			g.deleteNeuron(id)
			deletedAny = true
		}
	}
	return deletedAny
}

// pruneTree removes every non-output neuron unreachable from any output, topping up with fresh
// random neurons if the genome falls below NeuronMin, per spec §4.2.
func (g *Genome) pruneTree(cons Constraints, rng *rmath.RNG) error {
	for {
		prunable := make(map[int]bool, len(g.order))
		for _, id := range g.order {
			prunable[id] = !g.chromosomes[id].IsOutput
		}
		for i := len(g.order) - 1; i >= 0; i-- {
			id := g.order[i]
			if prunable[id] {
				continue
			}
			c := g.chromosomes[id]
			for src := range c.Weights {
				if !g.IsInput(src) {
					prunable[src] = false
				}
			}
		}

		var toDelete []int
		for _, id := range g.order {
			if prunable[id] {
				toDelete = append(toDelete, id)
			}
		}
		for _, id := range toDelete {
			if g.Has(id) {
				g.deleteNeuron(id)
			}
		}

		g.cleanupOutputs()

		if g.Size() < cons.NeuronMin {
			deficit := cons.NeuronMin - g.Size()
			for i := 0; i < 2*deficit; i++ {
				g.addRandomNeuron(true, false, cons, rng)
			}
			continue
		}
		break
	}
	return nil
}

// moveNeuron relocates the chromosome at src to NID dst. If dst is free, every endpoint pointing
// at src is rewritten to dst. If dst is occupied, src's chromosome is merged into dst's (up to
// FanInMax weights; leftovers dropped), per spec §4.2.
func (g *Genome) moveNeuron(src, dst int, cons Constraints) {
	if src == dst {
		return
	}
	c := g.chromosomes[src]
	if c == nil {
		return
	}

	if !g.Has(dst) {
		g.remove(src)
		for w := range c.References {
			if refC := g.chromosomes[w]; refC != nil {
				if weight, ok := refC.Weights[src]; ok {
					delete(refC.Weights, src)
					refC.Weights[dst] = weight
				}
			}
		}
		for s := range c.Weights {
			if !g.IsInput(s) {
				if srcC := g.chromosomes[s]; srcC != nil {
					delete(srcC.References, src)
					srcC.References[dst] = struct{}{}
				}
			}
		}
		g.insert(dst, c)
		if g.LowestOutputNID == src {
			g.LowestOutputNID = dst
		}
		return
	}

	dstC := g.chromosomes[dst]
	for s, w := range c.Weights {
		if len(dstC.Weights) >= cons.FanInMax {
			if !g.IsInput(s) {
				if srcC := g.chromosomes[s]; srcC != nil {
					delete(srcC.References, src)
				}
			}
			continue
		}
		if _, exists := dstC.Weights[s]; !exists {
			dstC.Weights[s] = w
			if !g.IsInput(s) {
				if srcC := g.chromosomes[s]; srcC != nil {
					delete(srcC.References, src)
					srcC.References[dst] = struct{}{}
				}
			}
		}
	}
	for r := range c.References {
		if refC := g.chromosomes[r]; refC != nil {
			if weight, ok := refC.Weights[src]; ok {
				delete(refC.Weights, src)
				if _, exists := refC.Weights[dst]; !exists {
					refC.Weights[dst] = weight
					dstC.References[r] = struct{}{}
				}
			}
		}
	}
	g.remove(src)
}
