package genome

// Chromosome is the genetic description of one hidden or output neuron, see spec §3.
//
// Weights maps a source NID (strictly lower than the owner's NID, invariant I4) to the
// connection weight from that source. References holds the set of NIDs that name this
// chromosome as a weight source (strictly higher NIDs, the inverse adjacency maintained
// alongside Weights so that I5 -- "forward references are exact" -- can be checked and kept in
// sync in O(1) per edge instead of O(n) scans).
type Chromosome struct {
	// Bias is this neuron's starting bias; always nonzero at construction (invariant I9).
	Bias float64
	// Weights maps incoming source NID to connection weight.
	Weights map[int]float64
	// References is the set of NIDs whose Weights include this chromosome's NID.
	References map[int]struct{}
	// IsOutput marks this chromosome as one of the outputCount highest-NID chromosomes.
	IsOutput bool
}

// newChromosome returns an empty Chromosome ready to receive weights.
func newChromosome(bias float64, isOutput bool) *Chromosome {
	return &Chromosome{
		Bias:       bias,
		Weights:    make(map[int]float64),
		References: make(map[int]struct{}),
		IsOutput:   isOutput,
	}
}

// clone deep-copies a Chromosome.
func (c *Chromosome) clone() *Chromosome {
	n := &Chromosome{
		Bias:       c.Bias,
		Weights:    make(map[int]float64, len(c.Weights)),
		References: make(map[int]struct{}, len(c.References)),
		IsOutput:   c.IsOutput,
	}
	for k, v := range c.Weights {
		n.Weights[k] = v
	}
	for k := range c.References {
		n.References[k] = struct{}{}
	}
	return n
}

// FanIn returns the number of incoming weights (invariant I8 bounds this by FanInMax).
func (c *Chromosome) FanIn() int {
	return len(c.Weights)
}

// sortedWeightSources returns the source NIDs of Weights in ascending order, for deterministic
// iteration (traversal order must not depend on Go's randomised map iteration).
func (c *Chromosome) sortedWeightSources() []int {
	ids := make([]int, 0, len(c.Weights))
	for id := range c.Weights {
		ids = append(ids, id)
	}
	sortInts(ids)
	return ids
}

// sortedReferences returns the referencing NIDs in ascending order.
func (c *Chromosome) sortedReferences() []int {
	ids := make([]int, 0, len(c.References))
	for id := range c.References {
		ids = append(ids, id)
	}
	sortInts(ids)
	return ids
}
