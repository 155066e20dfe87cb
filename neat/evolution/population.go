// Package evolution implements the Evolution Driver: a fixed-width population of genome.Genome
// individuals trained under k-fold cross-validation by a bounded worker pool, ranked, and stepped
// to the next generation by elitism + roulette crossover + mutation. Modeled on the teacher's
// Population (neat/genetics/population.go) for the mutex-guarded shared-state shape, and its
// ParallelPopulationEpochExecutor for the worker-pool fan-out.
package evolution

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/nvths/novatheus/neat"
	"github.com/nvths/novatheus/neat/genome"
	"github.com/nvths/novatheus/neat/rmath"
)

// slotState tracks one population slot's progress through a generation's crossval training pass.
type slotState int

const (
	slotAwaiting slotState = iota
	slotInProgress
	slotCompleted
)

// Population is a fixed-width, ranked collection of Genomes under evolution, per spec §4.8.
type Population struct {
	PopulationID int

	mu      sync.Mutex
	genomes []*genome.Genome
	states  []slotState

	roulette []int // ticket -> rank, built once per driver
}

// NewPopulation seeds a fresh population of opts.GenWidth random genomes.
func NewPopulation(populationID, inputCount, outputCount int, opts *neat.Options, rng *rmath.RNG) (*Population, error) {
	p := &Population{
		PopulationID: populationID,
		genomes:      make([]*genome.Genome, opts.GenWidth),
		states:       make([]slotState, opts.GenWidth),
	}
	cons := constraintsFrom(opts)
	for i := range p.genomes {
		g, err := genome.NewRandomGenome(populationID, inputCount, outputCount, cons, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "evolution: seed genome %d", i)
		}
		p.genomes[i] = g
	}
	p.buildRouletteWheel(opts.GenWidth)
	return p, nil
}

// constraintsFrom narrows a neat.Options down to the genome package's Constraints.
func constraintsFrom(opts *neat.Options) genome.Constraints {
	return genome.Constraints{NeuronMin: opts.NeuronMin, NeuronMax: opts.NeuronMax, FanInMax: opts.FanInMax}
}

// NewLoadedPopulation wraps a slice of genomes already deserialised by LoadPopulation into a
// Population ready for driving, skipping random seeding. The roulette wheel is built from the
// loaded width.
func NewLoadedPopulation(genomes []*genome.Genome) *Population {
	p := &Population{
		genomes: genomes,
		states:  make([]slotState, len(genomes)),
	}
	if len(genomes) > 0 {
		p.PopulationID = genomes[0].PopulationID
	}
	p.buildRouletteWheel(len(genomes))
	return p
}

// Genomes returns the population's current genomes, in slot order.
func (p *Population) Genomes() []*genome.Genome {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*genome.Genome, len(p.genomes))
	copy(out, p.genomes)
	return out
}

// claimNextAwaiting returns the index of the next Awaiting slot (marking it InProgress), or -1 if
// none remain. Already-tested genomes are skipped straight to Completed, mirroring spec §4.8's
// "skipping already-tested genomes as Completed".
func (p *Population) claimNextAwaiting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, st := range p.states {
		if st != slotAwaiting {
			continue
		}
		if p.genomes[i].Tested {
			p.states[i] = slotCompleted
			continue
		}
		p.states[i] = slotInProgress
		return i
	}
	return -1
}

func (p *Population) markCompleted(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[i] = slotCompleted
}

func (p *Population) resetSlots() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.states {
		p.states[i] = slotAwaiting
	}
}

// buildRouletteWheel assigns ticket[i] = (genWidth - i) / (genWidth/16) for rank i, so rank 0 has
// the most tickets and rank genWidth-1 has the fewest, per spec §4.8.
func (p *Population) buildRouletteWheel(genWidth int) {
	unit := genWidth / 16
	if unit < 1 {
		unit = 1
	}
	p.roulette = nil
	for rank := 0; rank < genWidth; rank++ {
		tickets := (genWidth - rank) / unit
		if tickets < 1 {
			tickets = 1
		}
		for t := 0; t < tickets; t++ {
			p.roulette = append(p.roulette, rank)
		}
	}
}
