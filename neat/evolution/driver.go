package evolution

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvths/novatheus/neat"
	"github.com/nvths/novatheus/neat/crossval"
	"github.com/nvths/novatheus/neat/dataset"
	"github.com/nvths/novatheus/neat/genome"
	"github.com/nvths/novatheus/neat/rmath"
	"github.com/nvths/novatheus/neat/squash"
	"github.com/nvths/novatheus/neat/stats"
)

// PersistFunc is called once per generation with the ranked population and the single best
// genome, so the caller can write them to disk (spec §4.8 step 4). Either argument may be ignored.
type PersistFunc func(gen int, ranked []*genome.Genome, best *genome.Genome) error

// StatsFunc is called once per generation with that generation's statistics row (spec §4.8
// step 3).
type StatsFunc func(row stats.Row) error

// Driver owns one Population and steps it across generations, per spec §4.8.
type Driver struct {
	Population *Population
	Options    *neat.Options
	Dataset    *dataset.Dataset
	Squasher   squash.Squasher
	RNG        *rmath.RNG

	OnPersist PersistFunc
	OnStats   StatsFunc
}

// RunPopulation repeats the generation cycle until genLimit generations have run, or indefinitely
// if genLimit <= 0, per spec §4.8.
func (d *Driver) RunPopulation(ctx context.Context, genLimit int) error {
	for gen := 0; genLimit <= 0 || gen < genLimit; gen++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := d.runGeneration(gen); err != nil {
			return errors.Wrapf(err, "evolution: generation %d", gen)
		}
	}
	return nil
}

// runGeneration performs one full cycle: crossval-train every untested slot, rank, emit
// statistics, persist, and step to the next generation.
func (d *Driver) runGeneration(gen int) error {
	d.Population.resetSlots()

	var wg sync.WaitGroup
	for w := 0; w < d.Options.ConcurrentGenomes; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := d.Population.claimNextAwaiting()
				if idx < 0 {
					return
				}
				g := d.Population.genomes[idx]
				if err := crossval.Train(g, d.Dataset, d.Options, d.Squasher); err != nil {
					neat.ErrorLog(errors.Wrapf(err, "evolution: crossval training slot %d", idx).Error())
				}
				d.Population.markCompleted(idx)
			}
		}()
	}
	wg.Wait()

	ranked := d.rankBySliceOrder()
	row := stats.BuildRow(gen, metricsOf(ranked))
	if d.OnStats != nil {
		if err := d.OnStats(row); err != nil {
			neat.WarnLog(errors.Wrap(err, "evolution: failed to write generation statistics").Error())
		}
	}
	if d.OnPersist != nil {
		best := ranked[0]
		if err := d.OnPersist(gen, ranked, best); err != nil {
			neat.WarnLog(errors.Wrap(err, "evolution: failed to persist generation").Error())
		}
	}

	d.stepPopulation(ranked)
	return nil
}

// RankForStep sorts the population by descending test accuracy and assigns ranks, without
// running any crossval training; used by the REPL's standalone "step population" command.
func (d *Driver) RankForStep() []*genome.Genome {
	return d.rankBySliceOrder()
}

// StepPopulation produces the next generation from ranked, per spec §4.8's stepPopulation.
// Exported for the REPL's standalone "step population" command.
func (d *Driver) StepPopulation(ranked []*genome.Genome) {
	d.stepPopulation(ranked)
}

// rankBySliceOrder sorts the population by descending test accuracy and assigns ranks 0..N-1,
// per spec §4.8 step 2.
func (d *Driver) rankBySliceOrder() []*genome.Genome {
	d.Population.mu.Lock()
	ranked := make([]*genome.Genome, len(d.Population.genomes))
	copy(ranked, d.Population.genomes)
	d.Population.mu.Unlock()

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Metrics.TestAccuracy > ranked[j].Metrics.TestAccuracy
	})
	for i, g := range ranked {
		g.Rank = i
	}
	return ranked
}

func metricsOf(ranked []*genome.Genome) []genome.Metrics {
	out := make([]genome.Metrics, len(ranked))
	for i, g := range ranked {
		out[i] = g.Metrics
	}
	return out
}

// stepPopulation produces the next generation following the fixed slot table from spec §4.8
// (written for GenWidth == 16; scaled proportionally for other widths that are multiples of 16).
func (d *Driver) stepPopulation(ranked []*genome.Genome) {
	width := d.Options.GenWidth
	unit := width / 16
	if unit < 1 {
		unit = 1
	}
	cons := constraintsFrom(d.Options)

	next := make([]*genome.Genome, width)

	eliteEnd := 3 * unit
	for i := 0; i < eliteEnd && i < width; i++ {
		g := ranked[i]
		g.Generation++
		next[i] = g
	}

	pos := eliteEnd
	for u := 0; u < unit && pos < width; u++ {
		g, err := genome.NewRandomGenome(d.Population.PopulationID, ranked[0].InputCount, ranked[0].OutputCount, cons, d.RNG)
		if err == nil {
			next[pos] = g
		} else {
			next[pos] = ranked[0]
		}
		pos++
	}

	rouletteEnd := pos + 4*unit
	for pos < rouletteEnd && pos < width {
		child := d.rouletteChild(ranked, cons, false)
		next[pos] = child
		pos++
	}

	mutateEnd := pos + 4*unit
	for pos < mutateEnd && pos < width {
		child := d.rouletteChild(ranked, cons, true)
		next[pos] = child
		pos++
	}

	midTierStart := 3 * unit
	for u := 0; u < 3*unit && pos < width; u++ {
		src := ranked[midTierStart+u]
		child := src.Clone()
		child.Mutate(cons, d.Options.MutationWeights, false, d.RNG)
		next[pos] = child
		pos++
	}

	for pos < width {
		src := ranked[midTierStart+3*unit]
		child := src.Clone()
		child.Mutate(cons, d.Options.MutationWeights, true, d.RNG)
		next[pos] = child
		pos++
	}

	d.Population.mu.Lock()
	d.Population.genomes = next
	d.Population.states = make([]slotState, width)
	d.Population.mu.Unlock()
}

func (d *Driver) rouletteChild(ranked []*genome.Genome, cons genome.Constraints, mutate bool) *genome.Genome {
	a := ranked[d.Population.rouletteDraw(d.RNG)]
	b := a
	for attempts := 0; attempts < 20 && b == a; attempts++ {
		b = ranked[d.Population.rouletteDraw(d.RNG)]
	}
	child, err := genome.Crossover(a, b, cons, d.RNG)
	if err != nil {
		child = a.Clone()
	}
	if mutate {
		child.Mutate(cons, d.Options.MutationWeights, false, d.RNG)
	}
	return child
}

// rouletteDraw samples a rank from the population's roulette wheel.
func (p *Population) rouletteDraw(rng *rmath.RNG) int {
	if len(p.roulette) == 0 {
		return 0
	}
	return p.roulette[rng.Intn(len(p.roulette))]
}
