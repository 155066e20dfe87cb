// Package rmath provides the random-number primitives shared by the genome, network, and
// evolution packages. Per spec §5 ("Shared mutable RNG"), the single engine the original source
// passes around by pointer is unsynchronised process-wide state; here each worker goroutine owns
// its own *rand.Rand seeded from a master engine, so no mutex ever guards RNG access.
package rmath

import "math/rand"

// RNG is a per-worker random source. It is never safe to share a single RNG between goroutines;
// each worker (crossval fold, population slot) must hold its own, seeded from a master RNG.
type RNG struct {
	r *rand.Rand
}

// NewRNG wraps a freshly seeded *rand.Rand.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// Spawn derives a new RNG deterministically from this one, for handing off to a worker goroutine.
func (g *RNG) Spawn() *RNG {
	return NewRNG(g.r.Int63())
}

// Float64 returns a pseudo-random float64 in [0, 1).
func (g *RNG) Float64() float64 { return g.r.Float64() }

// Intn returns a pseudo-random int in [0, n).
func (g *RNG) Intn(n int) int { return g.r.Intn(n) }

// Sign returns +1 or -1 with equal probability.
func (g *RNG) Sign() float64 {
	if g.r.Intn(2) == 0 {
		return -1
	}
	return 1
}

// Normal samples from a normal distribution with the given mean and standard deviation.
func (g *RNG) Normal(mean, stddev float64) float64 {
	return g.r.NormFloat64()*stddev + mean
}

// NonZeroNormal samples from Normal(mean, stddev), resampling until the result is nonzero.
func (g *RNG) NonZeroNormal(mean, stddev float64) float64 {
	for {
		if v := g.Normal(mean, stddev); v != 0 {
			return v
		}
	}
}

// TruncatedNormal samples from Normal(mean, stddev) clamped to [lo, hi].
func (g *RNG) TruncatedNormal(mean, stddev, lo, hi float64) float64 {
	return Clamp(g.Normal(mean, stddev), lo, hi)
}

// Clamp restricts v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt restricts v to the closed interval [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RouletteThrow performs a single throw onto a roulette wheel where the wheel's space is unevenly
// divided; the probability a segment is selected is proportional to that segment's weight.
// Returns the selected index, or -1 if weights is empty or all-zero.
func (g *RNG) RouletteThrow(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return -1
	}
	throw := g.Float64() * total
	accum := 0.0
	for i, w := range weights {
		accum += w
		if throw <= accum {
			return i
		}
	}
	return len(weights) - 1
}
