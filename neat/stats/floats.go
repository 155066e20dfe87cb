package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Floats provides descriptive statistics over one metric's values across a generation, ported
// from the teacher's experiment.Floats (experiment/floats.go).
type Floats []float64

// Max returns the greatest value in the slice.
func (x Floats) Max() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return floats.Max(x)
}

// Min returns the smallest value in the slice.
func (x Floats) Min() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return floats.Min(x)
}

// Mean returns the average of the values in the slice.
func (x Floats) Mean() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// sorted returns a sorted copy; stat.Quantile requires its input sorted ascending.
func (x Floats) sorted() Floats {
	s := make(Floats, len(x))
	copy(s, x)
	sort.Float64s(s)
	return s
}

// Median returns the 50% quantile.
func (x Floats) Median() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Quantile(0.5, stat.Empirical, x.sorted(), nil)
}

// Q25 returns the 25% quantile.
func (x Floats) Q25() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Quantile(0.25, stat.Empirical, x.sorted(), nil)
}

// Q75 returns the 75% quantile.
func (x Floats) Q75() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Quantile(0.75, stat.Empirical, x.sorted(), nil)
}
