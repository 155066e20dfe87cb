package genome

// Metrics is the six-number result of training and testing a Genome's Network over one or more
// dataset folds: three training numbers and their testing counterparts, see spec §4.6/§4.7.
type Metrics struct {
	TrainCost         float64
	TrainWeightedCost float64
	TrainAccuracy     float64
	TestCost          float64
	TestWeightedCost  float64
	TestAccuracy      float64
}

// Add returns the element-wise sum of m and o.
func (m Metrics) Add(o Metrics) Metrics {
	return Metrics{
		TrainCost:         m.TrainCost + o.TrainCost,
		TrainWeightedCost: m.TrainWeightedCost + o.TrainWeightedCost,
		TrainAccuracy:     m.TrainAccuracy + o.TrainAccuracy,
		TestCost:          m.TestCost + o.TestCost,
		TestWeightedCost:  m.TestWeightedCost + o.TestWeightedCost,
		TestAccuracy:      m.TestAccuracy + o.TestAccuracy,
	}
}

// Scale returns m with every field multiplied by f.
func (m Metrics) Scale(f float64) Metrics {
	return Metrics{
		TrainCost:         m.TrainCost * f,
		TrainWeightedCost: m.TrainWeightedCost * f,
		TrainAccuracy:     m.TrainAccuracy * f,
		TestCost:          m.TestCost * f,
		TestWeightedCost:  m.TestWeightedCost * f,
		TestAccuracy:      m.TestAccuracy * f,
	}
}

// AverageMetrics averages a slice of per-fold Metrics into one, as the Crossval Trainer does
// after all CROSSVAL_COUNT fold networks complete (spec §4.7).
func AverageMetrics(all []Metrics) Metrics {
	if len(all) == 0 {
		return Metrics{}
	}
	sum := Metrics{}
	for _, m := range all {
		sum = sum.Add(m)
	}
	return sum.Scale(1.0 / float64(len(all)))
}
